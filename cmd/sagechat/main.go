package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/sagechat/internal/profile"
	"github.com/hrygo/sagechat/internal/version"
	"github.com/hrygo/sagechat/server"
)

var rootCmd = &cobra.Command{
	Use:   "sagechat",
	Short: "A small chat service backed by an OpenAI-compatible provider",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().String("addr", "", "address to bind (default all interfaces)")
	rootCmd.Flags().Int("port", 8230, "port to listen on")
	rootCmd.Flags().String("data", "", "data directory for the query log and exports")
	rootCmd.Flags().String("mode", "dev", "dev or prod")

	_ = viper.BindPFlag("addr", rootCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("data", rootCmd.Flags().Lookup("data"))
	_ = viper.BindPFlag("mode", rootCmd.Flags().Lookup("mode"))
	viper.SetEnvPrefix("sagechat")
	viper.AutomaticEnv()
}

func run() error {
	// Best-effort: a missing .env is the normal case in production.
	_ = godotenv.Load()

	p := &profile.Profile{
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Mode:    viper.GetString("mode"),
		Version: version.String(),
	}
	p.FromEnv()
	setupLogger(p)
	slog.Info("sagechat starting", "build", version.StringFull())

	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !p.IsLLMConfigured() {
		slog.Warn("no LLM API key configured; completion calls will fail and surface as error replies",
			"hint", "set SAGECHAT_LLM_API_KEY or OPENAI_API_KEY",
		)
	}

	srv, err := server.New(p)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if serveErr := srv.Start(); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
		return err
	}
	slog.Info("bye")
	return nil
}

func setupLogger(p *profile.Profile) {
	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
