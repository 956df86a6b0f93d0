// Package server assembles the echo HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/sagechat/ai/llm"
	"github.com/hrygo/sagechat/internal/profile"
	apiv1 "github.com/hrygo/sagechat/server/router/api/v1"
	"github.com/hrygo/sagechat/server/router/frontend"
	"github.com/hrygo/sagechat/store"
)

const sessionSweepInterval = 10 * time.Minute

// Server is the sagechat HTTP server.
type Server struct {
	Profile  *profile.Profile
	Sessions *store.SessionManager

	echo *echo.Echo
	done chan struct{}
}

// New builds the server: completion client, session manager, API routes,
// and the embedded frontend.
func New(p *profile.Profile) (*Server, error) {
	llmService, err := llm.NewService(&llm.Config{
		Provider: p.LLMProvider,
		Model:    p.LLMModel,
		APIKey:   p.LLMAPIKey,
		BaseURL:  p.LLMBaseURL,
		Timeout:  p.LLMTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init completion client: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	sessions := store.NewSessionManager(24 * time.Hour)

	apiService := apiv1.NewAPIV1Service(p, llmService, sessions)
	apiService.RegisterRoutes(e)

	frontend.NewFrontendService().Serve(e)

	return &Server{
		Profile:  p,
		Sessions: sessions,
		echo:     e,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the listener and the session sweeper until Shutdown.
func (s *Server) Start() error {
	go s.sweepSessions()

	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("sagechat server started",
		"addr", addr,
		"version", s.Profile.Version,
		"mode", s.Profile.Mode,
		"provider", s.Profile.LLMProvider,
		"model", s.Profile.LLMModel,
	)
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)
	return s.echo.Shutdown(ctx)
}

func (s *Server) sweepSessions() {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if dropped := s.Sessions.Sweep(); dropped > 0 {
				slog.Info("idle sessions dropped", "count", dropped, "live", s.Sessions.Len())
			}
		case <-s.done:
			return
		}
	}
}
