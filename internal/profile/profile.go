package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, siliconflow, openrouter, ollama) use the same config.
	LLMProvider    string  // Provider identifier
	LLMAPIKey      string  // API key (the provider credential; never logged)
	LLMBaseURL     string  // Base URL (optional, has default per provider)
	LLMModel       string  // Model name: gpt-4o, deepseek-chat, etc.
	LLMTimeout     int     // LLM request timeout in seconds (default: 120)
	LLMTemperature float32 // Sampling temperature for chat calls (default: 0.7)

	// HistoryBudget caps how many characters of prior turns are replayed
	// to the model on each call. Oldest turns are dropped first.
	HistoryBudget int

	// ExcerptLimit bounds document excerpts sent for analysis, in characters.
	ExcerptLimit int

	Mode    string // dev, prod
	Addr    string
	Port    int
	Data    string // data directory for the query log and exports
	Version string
}

// Provider default configurations for LLM.
// Used when SAGECHAT_LLM_BASE_URL or SAGECHAT_LLM_MODEL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMConfigured returns true if an LLM API key is configured.
// Ollama is the exception: local endpoints need no credential.
func (p *Profile) IsLLMConfigured() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("SAGECHAT_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("SAGECHAT_LLM_API_KEY", os.Getenv("OPENAI_API_KEY"))
	p.LLMBaseURL = getEnvOrDefault("SAGECHAT_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("SAGECHAT_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("SAGECHAT_LLM_TIMEOUT_SECONDS", 120)
	p.LLMTemperature = 0.7
	if v := os.Getenv("SAGECHAT_LLM_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			p.LLMTemperature = float32(f)
		}
	}

	p.HistoryBudget = getEnvOrDefaultInt("SAGECHAT_HISTORY_BUDGET_CHARS", 24000)
	p.ExcerptLimit = getEnvOrDefaultInt("SAGECHAT_EXCERPT_LIMIT_CHARS", 3000)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Data == "" {
		if p.Mode == "prod" {
			if runtime.GOOS == "windows" {
				p.Data = filepath.Join(os.Getenv("ProgramData"), "sagechat")
				if _, err := os.Stat(p.Data); os.IsNotExist(err) {
					if err := os.MkdirAll(p.Data, 0770); err != nil {
						slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
						return err
					}
				}
			} else {
				p.Data = "/var/opt/sagechat"
			}
		} else {
			p.Data = "."
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return errors.Wrap(err, "invalid data directory")
	}
	p.Data = dataDir

	if p.Port <= 0 || p.Port > 65535 {
		return fmt.Errorf("invalid port %d", p.Port)
	}

	if p.LLMTimeout <= 0 {
		p.LLMTimeout = 120
	}
	if p.HistoryBudget <= 0 {
		p.HistoryBudget = 24000
	}
	if p.ExcerptLimit <= 0 {
		p.ExcerptLimit = 3000
	}

	return nil
}
