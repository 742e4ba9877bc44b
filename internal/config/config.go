// Package config loads configuration from the environment and optional YAML files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// HTTP server
	ListenAddr string

	// Crawler sidecar; empty means the built-in mock crawler is used
	FirecrawlURL string

	// LLM extraction
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Review routing
	ConfidenceThreshold float64

	// Record retention
	Retention     time.Duration
	SweepInterval time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// LLM provider names.
const (
	ProviderMock      = "mock"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		ListenAddr:   getEnv("BRANDLENS_ADDR", ":8484"),
		FirecrawlURL: getEnv("FIRECRAWL_URL", ""),

		LLMProvider:     getEnv("BRANDLENS_LLM_PROVIDER", ProviderMock),
		LLMModel:        getEnv("BRANDLENS_LLM_MODEL", "llama3.1"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		ConfidenceThreshold: parseFloat(getEnv("BRANDLENS_CONFIDENCE_THRESHOLD", "0.85"), 0.85),

		Retention:     parseDuration(getEnv("BRANDLENS_RETENTION", "24h"), 24*time.Hour),
		SweepInterval: parseDuration(getEnv("BRANDLENS_SWEEP_INTERVAL", "1h"), time.Hour),

		LogFile:  getEnv("BRANDLENS_LOG_FILE", "/tmp/brandlens.log"),
		LogLevel: parseLogLevel(getEnv("BRANDLENS_LOG_LEVEL", "INFO")),
	}
}

// LoadFile loads env configuration and overlays values from a YAML file.
// Keys absent from the file keep their env value.
func LoadFile(path string) (Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var overlay fileConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	overlay.apply(&cfg)
	return cfg, nil
}

// fileConfig mirrors Config with pointer fields so absent keys are detectable.
type fileConfig struct {
	ListenAddr          *string  `yaml:"listen_addr"`
	FirecrawlURL        *string  `yaml:"firecrawl_url"`
	LLMProvider         *string  `yaml:"llm_provider"`
	LLMModel            *string  `yaml:"llm_model"`
	OllamaHost          *string  `yaml:"ollama_host"`
	OpenAIAPIKey        *string  `yaml:"openai_api_key"`
	AnthropicAPIKey     *string  `yaml:"anthropic_api_key"`
	ConfidenceThreshold *float64 `yaml:"confidence_threshold"`
	Retention           *string  `yaml:"retention"`
	SweepInterval       *string  `yaml:"sweep_interval"`
	LogFile             *string  `yaml:"log_file"`
	LogLevel            *string  `yaml:"log_level"`
}

func (f *fileConfig) apply(cfg *Config) {
	if f.ListenAddr != nil {
		cfg.ListenAddr = *f.ListenAddr
	}
	if f.FirecrawlURL != nil {
		cfg.FirecrawlURL = *f.FirecrawlURL
	}
	if f.LLMProvider != nil {
		cfg.LLMProvider = *f.LLMProvider
	}
	if f.LLMModel != nil {
		cfg.LLMModel = *f.LLMModel
	}
	if f.OllamaHost != nil {
		cfg.OllamaHost = *f.OllamaHost
	}
	if f.OpenAIAPIKey != nil {
		cfg.OpenAIAPIKey = *f.OpenAIAPIKey
	}
	if f.AnthropicAPIKey != nil {
		cfg.AnthropicAPIKey = *f.AnthropicAPIKey
	}
	if f.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = *f.ConfidenceThreshold
	}
	if f.Retention != nil {
		cfg.Retention = parseDuration(*f.Retention, cfg.Retention)
	}
	if f.SweepInterval != nil {
		cfg.SweepInterval = parseDuration(*f.SweepInterval, cfg.SweepInterval)
	}
	if f.LogFile != nil {
		cfg.LogFile = *f.LogFile
	}
	if f.LogLevel != nil {
		cfg.LogLevel = parseLogLevel(*f.LogLevel)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseFloat(s string, defaultVal float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
