package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"triage-assistant/internal/core"
)

// Config carries all process configuration. Values come from an optional
// config.yaml, with environment variables taking precedence.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`

	LLMProvider     string `yaml:"llm_provider"` // "anthropic" or "openai"
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	// ConfidenceThreshold is the minimum extraction confidence before a chat
	// turn yields a final classification.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// SubspecialtyPolicy decides whether an unmatched subspecialty is nulled
	// ("strict") or kept as the model wrote it ("permissive").
	SubspecialtyPolicy string `yaml:"subspecialty_policy"`
	// HistoryWindow limits how many transcript turns the chat prompt
	// carries; 0 sends the full history.
	HistoryWindow int `yaml:"history_window"`

	// AllowedOrigins is the CORS allow-list. The first entry is the fallback
	// when a request origin is not listed.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads config.yaml (or $CONFIG_PATH) if present, applies env-var
// overrides and defaults, and validates the result.
func Load() (Config, error) {
	var cfg Config
	// Pre-seeded so an explicit history_window: 0 (full history) survives;
	// the other defaults apply only when the field is left empty.
	cfg.HistoryWindow = 4

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.Port, "PORT")
	envOverride(&cfg.DatabaseURL, "DATABASE_URL")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.SubspecialtyPolicy, "SUBSPECIALTY_POLICY")
	if err := envOverrideFloat(&cfg.ConfidenceThreshold, "CONFIDENCE_THRESHOLD"); err != nil {
		return Config{}, err
	}
	if err := envOverrideInt(&cfg.HistoryWindow, "HISTORY_WINDOW"); err != nil {
		return Config{}, err
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitOrigins(origins)
	}

	// Defaults
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.90
	}
	if cfg.SubspecialtyPolicy == "" {
		cfg.SubspecialtyPolicy = string(core.PolicyStrict)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// Validate
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database_url is required (config.yaml or DATABASE_URL)")
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return Config{}, fmt.Errorf("invalid confidence_threshold %f: must be between 0 and 1", cfg.ConfidenceThreshold)
	}
	if cfg.HistoryWindow < 0 {
		return Config{}, fmt.Errorf("invalid history_window %d: must be >= 0", cfg.HistoryWindow)
	}
	if !core.SubspecialtyPolicy(cfg.SubspecialtyPolicy).Valid() {
		return Config{}, fmt.Errorf("subspecialty_policy must be 'strict' or 'permissive', got '%s'", cfg.SubspecialtyPolicy)
	}
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return Config{}, fmt.Errorf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("openai_api_key is required when llm_provider=openai")
		}
	default:
		return Config{}, fmt.Errorf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}

	return cfg, nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func splitOrigins(s string) []string {
	var out []string
	for _, origin := range strings.Split(s, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
