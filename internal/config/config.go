package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"sambou/internal/errors"
	"sambou/models"
)

// Config represents the complete application configuration
type Config struct {
	AI       AIConfig
	Server   ServerConfig
	Database DatabaseConfig
	Catalog  CatalogConfig
	Logging  LoggingConfig
}

// AIConfig holds oracle transport settings
type AIConfig struct {
	Provider            string
	OpenAIKey           string
	OpenAIBaseURL       string
	GeminiKey           string
	Model               string
	SystemContext       string
	MaxTokens           int
	Temperature         float64
	Timeout             time.Duration
	PromptsDir          string
	FallbackToHeuristic bool
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	GinMode        string
	CORSOrigins    []string
	SnippetTimeout time.Duration
	SessionIdle    time.Duration
}

// DatabaseConfig holds the optional usage ledger connection
type DatabaseConfig struct {
	URL string
}

// CatalogConfig points at optional department and deadline overrides
type CatalogConfig struct {
	CatalogFile   string
	DeadlinesFile string
}

// LoggingConfig controls the logger
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		AI:       loadAIConfig(),
		Server:   loadServerConfig(),
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Catalog: CatalogConfig{
			CatalogFile:   os.Getenv("CATALOG_FILE"),
			DeadlinesFile: os.Getenv("DEADLINES_FILE"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "console"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadAIConfig() AIConfig {
	defaults := models.DefaultAIConfig()
	openaiKey := os.Getenv("OPENAI_API_KEY")
	geminiKey := os.Getenv("GEMINI_API_KEY")

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if provider == "" {
		switch {
		case openaiKey != "":
			provider = models.ProviderOpenAI
		case geminiKey != "":
			provider = models.ProviderGemini
		default:
			provider = models.ProviderHeuristic
		}
	}

	model := os.Getenv("LLM_MODEL")
	if model == "" && provider != models.ProviderGemini {
		model = defaults.Model
	}

	return AIConfig{
		Provider:            provider,
		OpenAIKey:           openaiKey,
		OpenAIBaseURL:       getEnvOrDefault("OPENAI_BASE_URL", defaults.OpenAIBaseURL),
		GeminiKey:           geminiKey,
		Model:               model,
		SystemContext:       getEnvOrDefault("SYSTEM_CONTEXT", defaults.SystemContext),
		MaxTokens:           getEnvIntOrDefault("MAX_TOKENS", defaults.MaxTokens),
		Temperature:         getEnvFloatOrDefault("TEMPERATURE", defaults.Temperature),
		Timeout:             getEnvDurationOrDefault("LLM_TIMEOUT", defaults.Timeout),
		PromptsDir:          os.Getenv("PROMPTS_DIR"),
		FallbackToHeuristic: getEnvBoolOrDefault("LLM_FALLBACK", true),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		CORSOrigins:    splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:9002")),
		SnippetTimeout: getEnvDurationOrDefault("SNIPPET_TIMEOUT", 60*time.Second),
		SessionIdle:    getEnvDurationOrDefault("SESSION_IDLE_TIMEOUT", 2*time.Hour),
	}
}

func validateConfig(config *Config) error {
	switch config.AI.Provider {
	case models.ProviderOpenAI:
		if config.AI.OpenAIKey == "" {
			return errors.ConfigInvalid("OPENAI_API_KEY is required for the openai provider")
		}
	case models.ProviderGemini:
		if config.AI.GeminiKey == "" {
			return errors.ConfigInvalid("GEMINI_API_KEY is required for the gemini provider")
		}
	case models.ProviderHeuristic:
	default:
		return errors.ConfigInvalid("unknown LLM_PROVIDER " + config.AI.Provider)
	}
	if config.AI.Temperature < 0 || config.AI.Temperature > 2 {
		return errors.ConfigInvalid("TEMPERATURE must be between 0 and 2")
	}
	if config.AI.MaxTokens <= 0 {
		return errors.ConfigInvalid("MAX_TOKENS must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.SnippetTimeout <= 0 || config.Server.SessionIdle <= 0 {
		return errors.ConfigInvalid("timeouts must be positive")
	}
	return nil
}

// LLMConfig converts the AI section to the transport configuration
func (c AIConfig) LLMConfig() *models.AIConfig {
	return &models.AIConfig{
		Provider:      c.Provider,
		OpenAIKey:     c.OpenAIKey,
		OpenAIBaseURL: c.OpenAIBaseURL,
		GeminiKey:     c.GeminiKey,
		Model:         c.Model,
		SystemContext: c.SystemContext,
		MaxTokens:     c.MaxTokens,
		Temperature:   c.Temperature,
		Timeout:       c.Timeout,
		PromptsDir:    c.PromptsDir,
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
