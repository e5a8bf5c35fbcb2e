package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tool-recommender/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port             string
	CORSAllowOrigin  []string
	Env              string
	LogLevel         string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	LLMModel         string
	LLMMaxAttempts   int
	LLMTimeout       time.Duration
	LLMBaseDelay     time.Duration
	LLMJitterMin     time.Duration
	LLMJitterMax     time.Duration
	PromptFormat     string
	RateLimitRPS     float64
	RateLimitBurst   int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:             getEnv("PORT", "8080"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:              normalizeEnv(getEnv("ENV", "dev")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
		LLMModel:         getEnv("LLM_MODEL", "claude-3-opus-20240229"),
		LLMMaxAttempts:   getInt("LLM_MAX_ATTEMPTS", 3),
		LLMTimeout:       getDuration("LLM_ATTEMPT_TIMEOUT", 60*time.Second),
		LLMBaseDelay:     getDuration("LLM_RETRY_BASE_DELAY", 2*time.Second),
		LLMJitterMin:     getDuration("LLM_RETRY_JITTER_MIN", 0),
		LLMJitterMax:     getDuration("LLM_RETRY_JITTER_MAX", time.Second),
		PromptFormat:     normalizePromptFormat(getEnv("PROMPT_FORMAT", "json")),
		RateLimitRPS:     getFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst:   getInt("RATE_LIMIT_BURST", 5),
	}
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			telemetry.Warn("config.env_file_invalid", map[string]any{"path": path, "error": err})
		}
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw})
		return def
	}
	return parsed
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed < 0 {
		telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw})
		return def
	}
	return parsed
}

// getDuration accepts Go duration strings ("1500ms") or bare seconds ("2").
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed < 0 {
		telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw})
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizePromptFormat(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "markdown", "md":
		return "markdown"
	default:
		return "json"
	}
}
