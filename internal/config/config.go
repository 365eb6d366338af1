package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	OpenAI    OpenAIConfig
	Fetcher   FetcherConfig
	Session   SessionConfig
	Prompt    PromptConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds the Postgres URL for accepted plans. Empty keeps plans in memory.
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds the Redis connection. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
}

type FetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
	CacheTTL  time.Duration
}

type SessionConfig struct {
	TTL                time.Duration
	SweepInterval      time.Duration
	LockTTL            time.Duration
	RequireKnownGroups bool
}

type PromptConfig struct {
	KeywordCount int
	GroupCount   int
}

type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
	TrustProxyHeaders bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL: getEnv("POSTGRES_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0),
		},
		Fetcher: FetcherConfig{
			Timeout:   getEnvAsDuration("FETCH_TIMEOUT", 15*time.Second),
			UserAgent: getEnv("FETCH_USER_AGENT", ""),
			CacheTTL:  getEnvAsDuration("FETCH_CACHE_TTL", 10*time.Minute),
		},
		Session: SessionConfig{
			TTL:                getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			SweepInterval:      getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
			LockTTL:            getEnvAsDuration("SESSION_LOCK_TTL", 0),
			RequireKnownGroups: getEnvAsBool("REQUIRE_KNOWN_AD_GROUPS", false),
		},
		Prompt: PromptConfig{
			KeywordCount: getEnvAsInt("PROMPT_KEYWORD_COUNT", 15),
			GroupCount:   getEnvAsInt("PROMPT_AD_GROUP_COUNT", 3),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
			TrustProxyHeaders: getEnvAsBool("TRUST_PROXY_HEADERS", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// a session lock must outlive the slowest action: page fetch plus LLM call
	if cfg.Session.LockTTL <= 0 {
		cfg.Session.LockTTL = cfg.OpenAI.Timeout + cfg.Fetcher.Timeout + 30*time.Second
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every binary needs.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.Prompt.KeywordCount <= 0 || c.Prompt.GroupCount <= 0 {
		return fmt.Errorf("PROMPT_KEYWORD_COUNT and PROMPT_AD_GROUP_COUNT must be positive")
	}
	if c.Prompt.KeywordCount%c.Prompt.GroupCount != 0 {
		return fmt.Errorf("PROMPT_KEYWORD_COUNT (%d) must be a multiple of PROMPT_AD_GROUP_COUNT (%d)",
			c.Prompt.KeywordCount, c.Prompt.GroupCount)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
