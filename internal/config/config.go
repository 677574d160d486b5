// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/coach-finder/internal/cache"
	"github.com/ashureev/coach-finder/internal/identity"
)

// Persistence backends for the session keys.
const (
	PersistenceSQLite = "sqlite"
	PersistenceRedis  = "redis"
	PersistenceMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Port              string
	FrontendURL       string
	IdentityURL       string
	IdentityAPIKey    string
	DocstoreURL       string
	Persistence       string
	DBPath            string
	Redis             RedisConfig
	CoachesStaleAfter time.Duration
	HTTPTimeout       time.Duration
	MetricsEnabled    bool
}

// RedisConfig selects the Redis instance used when Persistence is "redis".
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// EmulatorConfig holds configuration for the local identity/document store
// emulator.
type EmulatorConfig struct {
	Port      string
	JWTSecret string
	TokenTTL  time.Duration
	APIKey    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		IdentityURL:    getEnv("IDENTITY_URL", identity.DefaultBaseURL),
		IdentityAPIKey: getEnv("IDENTITY_API_KEY", ""),
		DocstoreURL:    strings.TrimRight(getEnv("DOCSTORE_URL", ""), "/"),
		Persistence:    strings.ToLower(getEnv("PERSISTENCE", PersistenceSQLite)),
		DBPath:         getEnv("DB_PATH", "./data/session.db"),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "coachfinder:"),
		},
		CoachesStaleAfter: getEnvDuration("COACHES_STALE_AFTER", cache.DefaultWindow),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.IdentityURL == "" {
		return fmt.Errorf("IDENTITY_URL cannot be empty")
	}
	if c.DocstoreURL == "" {
		return fmt.Errorf("DOCSTORE_URL cannot be empty")
	}
	switch c.Persistence {
	case PersistenceSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case PersistenceRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty")
		}
	case PersistenceMemory:
	default:
		return fmt.Errorf("PERSISTENCE must be one of sqlite, redis, memory (got %q)", c.Persistence)
	}
	if c.CoachesStaleAfter <= 0 {
		return fmt.Errorf("COACHES_STALE_AFTER must be > 0")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// LoadEmulator reads the emulator configuration.
func LoadEmulator() (*EmulatorConfig, error) {
	cfg := &EmulatorConfig{
		Port:      getEnv("EMULATOR_PORT", "9099"),
		JWTSecret: getEnv("EMULATOR_JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("EMULATOR_TOKEN_TTL", time.Hour),
		APIKey:    getEnv("EMULATOR_API_KEY", ""),
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("invalid configuration: EMULATOR_PORT cannot be empty")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("invalid configuration: EMULATOR_TOKEN_TTL must be > 0")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go duration strings ("90s") or bare seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
