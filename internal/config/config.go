package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Gemini   GeminiConfig
	Session  SessionConfig
	Server   ServerConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Only used when the session
// backend is set to redis.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// GeminiConfig holds settings for the upstream Gemini API.
type GeminiConfig struct {
	APIKey      string //nolint:gosec // G117: upstream API credential
	Model       string
	BaseURL     string
	MaxAttempts int
}

// SessionConfig holds conversation session store settings.
type SessionConfig struct {
	Backend    string // "memory" or "redis"
	MaxEntries int
	TTL        time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production the
// database password and Gemini API key must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("DODO_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("DODO_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("DODO_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxAttempts, err := getEnvInt("DODO_GEMINI_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sessionMax, err := getEnvInt("DODO_SESSION_MAX_ENTRIES", 1024)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sessionTTL, err := getEnvDuration("DODO_SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("DODO_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("DODO_SERVER_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("DODO_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DODO_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DODO_DB_USER", "concierge"),
			Password: getEnv("DODO_DB_PASSWORD", ""),
			DBName:   getEnv("DODO_DB_NAME", "concierge_dev"),
			SSLMode:  getEnv("DODO_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("DODO_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("DODO_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Gemini: GeminiConfig{
			APIKey:      getEnv("DODO_GEMINI_API_KEY", ""),
			Model:       getEnv("DODO_GEMINI_MODEL", "gemini-1.5-pro"),
			BaseURL:     getEnv("DODO_GEMINI_BASE_URL", ""),
			MaxAttempts: maxAttempts,
		},
		Session: SessionConfig{
			Backend:    getEnv("DODO_SESSION_BACKEND", "memory"),
			MaxEntries: sessionMax,
			TTL:        sessionTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("DODO_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.Gemini.APIKey == "" {
		log.Warn().Msg("DODO_GEMINI_API_KEY is not set; chat requests will fail until one is configured")
	}

	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("DODO_SESSION_BACKEND must be 'memory' or 'redis', got %q", c.Session.Backend)
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DODO_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DODO_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Gemini.MaxAttempts < 1 {
		return fmt.Errorf("DODO_GEMINI_MAX_ATTEMPTS must be >= 1, got %d", c.Gemini.MaxAttempts)
	}
	if c.Session.MaxEntries < 1 {
		return fmt.Errorf("DODO_SESSION_MAX_ENTRIES must be >= 1, got %d", c.Session.MaxEntries)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("DODO_SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("DODO_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("DODO_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
