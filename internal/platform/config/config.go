package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr               string        `envconfig:"APP_ADDR" default:":8080"`
	Environment        string        `envconfig:"APP_ENV" default:"development"`
	DatabaseURL        string        `envconfig:"DATABASE_URL"`
	JWTSecret          string        `envconfig:"JWT_SECRET"`
	LogFormat          string        `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	RedisAddr          string        `envconfig:"REDIS_ADDR"`
	StatementCacheTTL  time.Duration `envconfig:"STATEMENT_CACHE_TTL" default:"24h"`
	StatementDir       string        `envconfig:"STATEMENT_DIR" default:"var/statements"`
	MigrationsDir      string        `envconfig:"MIGRATIONS_DIR" default:"migrations"`
	RunMigrations      bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
	MaxBodyBytes       int64         `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
	AllowedOrigins     []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	MetricsEnabled     bool          `envconfig:"METRICS_ENABLED" default:"true"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && len(strings.TrimSpace(c.JWTSecret)) < 32 {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.StatementCacheTTL < 0 {
		return fmt.Errorf("STATEMENT_CACHE_TTL must not be negative")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json")
	}
	return nil
}
