package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Session SessionConfig
	Backend BackendConfig
	Redis   RedisConfig

	CORSOrigins []string `env:"CORS_ORIGINS, default=http://localhost:3000"`
}

type SessionConfig struct {
	Secret string        `env:"SESSION_SECRET, required"`
	TTL    time.Duration `env:"SESSION_TTL,    default=720h"`
}

type BackendConfig struct {
	URL      string `env:"BACKEND_URL, required"`
	APIToken string `env:"BACKEND_API_TOKEN"`
	// Timeout of zero leaves backend calls unbounded.
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=0s"`
}

type RedisConfig struct {
	// Addr empty disables the view cache.
	Addr    string        `env:"REDIS_ADDR"`
	DB      int           `env:"REDIS_DB,       default=0"`
	ViewTTL time.Duration `env:"VIEW_CACHE_TTL, default=1m"`
}

// IsDevelopment reports whether the service runs in local development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads an optional .env file and then the process environment. Values
// already present in the environment win over the file.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Process(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// Process fills a Config from the given lookuper and normalises it.
func Process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}

	cfg.Backend.URL = strings.TrimRight(strings.TrimSpace(cfg.Backend.URL), "/")
	if cfg.Backend.URL == "" {
		return nil, errors.New("BACKEND_URL must not be blank")
	}
	if cfg.Backend.Timeout < 0 {
		return nil, errors.New("BACKEND_TIMEOUT must not be negative")
	}
	return &cfg, nil
}
