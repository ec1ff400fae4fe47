// Package config provides application configuration management.
// Configuration is loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	Port   int    `env:"SHELFY_PORT" envDefault:"8080"`
	DBPath string `env:"SHELFY_DB_PATH" envDefault:"shelfy.db"`

	// Admin auth. The secret default is for development only and must be
	// overridden in production.
	JWTSecret     string        `env:"SHELFY_JWT_SECRET" envDefault:"shelfy-dev-secret-change-in-production"`
	TokenTTL      time.Duration `env:"SHELFY_TOKEN_TTL" envDefault:"24h"`
	AdminPassword string        `env:"SHELFY_ADMIN_PASSWORD" envDefault:"changeme"`

	// Analytics retention caps (fallback store only; the remote store keeps
	// its own retention policy)
	ClickRetention int `env:"SHELFY_CLICK_RETENTION" envDefault:"1000"`
	ViewRetention  int `env:"SHELFY_VIEW_RETENTION" envDefault:"2000"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ClickRetention <= 0 || cfg.ViewRetention <= 0 {
		return nil, fmt.Errorf("retention caps must be positive")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token TTL must be positive")
	}
	return cfg, nil
}
