// Package config loads the process-wide configuration from the environment
// once at startup. The resulting Config is immutable and passed explicitly
// to every component.
package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/filebox/internal/logger"
	"github.com/dmitrymomot/filebox/internal/metadata"
	"github.com/dmitrymomot/filebox/internal/ratelimit"
	"github.com/dmitrymomot/filebox/internal/server"
	"github.com/dmitrymomot/filebox/internal/storage"
)

var ErrParsingConfig = errors.New("failed to parse config from env")

// JWT holds token issuance settings.
type JWT struct {
	SigningKey string        `env:"JWT_SIGNING_KEY,required"`
	TTL        time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

// Config is the full application configuration.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	Log       logger.Config
	Server    server.Config
	Postgres  metadata.Config
	Storage   storage.Config
	RateLimit ratelimit.Config
	JWT       JWT

	SignedURLTTL time.Duration `env:"SIGNED_URL_TTL" envDefault:"1h"`
}

// Load reads .env (if present) and parses the environment into Config.
func Load() (Config, error) {
	// The .env file is optional; a missing file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}
