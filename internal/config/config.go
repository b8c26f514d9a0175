package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the frontend server configuration, read from the environment
// with an optional .env file on top.
type Config struct {
	Port          string        `env:"PORT" env-default:"3000"`
	APIBaseURL    string        `env:"API_BASE_URL" env-default:"http://localhost:8080/api"`
	APITimeout    time.Duration `env:"API_TIMEOUT" env-default:"10s"`
	SessionSecret string        `env:"SESSION_SECRET" env-default:"default_super_secret_key"`
	CacheTTL      time.Duration `env:"CACHE_TTL" env-default:"5s"`
	GinMode       string        `env:"GIN_MODE" env-default:"debug"`
}

// Release reports whether the server runs with production cookie settings.
func (c Config) Release() bool {
	return c.GinMode == "release"
}

// Load reads configs/.env when present, then the process environment.
func Load() (Config, error) {
	// Missing .env is fine; deployments configure through the environment.
	_ = godotenv.Load("configs/.env")

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
