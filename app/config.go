package app

import (
	"github.com/arborcms/arbor/app/categories"
	"github.com/arborcms/arbor/app/contents"
	"github.com/arborcms/arbor/app/database"
	"github.com/arborcms/arbor/internal/cache"
	"github.com/arborcms/arbor/internal/conf"
)

type Config struct {
	DB         database.Config
	Categories categories.Config
	Contents   contents.Config

	AppHost string `env:"APP_HOST" env-default:"localhost"`
	AppPort string `env:"APP_PORT" env-default:"8080"`
	Env     string `env:"APP_ENV" env-default:"development"`

	// TokenSymmetricKey encrypts editor tokens. Must be exactly 32 bytes.
	TokenSymmetricKey string `env:"TOKEN_SYMMETRIC_KEY"`

	CacheBackend  string `env:"CACHE_BACKEND" env-default:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`
}

// RedisOptions maps the flat Redis settings onto the cache backend options.
// Returns nil unless the configured backend is Redis.
func (c *Config) RedisOptions() *cache.RedisOptions {
	if c.CacheBackend != cache.RedisBackend {
		return nil
	}
	return &cache.RedisOptions{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// LoadConfig loads the application configuration from environment variables or a config file.
func LoadConfig() (*Config, error) {
	c := &Config{}
	err := conf.NewLoader().Load(c)
	return c, err
}
