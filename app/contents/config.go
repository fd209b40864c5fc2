package contents

import (
	"github.com/arborcms/arbor/models"
)

// Config represents the configuration for the contents module
type Config struct {
	// DefaultPerPage is the page size used when a list request names none.
	DefaultPerPage int `env:"CONTENT_DEFAULT_PER_PAGE" env-default:"20"`

	// MaxPerPage caps the page size a caller may request.
	MaxPerPage int `env:"CONTENT_MAX_PER_PAGE" env-default:"100"`
}

// Validate validates the contents configuration
func (c *Config) Validate() error {
	if c.DefaultPerPage < 1 || c.MaxPerPage < c.DefaultPerPage {
		return models.ErrInvalidPageSize
	}
	return nil
}

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	return &Config{
		DefaultPerPage: 20,
		MaxPerPage:     100,
	}
}
