package categories

import (
	"time"

	"github.com/arborcms/arbor/internal/validator"
	"github.com/arborcms/arbor/models"
)

// Config represents the configuration for the categories module
type Config struct {
	// MaxDepth is the maximum number of levels a tree may have. A root sits
	// at level 0, so the deepest allowed node is at level MaxDepth-1. The
	// same bound caps ancestor walks as a corruption safeguard.
	MaxDepth int `env:"CATEGORY_MAX_DEPTH" env-default:"10"`

	// DefaultLanguage selects which localized slug becomes the canonical
	// slug used in path construction.
	DefaultLanguage string `env:"CATEGORY_DEFAULT_LANGUAGE" env-default:"en"`

	// DefaultCascadePolicy applies when a delete request names no policy.
	DefaultCascadePolicy models.CascadePolicy `env:"CATEGORY_DEFAULT_CASCADE_POLICY" env-default:"reject_if_children"`

	// LockTimeout bounds how long a structural mutation waits for its
	// subtree locks before giving up with a busy error.
	LockTimeout time.Duration `env:"CATEGORY_LOCK_TIMEOUT" env-default:"2s"`

	// TreeCacheTTL bounds staleness of the cached tree listing. Zero
	// disables the cache.
	TreeCacheTTL time.Duration `env:"CATEGORY_TREE_CACHE_TTL" env-default:"5m"`

	// AllowInactiveParent permits creating children under an inactive
	// parent.
	AllowInactiveParent bool `env:"CATEGORY_ALLOW_INACTIVE_PARENT" env-default:"false"`

	// RequireActiveMoveTarget rejects moves onto an inactive parent.
	RequireActiveMoveTarget bool `env:"CATEGORY_REQUIRE_ACTIVE_MOVE_TARGET" env-default:"true"`
}

// Validate validates the categories configuration
func (c *Config) Validate() error {
	if c.MaxDepth < 1 || c.MaxDepth > 64 {
		return models.ErrInvalidMaxDepth
	}

	if !validator.IsLanguageCode(c.DefaultLanguage) {
		return models.ErrInvalidDefaultLanguage
	}

	if !c.DefaultCascadePolicy.Valid() {
		return models.ErrInvalidCascadePolicy
	}

	if c.LockTimeout <= 0 {
		return models.ErrInvalidLockTimeout
	}

	if c.TreeCacheTTL < 0 {
		return models.ErrInvalidCacheTTL
	}

	return nil
}

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	return &Config{
		MaxDepth:                10,
		DefaultLanguage:         "en",
		DefaultCascadePolicy:    models.CascadeRejectIfChildren,
		LockTimeout:             2 * time.Second,
		TreeCacheTTL:            5 * time.Minute,
		AllowInactiveParent:     false,
		RequireActiveMoveTarget: true,
	}
}
