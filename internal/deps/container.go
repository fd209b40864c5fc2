// Package deps carries the dependency container handed to every feature
// module at mount time.
package deps

import (
	"gorm.io/gorm"

	"github.com/arborcms/arbor/internal/cache"
	"github.com/arborcms/arbor/internal/logger"
	"github.com/arborcms/arbor/internal/sanitizer"
	"github.com/arborcms/arbor/internal/security"
)

// Container bundles the process-wide dependencies plus a registry through
// which modules share their repositories and services. Registry values are
// stored as interface{} so modules do not import each other's packages.
type Container struct {
	DB         *gorm.DB
	TokenMaker security.Maker
	Sanitizer  sanitizer.HTMLStripperer
	Logger     logger.Logger

	// Cache backend selection shared by all modules. Each module builds its
	// own typed cache with NewTypedCache instead of sharing one value type.
	CacheBackend string
	RedisOptions *cache.RedisOptions

	repositories map[string]interface{}
	services     map[string]interface{}
}

func NewContainer(
	db *gorm.DB,
	tokenMaker security.Maker,
	sanitizer sanitizer.HTMLStripperer,
	logger logger.Logger,
	cacheBackend string,
	redisOptions *cache.RedisOptions,
) *Container {
	return &Container{
		DB:           db,
		TokenMaker:   tokenMaker,
		Sanitizer:    sanitizer,
		Logger:       logger,
		CacheBackend: cacheBackend,
		RedisOptions: redisOptions,
		repositories: make(map[string]interface{}),
		services:     make(map[string]interface{}),
	}
}

// NewTypedCache builds a cache of V on the container's configured backend.
// It is a package function because methods cannot introduce type parameters.
func NewTypedCache[V any](c *Container) cache.Cache[V] {
	if c.CacheBackend == cache.RedisBackend && c.RedisOptions != nil {
		return cache.NewCache[V](cache.RedisBackend, c.RedisOptions)
	}
	return cache.NewCache[V](cache.MemoryBackend)
}

// RegisterRepository publishes a repository under key for other modules.
func (c *Container) RegisterRepository(key string, repo interface{}) {
	c.repositories[key] = repo
}

// GetRepository returns the repository registered under key, or nil.
func (c *Container) GetRepository(key string) interface{} {
	return c.repositories[key]
}

// RegisterService publishes a service under key for other modules.
func (c *Container) RegisterService(key string, service interface{}) {
	c.services[key] = service
}

// GetService returns the service registered under key, or nil.
func (c *Container) GetService(key string) interface{} {
	return c.services[key]
}
