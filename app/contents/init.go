package contents

import (
	"github.com/gin-gonic/gin"

	"github.com/arborcms/arbor/app/api"
	"github.com/arborcms/arbor/app/categories"
	"github.com/arborcms/arbor/internal/conf"
	"github.com/arborcms/arbor/internal/deps"
)

const (
	RepoKey    = "content_repository"
	ServiceKey = "content_service"
)

// InitRepositories builds the module's repository and service and registers
// them on the container. The categories module must be initialized first; the
// content service drives the tree counters through its repository.
func InitRepositories(container *deps.Container, config *Config) {
	if config == nil {
		config = GetDefaultConfig()
	} else if err := conf.MergeDefaults(config, GetDefaultConfig()); err != nil {
		panic("Invalid contents configuration: " + err.Error())
	}
	if err := config.Validate(); err != nil {
		panic("Invalid contents configuration: " + err.Error())
	}

	repo := NewRepository(container.DB)
	container.RegisterRepository(RepoKey, repo)

	categoryRepo := container.GetRepository(categories.RepoKey).(categories.Repository)
	service := NewService(container.DB, repo, categoryRepo, config)
	container.RegisterService(ServiceKey, service)
}

// MountPublic mounts the read-only content routes
func MountPublic(r *gin.RouterGroup, container *deps.Container) {
	handler := createHandler(container)

	group := r.Group("/contents")
	group.GET("", handler.GetContents)
	group.GET("/:id", handler.GetContentByID)

	// Listing by category lives under the category resource.
	r.GET("/categories/:id/contents", handler.GetCategoryContents)
}

// MountAuthenticated mounts the content mutation routes
func MountAuthenticated(r *gin.RouterGroup, container *deps.Container) {
	handler := createHandler(container)

	group := r.Group("/contents")
	group.POST("", api.Can("contents:create"), handler.CreateContent)
	group.PUT("/:id", api.Can("contents:update"), handler.UpdateContent)
	group.DELETE("/:id", api.Can("contents:delete"), handler.DeleteContent)
}

// createHandler creates a content handler from registered dependencies
func createHandler(container *deps.Container) *Handler {
	service := container.GetService(ServiceKey).(Service)
	return NewHandler(service, container.Sanitizer)
}
