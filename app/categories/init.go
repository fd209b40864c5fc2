package categories

import (
	"github.com/gin-gonic/gin"

	"github.com/arborcms/arbor/app/api"
	"github.com/arborcms/arbor/internal/cache"
	"github.com/arborcms/arbor/internal/conf"
	"github.com/arborcms/arbor/internal/deps"
)

const (
	RepoKey    = "category_repository"
	ServiceKey = "category_service"
)

// InitRepositories builds the module's repository and service and registers
// them on the container. The config may be partial: unset fields are filled
// from the defaults before validation.
func InitRepositories(container *deps.Container, config *Config) {
	if config == nil {
		config = GetDefaultConfig()
	} else if err := conf.MergeDefaults(config, GetDefaultConfig()); err != nil {
		panic("Invalid categories configuration: " + err.Error())
	}
	if err := config.Validate(); err != nil {
		panic("Invalid categories configuration: " + err.Error())
	}

	repo := NewRepository(container.DB)
	container.RegisterRepository(RepoKey, repo)

	treeCache := cache.NewNamespaced(deps.NewTypedCache[[]*TreeNode](container), "categories:")
	service := NewService(container.DB, repo, treeCache, container.Logger, config)
	container.RegisterService(ServiceKey, service)
}

// MountPublic mounts the read-only category routes
func MountPublic(r *gin.RouterGroup, container *deps.Container) {
	handler := createHandler(container)

	group := r.Group("/categories")
	group.GET("", handler.GetCategories)
	group.GET("/tree", handler.GetCategoryTree)
	group.GET("/lookup", handler.LookupCategoryByPath)
	group.GET("/:id", handler.GetCategoryByID)
	group.GET("/:id/children", handler.GetCategoryChildren)
	group.GET("/:id/descendants", handler.GetCategoryDescendants)
	group.GET("/:id/ancestors", handler.GetCategoryAncestors)
}

// MountAuthenticated mounts the structural mutation and repair routes
func MountAuthenticated(r *gin.RouterGroup, container *deps.Container) {
	handler := createHandler(container)

	group := r.Group("/categories")
	group.POST("", api.Can("categories:create"), handler.CreateCategory)
	group.PUT("/:id", api.Can("categories:update"), handler.UpdateCategory)
	group.POST("/:id/move", api.Can("categories:move"), handler.MoveCategory)
	group.DELETE("/:id", api.Can("categories:delete"), handler.DeleteCategory)
	group.POST("/recompute", api.Can("categories:recompute"), handler.RecomputeCategoryStats)
	group.GET("/verify", api.Can("categories:verify"), handler.VerifyCategoryHierarchy)
}

// createHandler creates a category handler from registered dependencies
func createHandler(container *deps.Container) *Handler {
	service := container.GetService(ServiceKey).(Service)
	return NewHandler(service, container.Sanitizer)
}
