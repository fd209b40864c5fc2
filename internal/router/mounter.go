// Package router wires feature modules onto the HTTP engine. Each module
// exposes a mount function; the Mounter hands it a route group plus the
// shared dependency container.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/arborcms/arbor/internal/deps"
)

const basePath = "/api/v1"

// MountFunc registers one module's routes on a group.
type MountFunc func(*gin.RouterGroup, *deps.Container)

// Mounter builds the route groups modules mount onto.
type Mounter struct {
	container *deps.Container
}

func NewMounter(container *deps.Container) *Mounter {
	return &Mounter{container: container}
}

// Public returns the group for routes served without authentication.
func (m *Mounter) Public(engine *gin.Engine) *RouteGroup {
	return &RouteGroup{group: engine.Group(basePath), container: m.container}
}

// Authenticated returns the group whose routes sit behind authMiddleware.
func (m *Mounter) Authenticated(engine *gin.Engine, authMiddleware gin.HandlerFunc) *RouteGroup {
	group := engine.Group(basePath)
	group.Use(authMiddleware)
	return &RouteGroup{group: group, container: m.container}
}

// RouteGroup chains module mounts onto one gin group.
type RouteGroup struct {
	group     *gin.RouterGroup
	container *deps.Container
}

// Mount registers a module and returns the group for chaining.
func (rg *RouteGroup) Mount(mountFunc MountFunc) *RouteGroup {
	mountFunc(rg.group, rg.container)
	return rg
}
