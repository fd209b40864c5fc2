package api

import "github.com/gin-gonic/gin"

// Can gates a route on a single permission grant. It trusts AuthMiddleware
// to have stored the token's permissions in the request context; a route
// mounted with Can but without AuthMiddleware always responds Forbidden.
func Can(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !hasPermission(c, permission) {
			ForbiddenResponse(c, "You do not have the "+permission+" permission")
			c.Abort()
			return
		}
		c.Next()
	}
}

func hasPermission(c *gin.Context, permission string) bool {
	value, exists := c.Get(ContextPermissionsKey)
	if !exists {
		return false
	}
	permissions, ok := value.([]string)
	if !ok {
		return false
	}
	for _, granted := range permissions {
		if granted == permission {
			return true
		}
	}
	return false
}
