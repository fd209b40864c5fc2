package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arborcms/arbor/internal/security"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"

	// Context keys populated for downstream handlers.
	ContextEditorIDKey    = "editorID"
	ContextPermissionsKey = "permissions"
)

// AuthMiddleware verifies the bearer token and exposes the editor identity
// and granted permissions to downstream handlers. Permissions travel inside
// the token scope as a space-delimited list.
func AuthMiddleware(tokenMaker security.Maker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			UnauthorizedResponse(c)
			c.Abort()
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || fields[0] != AuthorizationTypeBearer {
			UnauthorizedResponse(c)
			c.Abort()
			return
		}

		payload, err := tokenMaker.VerifyToken(fields[1])
		if err != nil {
			UnauthorizedResponse(c)
			c.Abort()
			return
		}

		c.Set(ContextEditorIDKey, payload.EditorID)
		c.Set(ContextPermissionsKey, payload.Permissions())
		c.Next()
	}
}
