package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

var allowedHeaders = strings.Join([]string{
	"Accept",
	"Accept-Encoding",
	"Authorization",
	"Cache-Control",
	"Content-Length",
	"Content-Type",
	"Origin",
	"X-CSRF-Token",
	"X-Requested-With",
}, ", ")

// CorsMiddleware opens the API to cross-origin callers. The editor UI runs
// on a separate origin, so preflight requests are answered here.
func CorsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Headers", allowedHeaders)
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// HealthCheck reports service liveness.
// @Summary Service health
// @Description Liveness probe for the API server
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/healthz [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     "arbor",
		"environment": os.Getenv("APP_ENV"),
	})
}
