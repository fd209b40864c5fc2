// Package doc serves the API reference: the swag-generated document at
// /swagger/doc.json and a Stoplight Elements page at /docs.
package doc

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
)

// serveSwaggerJSON returns the generated document with the server list
// and auth scheme injected at serve time, so one binary documents every
// environment.
func serveSwaggerJSON(c *gin.Context) {
	raw, err := swag.ReadDoc()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "swagger document unavailable"})
		return
	}

	decorated, err := decorateDoc([]byte(raw), os.Getenv("APP_ENV"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "swagger document malformed"})
		return
	}

	c.Data(http.StatusOK, "application/json", decorated)
}

func decorateDoc(raw []byte, environment string) ([]byte, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	doc["servers"] = serversFor(environment)

	components, ok := doc["components"].(map[string]interface{})
	if !ok {
		components = map[string]interface{}{}
		doc["components"] = components
	}
	schemes, ok := components["securitySchemes"].(map[string]interface{})
	if !ok {
		schemes = map[string]interface{}{}
		components["securitySchemes"] = schemes
	}
	schemes["BearerAuth"] = map[string]interface{}{
		"type":         "http",
		"scheme":       "bearer",
		"bearerFormat": "PASETO",
		"description":  "Enter PASETO bearer token",
	}

	return json.Marshal(doc)
}

func serversFor(environment string) []map[string]interface{} {
	servers := []map[string]interface{}{
		{
			"url":         "http://localhost:8080/api/v1",
			"description": "Local development",
		},
	}

	switch environment {
	case "production":
		servers = append(servers,
			map[string]interface{}{
				"url":         "https://staging.arborcms.io/api/v1",
				"description": "Staging",
			},
			map[string]interface{}{
				"url":         "https://arborcms.io/api/v1",
				"description": "Production",
			})
	case "staging":
		servers = append(servers, map[string]interface{}{
			"url":         "https://staging.arborcms.io/api/v1",
			"description": "Staging",
		})
	}

	return servers
}

func serveElements(c *gin.Context) {
	const elementsHTML = `
<!DOCTYPE html>
<html>
<head>
    <title>Arbor API Documentation</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <script src="https://unpkg.com/@stoplight/elements/web-components.min.js"></script>
    <link rel="stylesheet" href="https://unpkg.com/@stoplight/elements/styles.min.css">
    <style>
        body { margin: 0; padding: 0; height: 100vh; }
        elements-api { height: 100%; }
    </style>
</head>
<body>
    <elements-api
        apiDescriptionUrl="/swagger/doc.json"
        router="hash"
        layout="sidebar"
        tryItCredentialsPolicy="include"
    ></elements-api>
</body>
</html>`
	c.Header("Content-Type", "text/html")
	c.String(http.StatusOK, elementsHTML)
}

// Init mounts the documentation routes on the root router group.
func Init(r *gin.Engine) {
	r.GET("/swagger/doc.json", serveSwaggerJSON)
	r.GET("/docs/*any", serveElements)
}
