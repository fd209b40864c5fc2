package main

import (
	"fmt"
	"log"
	"os"

	"github.com/arborcms/arbor/internal/deps"
	"github.com/arborcms/arbor/internal/logger"
	"github.com/arborcms/arbor/internal/router"
	"github.com/arborcms/arbor/internal/sanitizer"
	"github.com/arborcms/arbor/internal/security"

	"github.com/arborcms/arbor/app"
	"github.com/arborcms/arbor/app/api"
	"github.com/arborcms/arbor/app/categories"
	"github.com/arborcms/arbor/app/contents"
	"github.com/arborcms/arbor/app/database"
	apiDoc "github.com/arborcms/arbor/app/doc"
	_ "github.com/arborcms/arbor/docs"

	"github.com/gin-gonic/gin"
)

// @title Arbor API
// @version 1.0
// @description API for the Arbor content platform: multilingual category hierarchies and the content tagged into them.
// @termsOfService https://arborcms.io/terms

// @contact.name API Support Team
// @contact.url https://arborcms.io/support
// @contact.email support@arborcms.io

// @license.name MIT License
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the editor token.

// @servers.url http://localhost:8080/
// @servers.description Local Development Server

// @servers.url https://staging.arborcms.io/api/v1
// @servers.description Staging Server

// @servers.url https://arborcms.io/api/v1
// @servers.description Production Server
func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.New(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	tokenMaker, err := security.NewPasetoMaker(cfg.TokenSymmetricKey)
	if err != nil {
		log.Fatal("cannot create token maker:", err)
	}

	appLogger := logger.NewZeroLogger(os.Stdout, logger.LevelInfo, logger.Fields{
		"service": "arbor",
		"env":     cfg.Env,
	})

	container := deps.NewContainer(
		db,
		tokenMaker,
		sanitizer.NewHTMLStripper(),
		appLogger,
		cfg.CacheBackend,
		cfg.RedisOptions(),
	)

	// Contents resolves the category repository from the container, so
	// categories must initialize first.
	categories.InitRepositories(container, &cfg.Categories)
	contents.InitRepositories(container, &cfg.Contents)

	r := gin.Default()
	r.Use(api.CorsMiddleware())
	r.GET("/api/v1/healthz", api.HealthCheck)

	mounter := router.NewMounter(container)
	mounter.Public(r).
		Mount(categories.MountPublic).
		Mount(contents.MountPublic)
	mounter.Authenticated(r, api.AuthMiddleware(tokenMaker)).
		Mount(categories.MountAuthenticated).
		Mount(contents.MountAuthenticated)

	apiDoc.Init(r)

	log.Printf("Starting Arbor API server on %s:%s", cfg.AppHost, cfg.AppPort)
	if err := r.Run(fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort)); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
