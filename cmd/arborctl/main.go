package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arborcms/arbor/app"
	"github.com/arborcms/arbor/app/categories"
	"github.com/arborcms/arbor/app/database"
	"github.com/arborcms/arbor/internal/conf"
	"github.com/arborcms/arbor/internal/deps"
	"github.com/arborcms/arbor/internal/logger"
	"github.com/arborcms/arbor/internal/sanitizer"
	"github.com/arborcms/arbor/internal/security"
)

var envFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "arborctl",
	Short: "Arbor admin CLI",
	Long: `arborctl administers an Arbor deployment: schema migrations, hierarchy
integrity checks, counter repair, and editor token minting.

Commands read the same environment variables as the API server (DB_HOST,
DB_USER, TOKEN_SYMMETRIC_KEY, ...). An env-format file can be loaded first
with --env-file; environment variables win over file values.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env-format configuration file (skipped when absent)")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the application configuration for a CLI invocation.
// The loader's command line flag handling is bypassed; file selection is
// driven by --env-file instead.
func loadConfig() (*app.Config, error) {
	opts := []conf.Option{conf.WithOnlyEnvironment()}
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			opts = []conf.Option{conf.WithFileName(envFile)}
		}
	}

	cfg := &app.Config{}
	if err := conf.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// runtime bundles what the database-touching commands need.
type runtime struct {
	cfg       *app.Config
	container *deps.Container
}

func newRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.New(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	var tokenMaker security.Maker
	if cfg.TokenSymmetricKey != "" {
		if tokenMaker, err = security.NewPasetoMaker(cfg.TokenSymmetricKey); err != nil {
			return nil, fmt.Errorf("create token maker: %w", err)
		}
	}

	ctlLogger := logger.NewZeroLogger(os.Stderr, logger.LevelError, logger.Fields{"service": "arborctl"})

	// The same cache backend as the API server, so repairs invalidate the
	// tree cache the server is reading.
	container := deps.NewContainer(
		db,
		tokenMaker,
		sanitizer.NewHTMLStripper(),
		ctlLogger,
		cfg.CacheBackend,
		cfg.RedisOptions(),
	)
	categories.InitRepositories(container, &cfg.Categories)

	return &runtime{cfg: cfg, container: container}, nil
}

func (r *runtime) categoryService() categories.Service {
	return r.container.GetService(categories.ServiceKey).(categories.Service)
}

func (r *runtime) categoryRepo() categories.Repository {
	return r.container.GetRepository(categories.RepoKey).(categories.Repository)
}
