// Package suites provides the shared Postgres harness for repository
// integration tests. A suite run starts one throwaway container, applies
// the project migrations, and wipes table data before every test.
package suites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	pgImage    = "postgres:17-alpine"
	pgUser     = "arbor_test"
	pgPassword = "arbor_test"
	pgDatabase = "arbor_test"
)

// PostgresContainer wraps a running throwaway Postgres instance.
type PostgresContainer struct {
	testcontainers.Container
	ConnectionString string
}

// NewPostgresContainer starts a Postgres container and blocks until it
// accepts SQL connections. fsync is off; the data is disposable.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	const port = "5432/tcp"

	connString := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			pgUser, pgPassword, host, port.Port(), pgDatabase)
	}

	req := testcontainers.ContainerRequest{
		Image:        pgImage,
		ExposedPorts: []string{port},
		Cmd:          []string{"postgres", "-c", "fsync=off"},
		Env: map[string]string{
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPassword,
			"POSTGRES_DB":       pgDatabase,
		},
		WaitingFor: wait.ForSQL(port, "postgres", connString).
			WithStartupTimeout(30 * time.Second).
			WithQuery("SELECT 1"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve container host: %w", err)
	}
	mappedPort, err := container.MappedPort(ctx, port)
	if err != nil {
		return nil, fmt.Errorf("resolve container port: %w", err)
	}

	return &PostgresContainer{
		Container:        container,
		ConnectionString: connString(host, mappedPort),
	}, nil
}

// RepositoryTestSuite is embedded by repository test suites. Set
// AutoMigrate before calling SetupSuite to apply the migrations found at
// the module root; MigrationsPath overrides the lookup.
type RepositoryTestSuite struct {
	suite.Suite
	Container      *PostgresContainer
	DB             *gorm.DB
	SQLDB          *sql.DB
	AutoMigrate    bool
	MigrationsPath string
}

func (suite *RepositoryTestSuite) SetupSuite() {
	suite.T().Helper()

	if testing.Short() {
		suite.T().Skip("skipping database integration tests in short mode")
	}

	if suite.MigrationsPath == "" {
		suite.MigrationsPath = findMigrationsPath()
	}
	if _, err := os.Stat(suite.MigrationsPath); err != nil {
		suite.AutoMigrate = false
	}

	container, err := NewPostgresContainer(context.Background())
	if err != nil {
		suite.T().Fatalf("start postgres container: %v", err)
	}
	suite.Container = container
	suite.T().Cleanup(func() {
		if suite.SQLDB != nil {
			_ = suite.SQLDB.Close()
		}
		_ = container.Terminate(context.Background())
	})

	suite.connect()

	if suite.AutoMigrate {
		if err := suite.RunMigrations(); err != nil {
			suite.T().Fatalf("apply migrations: %v", err)
		}
	}
}

func (suite *RepositoryTestSuite) connect() {
	sqlDB, err := sql.Open("postgres", suite.Container.ConnectionString)
	if err != nil {
		suite.T().Fatalf("open sql connection: %v", err)
	}
	suite.SQLDB = sqlDB
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		suite.T().Fatalf("ping database: %v", err)
	}

	// TranslateError matches the production connection, so unique
	// violations surface as gorm.ErrDuplicatedKey here too.
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		suite.T().Fatalf("open gorm connection: %v", err)
	}
	suite.DB = gormDB
}

// findMigrationsPath walks from the working directory up to the module
// root and returns its migrations directory, or "" when no go.mod is
// found on the way up.
func findMigrationsPath() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// SetupTest empties every application table so tests never see each
// other's rows. TRUNCATE CASCADE keeps the wipe independent of foreign
// key ordering; schema_migrations survives because the schema itself is
// reused for the whole suite.
func (suite *RepositoryTestSuite) SetupTest() {
	if suite.DB == nil {
		return
	}

	var tables []string
	suite.DB.Raw(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		  AND table_name <> 'schema_migrations'
	`).Scan(&tables)

	for _, table := range tables {
		suite.DB.Exec(fmt.Sprintf(`TRUNCATE TABLE %q CASCADE`, table))
	}
}

// RunMigrations applies everything under MigrationsPath to the container
// database.
func (suite *RepositoryTestSuite) RunMigrations() error {
	if suite.MigrationsPath == "" {
		return errors.New("migrations path not set")
	}

	m, err := migrate.New("file://"+suite.MigrationsPath, suite.Container.ConnectionString)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// CountRecords returns the number of rows in table.
func (suite *RepositoryTestSuite) CountRecords(table string) int64 {
	var count int64
	suite.DB.Table(table).Count(&count)
	return count
}

func (suite *RepositoryTestSuite) AssertDBError(err error, args ...interface{}) {
	suite.Assert().Error(err, args...)
}

func (suite *RepositoryTestSuite) AssertNoDBError(err error, args ...interface{}) {
	suite.Assert().NoError(err, args...)
}

// WithTransaction runs fn inside a transaction on the suite database.
func (suite *RepositoryTestSuite) WithTransaction(fn func(tx *gorm.DB) error) error {
	return suite.DB.Transaction(fn)
}
