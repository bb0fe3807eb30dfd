package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"
)

type MigrationConfig struct {
	MigrationsPath string
	DBName         string
	MaxRetries     int
	RetryDelay     time.Duration
}

func DefaultMigrationConfig() *MigrationConfig {
	return &MigrationConfig{
		MigrationsPath: "file://migrations",
		DBName:         "uptask",
		MaxRetries:     5,
		RetryDelay:     2 * time.Second,
	}
}

// RunMigrations applies pending SQL migrations. It waits for the database to
// accept connections first so the API can start before Postgres is ready.
func RunMigrations(db *gorm.DB, cfg *MigrationConfig) error {
	if cfg == nil {
		cfg = DefaultMigrationConfig()
	}

	log.Printf("🔄 Running database migrations from %s", cfg.MigrationsPath)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}

	if err := waitForDatabase(sqlDB, cfg.MaxRetries, cfg.RetryDelay); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	m, err := newMigrator(sqlDB, cfg)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Println("📋 No migrations applied yet")
	case err != nil:
		log.Printf("⚠️  Could not read current migration version: %v", err)
	default:
		log.Printf("📋 Current migration version: %d (dirty: %v)", version, dirty)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("✅ Database schema is up to date")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err = m.Version()
	if err != nil {
		return fmt.Errorf("get final migration version: %w", err)
	}
	log.Printf("✅ Migrations applied, now at version %d (dirty: %v)", version, dirty)
	return nil
}

// RollbackMigration undoes the most recently applied migration.
func RollbackMigration(db *gorm.DB, cfg *MigrationConfig) error {
	if cfg == nil {
		cfg = DefaultMigrationConfig()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}

	m, err := newMigrator(sqlDB, cfg)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}

	log.Println("✅ Rolled back last migration")
	return nil
}

func MigrationVersion(db *gorm.DB, cfg *MigrationConfig) (uint, bool, error) {
	if cfg == nil {
		cfg = DefaultMigrationConfig()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, false, fmt.Errorf("get database instance: %w", err)
	}

	m, err := newMigrator(sqlDB, cfg)
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}

func newMigrator(sqlDB *sql.DB, cfg *MigrationConfig) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		DatabaseName:          cfg.DBName,
		MigrationsTable:       "schema_migrations",
		MultiStatementEnabled: true,
		MultiStatementMaxSize: 10 * 1 << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, cfg.DBName, driver)
	if err != nil {
		return nil, fmt.Errorf("create migration instance: %w", err)
	}
	return m, nil
}

func waitForDatabase(db *sql.DB, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := db.Ping(); err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Printf("⏳ Database not ready, retrying in %v (attempt %d/%d)", retryDelay, i+1, maxRetries)
			time.Sleep(retryDelay)
		}
	}
	return fmt.Errorf("database not ready after %d attempts", maxRetries)
}
