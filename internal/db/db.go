package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"issue-detection-service/internal/config"
)

// New opens the report database and brings the schema up to date. SQLite
// runs in WAL mode with a busy timeout so concurrent request handlers can
// write without tripping over each other.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.DB.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	gormLogLevel := gormlogger.Silent
	if cfg.Environment == "development" {
		gormLogLevel = gormlogger.Warn
	}

	database, err := gorm.Open(sqlite.Open(cfg.DB.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if err := database.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Info().Str("path", cfg.DB.Path).Msg("report database ready")
	return database, nil
}

// HealthCheck pings the underlying connection; used by the readiness probe.
func HealthCheck(ctx context.Context, database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
