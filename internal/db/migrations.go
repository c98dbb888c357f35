package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	// reports - one row per submitted detection event. summary is the
	// per-class count map serialized as JSON; feedback stays NULL until a
	// user judges the report.
	`CREATE TABLE IF NOT EXISTS reports (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at  DATETIME NOT NULL,
		summary     TEXT NOT NULL DEFAULT '{}',
		severity    TEXT NOT NULL,
		department  TEXT NOT NULL,
		latitude    REAL,
		longitude   REAL,
		image_url   TEXT NOT NULL DEFAULT '',
		feedback    TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_reports_severity ON reports(severity);`,
	`CREATE INDEX IF NOT EXISTS idx_reports_department ON reports(department);`,

	// Older databases predate the department and feedback columns; SQLite
	// has no ADD COLUMN IF NOT EXISTS, so these run through addColumn.
}

var compatColumns = []struct {
	table      string
	column     string
	definition string
}{
	{"reports", "department", "TEXT NOT NULL DEFAULT 'General'"},
	{"reports", "feedback", "TEXT"},
	{"reports", "image_url", "TEXT NOT NULL DEFAULT ''"},
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	for _, col := range compatColumns {
		if err := addColumn(db, col.table, col.column, col.definition); err != nil {
			return err
		}
	}
	return nil
}

func addColumn(db *gorm.DB, table, column, definition string) error {
	var count int64
	err := db.Raw(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&count).Error
	if err != nil {
		return fmt.Errorf("inspect %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}
