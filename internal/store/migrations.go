package store

import (
	"database/sql"
	"fmt"
)

// migrations is the ordered list of schema upgrade steps. Each step must be
// idempotent: databases written by older builds of this app may already carry
// part of a step's effect without the version bump that normally records it.
var migrations = []func(*sql.DB) error{
	migrateInitialSchema,
	migrateAddDayNote,
}

// migrate applies every migration step past the database's recorded schema
// version, then records the new version.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](s.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		// PRAGMA does not support bound parameters.
		if _, err := s.db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			return fmt.Errorf("failed to record schema version %d: %w", i+1, err)
		}
	}

	return nil
}

func migrateInitialSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS day_entries (
  date TEXT PRIMARY KEY,
  checklist_json TEXT NOT NULL DEFAULT '[]',
  line_memo TEXT NOT NULL DEFAULT '',
  board_memo TEXT NOT NULL DEFAULT '',
  grid_json TEXT NOT NULL DEFAULT '{"cols":24,"rows":24,"blocks":[]}',
  updated_at TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS grid_images (
  id TEXT PRIMARY KEY,
  day_date TEXT NOT NULL,
  filename TEXT NOT NULL,
  width INTEGER NOT NULL,
  height INTEGER NOT NULL,
  created_at TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_grid_images_day_date ON grid_images(day_date)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateAddDayNote(db *sql.DB) error {
	// Databases created before versioned migrations may already have the
	// column from the old presence-check upgrade.
	exists, err := columnExists(db, "day_entries", "day_note")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = db.Exec(`ALTER TABLE day_entries ADD COLUMN day_note TEXT NOT NULL DEFAULT ''`)
	return err
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
