package main

import (
	"database/sql"
	"fmt"
)

// tuneDB applies the pragmas both drivers share. A single writer keeps
// SQLite from reporting busy under concurrent hero image saves.
func tuneDB(db *sql.DB) error {
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}
