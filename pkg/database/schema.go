package database

import (
	"database/sql"
	"fmt"
)

// The directory schema: one row per registered user carrying the presence
// record. Presence rows default to offline and are never deleted while the
// account exists. last_seen is stored as RFC 3339 text.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	username        TEXT NOT NULL DEFAULT '',
	display_name    TEXT NOT NULL DEFAULT '',
	presence_status TEXT NOT NULL DEFAULT 'offline',
	last_seen       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_users_presence_status ON users(presence_status);
`

// Bootstrap creates the directory schema if it does not exist.
func Bootstrap(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to bootstrap directory schema: %w", err)
	}
	return nil
}

// ValidateSchema verifies the required tables exist, catching a store
// pointed at the wrong file before any traffic arrives.
func ValidateSchema(db *sql.DB) error {
	required := []string{"users"}
	for _, table := range required {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("required table %s does not exist", table)
		}
		if err != nil {
			return fmt.Errorf("error checking table %s: %w", table, err)
		}
	}
	return nil
}
