package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TimestampLayout is the fixed presentation format messages are
// recorded with. Timestamps are stored as already-formatted strings in
// local time, not as native UTC instants.
const TimestampLayout = "02/01/2006, 15:04:05"

// Timestamp returns the current time in the storage format.
func Timestamp() string {
	return time.Now().Format(TimestampLayout)
}

// DB wraps a SQLite database connection for the app-owned wahook.db.
type DB struct {
	*sql.DB
}

// Open creates a new SQLite connection with WAL mode and recommended pragmas.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Verify connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{db}, nil
}
