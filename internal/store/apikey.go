package store

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

// EnsureAPIKey returns the singleton API key, generating and storing
// one on first use. Subsequent calls always return the same key.
func (db *DB) EnsureAPIKey() (string, error) {
	var key string
	err := db.QueryRow(`SELECT key FROM api_keys ORDER BY id ASC LIMIT 1`).Scan(&key)
	if err == nil {
		return key, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	key = strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := db.Exec(`INSERT INTO api_keys (key) VALUES (?)`, key); err != nil {
		return "", err
	}
	return key, nil
}
