package store

import "database/sql"

// ActiveWebhook returns the active subscription for an event, or nil.
func (db *DB) ActiveWebhook(event string) (*Webhook, error) {
	var w Webhook
	err := db.QueryRow(`
		SELECT id, event, url, active FROM webhooks
		WHERE event = ? AND active = 1
		ORDER BY id DESC LIMIT 1`, event).
		Scan(&w.ID, &w.Event, &w.URL, &w.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// SetWebhook registers url as the active subscription for event,
// atomically superseding any previous one.
func (db *DB) SetWebhook(event, url string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE webhooks SET active = 0 WHERE event = ?`, event); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO webhooks (event, url, active) VALUES (?, ?, 1)`, event, url); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteWebhook deactivates the subscription for an event.
func (db *DB) DeleteWebhook(event string) error {
	_, err := db.Exec(`UPDATE webhooks SET active = 0 WHERE event = ?`, event)
	return err
}
