package store

import "database/sql"

// InsertMessage persists a message and returns its assigned id.
// CreatedAt is stamped at insert time when left empty.
func (db *DB) InsertMessage(m *Message) (int64, error) {
	if m.CreatedAt == "" {
		m.CreatedAt = Timestamp()
	}
	if m.MediaType == "" {
		m.MediaType = MediaText
	}
	res, err := db.Exec(`
		INSERT INTO messages (direction, sender, sender_name, body, status, media_type, media_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Direction, m.Sender, m.SenderName, m.Body, m.Status, m.MediaType, nullable(m.MediaURL), m.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	m.ID = id
	return id, nil
}

// GetMessage returns a message by id, or nil when it does not exist.
func (db *DB) GetMessage(id int64) (*Message, error) {
	var m Message
	var mediaURL sql.NullString
	err := db.QueryRow(`
		SELECT id, direction, sender, sender_name, body, status, media_type, media_url, created_at
		FROM messages WHERE id = ?`, id).
		Scan(&m.ID, &m.Direction, &m.Sender, &m.SenderName, &m.Body, &m.Status, &m.MediaType, &mediaURL, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.MediaURL = mediaURL.String
	return &m, nil
}

// UnreadIncoming returns all unread incoming messages, newest first.
func (db *DB) UnreadIncoming() ([]Message, error) {
	rows, err := db.Query(`
		SELECT id, direction, sender, sender_name, body, status, media_type, media_url, created_at
		FROM messages
		WHERE direction = ? AND status = ?
		ORDER BY id DESC`, DirectionIncoming, StatusUnread)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		var mediaURL sql.NullString
		if err := rows.Scan(&m.ID, &m.Direction, &m.Sender, &m.SenderName, &m.Body, &m.Status, &m.MediaType, &mediaURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.MediaURL = mediaURL.String
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// UpdateMessageStatus sets the status of a message. Reports whether a
// row was actually updated.
func (db *DB) UpdateMessageStatus(id int64, status string) (bool, error) {
	res, err := db.Exec(`UPDATE messages SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateMessageMedia sets the media kind and reference of a message,
// used after a downloaded attachment has been written to disk.
func (db *DB) UpdateMessageMedia(id int64, mediaType, mediaURL string) error {
	_, err := db.Exec(`UPDATE messages SET media_type = ?, media_url = ? WHERE id = ?`, mediaType, nullable(mediaURL), id)
	return err
}

// CountIncoming counts incoming messages only; outgoing volume never
// affects the reported count.
func (db *DB) CountIncoming() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE direction = ?`, DirectionIncoming).Scan(&n)
	return n, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
