// Package media persists downloaded image attachments on disk, keyed
// by message id. Files are served read-only through the API's static
// media route; there is no eviction and no format conversion.
package media

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store writes and resolves attachment files under a single root
// directory.
type Store struct {
	root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory attachments are stored in.
func (s *Store) Root() string {
	return s.root
}

// FileName returns the fixed on-disk name for a message's attachment.
func FileName(messageID int64) string {
	return fmt.Sprintf("%d.jpg", messageID)
}

// Save writes the attachment for a message and returns its file name.
func (s *Store) Save(messageID int64, data []byte) (string, error) {
	name := FileName(messageID)
	if err := os.WriteFile(filepath.Join(s.root, name), data, 0600); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return name, nil
}

// Path resolves a stored file name to its absolute path.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}
