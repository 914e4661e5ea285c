package store

import (
	"database/sql"
	"fmt"
	"time"
)

// APIKeyRecord is a stored API key: prefix is the unhashed lookup
// fragment (the "wh_" + first bytes), hash is the bcrypt digest of
// the full key.
type APIKeyRecord struct {
	ID         int64
	Prefix     string
	Hash       string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// InsertAPIKey persists a newly minted key's prefix and bcrypt hash.
func (s *Store) InsertAPIKey(prefix, hash string, createdAt time.Time) error {
	_, err := s.DB.Exec(`
		INSERT INTO api_keys (prefix, hash, created_at) VALUES (?, ?, ?)
	`, prefix, hash, createdAt)
	if err != nil {
		return fmt.Errorf("insert api_key: %w", err)
	}
	return nil
}

// LookupAPIKeyByPrefix fetches the stored hash for a key's prefix, so
// the caller can verify the full presented key with bcrypt.
func (s *Store) LookupAPIKeyByPrefix(prefix string) (*APIKeyRecord, error) {
	row := s.DB.QueryRow(`
		SELECT id, prefix, hash, created_at, last_used_at FROM api_keys WHERE prefix = ?
	`, prefix)

	var rec APIKeyRecord
	var lastUsed sql.NullTime
	if err := row.Scan(&rec.ID, &rec.Prefix, &rec.Hash, &rec.CreatedAt, &lastUsed); err != nil {
		return nil, err
	}
	rec.LastUsedAt = nullTimeToPtr(lastUsed)
	return &rec, nil
}

// TouchAPIKey records the time an API key was last used for a
// successful request.
func (s *Store) TouchAPIKey(id int64, now time.Time) error {
	_, err := s.DB.Exec(`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("touch api_key %d: %w", id, err)
	}
	return nil
}

// HasAnyAPIKey reports whether at least one key has ever been minted,
// used to gate the one-shot bootstrap endpoint: once any key exists,
// bootstrap refuses to mint another unauthenticated one.
func (s *Store) HasAnyAPIKey() (bool, error) {
	var count int
	row := s.DB.QueryRow(`SELECT COUNT(*) FROM api_keys`)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("count api_keys: %w", err)
	}
	return count > 0, nil
}
