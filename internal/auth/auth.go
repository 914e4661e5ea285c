// Package auth hashes and verifies the bearer API keys the Query API
// and Console Bridge require for every request except the health check
// and the one-shot bootstrap endpoint, using
// bcrypt the way the teacher hashes its own secrets.
package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/omnizone/hostd/internal/store"
)

// KeyPrefixLen is how many bytes of the raw key are stored unhashed as
// a lookup prefix — bcrypt hashes have no sargable prefix of their own,
// so this is what LookupAPIKeyByPrefix indexes on.
const KeyPrefixLen = 12

// GenerateKey creates a new `wh_`-prefixed API key and its bcrypt hash,
// ready for storage via store.InsertAPIKey. The returned raw string is
// shown to the operator exactly once; only its hash is persisted.
func GenerateKey(cost int) (raw, prefix, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("generate key material: %w", err)
	}
	raw = "wh_" + hex.EncodeToString(buf)
	prefix = raw[:KeyPrefixLen]

	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", "", "", fmt.Errorf("hash key: %w", err)
	}
	return raw, prefix, string(hashed), nil
}

// Verify checks a raw bearer key against the store, returning true
// only if a key with a matching prefix and hash exists. A matched
// key's last_used_at is touched.
func Verify(s *store.Store, raw string) (bool, error) {
	if !strings.HasPrefix(raw, "wh_") || len(raw) < KeyPrefixLen {
		return false, nil
	}
	prefix := raw[:KeyPrefixLen]

	rec, err := s.LookupAPIKeyByPrefix(prefix)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup api key: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.Hash), []byte(raw)) != nil {
		return false, nil
	}
	if err := s.TouchAPIKey(rec.ID, time.Now()); err != nil {
		return false, fmt.Errorf("touch api key: %w", err)
	}
	return true, nil
}

// Bootstrap issues a new key and returns it if the store has no API
// keys at all and bootstrapping is enabled in config. The raw key is
// returned to the caller (the bootstrap endpoint sends it in its
// response) and is not logged. Returns "" if bootstrapping doesn't apply.
func Bootstrap(s *store.Store, enabled bool, cost int) (string, error) {
	if !enabled {
		return "", nil
	}
	has, err := s.HasAnyAPIKey()
	if err != nil {
		return "", fmt.Errorf("check existing api keys: %w", err)
	}
	if has {
		return "", nil
	}

	raw, prefix, hash, err := GenerateKey(cost)
	if err != nil {
		return "", err
	}
	if err := s.InsertAPIKey(prefix, hash, time.Now()); err != nil {
		return "", fmt.Errorf("insert bootstrap api key: %w", err)
	}
	return raw, nil
}
