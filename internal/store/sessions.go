package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// CreateSession inserts a new console session row in the
// "connecting" state.
func (s *Store) CreateSession(sess model.Session) error {
	_, err := s.DB.Exec(`
		INSERT INTO sessions (id, kind, zone_name, status, pid, port, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Kind, sess.ZoneName, sess.Status, sess.PID, sess.Port, sess.CreatedAt, sess.LastSeen)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}
	return nil
}

// SetSessionActive transitions a session to active once its PTY or
// VNC backend is attached.
func (s *Store) SetSessionActive(id string, pid *int, port *int, now time.Time) error {
	_, err := s.DB.Exec(`
		UPDATE sessions SET status = 'active', pid = ?, port = ?, last_seen = ? WHERE id = ?
	`, pid, port, now, id)
	if err != nil {
		return fmt.Errorf("activate session %s: %w", id, err)
	}
	return nil
}

// TouchSession bumps last_seen, used on every inbound frame to
// support the inactivity-threshold cleanup sweep.
func (s *Store) TouchSession(id string, now time.Time) error {
	_, err := s.DB.Exec(`UPDATE sessions SET last_seen = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("touch session %s: %w", id, err)
	}
	return nil
}

// CloseSession marks a session closed.
func (s *Store) CloseSession(id string, now time.Time) error {
	_, err := s.DB.Exec(`UPDATE sessions SET status = 'closed', last_seen = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("close session %s: %w", id, err)
	}
	return nil
}

// GetSession reads a single session by id.
func (s *Store) GetSession(id string) (*model.Session, error) {
	row := s.DB.QueryRow(`
		SELECT id, kind, zone_name, status, pid, port, created_at, last_seen
		FROM sessions WHERE id = ?
	`, id)
	var sess model.Session
	var pid, port sql.NullInt64
	if err := row.Scan(&sess.ID, &sess.Kind, &sess.ZoneName, &sess.Status, &pid, &port,
		&sess.CreatedAt, &sess.LastSeen); err != nil {
		return nil, err
	}
	if pid.Valid {
		v := int(pid.Int64)
		sess.PID = &v
	}
	if port.Valid {
		v := int(port.Int64)
		sess.Port = &v
	}
	return &sess, nil
}

// ListActiveSessionsForZone returns every active VNC/terminal/zlogin
// session for a zone — used by the console bridge's single-session
// inference for bare /websockify requests lacking a Referer header.
func (s *Store) ListActiveSessionsForZone(zoneName, kind string) ([]model.Session, error) {
	rows, err := s.DB.Query(`
		SELECT id, kind, zone_name, status, pid, port, created_at, last_seen
		FROM sessions WHERE zone_name = ? AND kind = ? AND status = 'active'
	`, zoneName, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ListActiveSessionsByKind returns every active session of a given
// kind across all zones — used for the single-active-session
// fallback when no zone can be inferred.
func (s *Store) ListActiveSessionsByKind(kind string) ([]model.Session, error) {
	rows, err := s.DB.Query(`
		SELECT id, kind, zone_name, status, pid, port, created_at, last_seen
		FROM sessions WHERE kind = ? AND status = 'active'
	`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

// InactiveSessionsOlderThan returns active sessions whose last_seen
// predates cutoff, for the smart-cleanup grace-period sweep.
func (s *Store) InactiveSessionsOlderThan(cutoff time.Time) ([]model.Session, error) {
	rows, err := s.DB.Query(`
		SELECT id, kind, zone_name, status, pid, port, created_at, last_seen
		FROM sessions WHERE status = 'active' AND last_seen < ?
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]model.Session, error) {
	var out []model.Session
	for rows.Next() {
		var sess model.Session
		var pid, port sql.NullInt64
		if err := rows.Scan(&sess.ID, &sess.Kind, &sess.ZoneName, &sess.Status, &pid, &port,
			&sess.CreatedAt, &sess.LastSeen); err != nil {
			return nil, err
		}
		if pid.Valid {
			v := int(pid.Int64)
			sess.PID = &v
		}
		if port.Valid {
			v := int(port.Int64)
			sess.Port = &v
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
