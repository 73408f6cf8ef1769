package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// PutSession creates or replaces the owner's session state, refreshing the TTL.
func (s *Store) PutSession(owner, stateJSON string, ttl time.Duration) error {
	ts := now()
	expires := formatTime(time.Now().Add(ttl))
	_, err := s.db.Exec(`
		INSERT INTO sessions (owner, state_json, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		owner, stateJSON, ts, ts, expires,
	)
	if err != nil {
		return fmt.Errorf("saving session for %s: %w", owner, err)
	}
	return nil
}

// GetSession returns the owner's session. Expired sessions are ErrNotFound.
func (s *Store) GetSession(owner string) (Session, error) {
	var sess Session
	var createdAt, updatedAt, expiresAt string
	err := s.db.QueryRow(`
		SELECT owner, state_json, created_at, updated_at, expires_at
		FROM sessions WHERE owner = ? AND expires_at > ?`, owner, now(),
	).Scan(&sess.Owner, &sess.StateJSON, &createdAt, &updatedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return Session{}, fmt.Errorf("parsing created_at for session %s: %w", owner, err)
	}
	if sess.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Session{}, fmt.Errorf("parsing updated_at for session %s: %w", owner, err)
	}
	if sess.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return Session{}, fmt.Errorf("parsing expires_at for session %s: %w", owner, err)
	}
	return sess, nil
}

// DeleteSession removes the owner's session if present.
func (s *Store) DeleteSession(owner string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE owner = ?", owner)
	return err
}

// SaveUpload stores extracted document text under a fresh upload id.
func (s *Store) SaveUpload(u Upload, ttl time.Duration) error {
	_, err := s.db.Exec(`
		INSERT INTO uploads (id, owner, filename, content, word_count, char_count, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Owner, u.Filename, u.Content, u.WordCount, u.CharCount,
		now(), formatTime(time.Now().Add(ttl)),
	)
	if err != nil {
		return fmt.Errorf("saving upload %s: %w", u.ID, err)
	}
	return nil
}

// GetUpload returns an upload by id. Expired uploads are ErrNotFound.
func (s *Store) GetUpload(id string) (Upload, error) {
	var u Upload
	var createdAt, expiresAt string
	err := s.db.QueryRow(`
		SELECT id, owner, filename, content, word_count, char_count, created_at, expires_at
		FROM uploads WHERE id = ? AND expires_at > ?`, id, now(),
	).Scan(&u.ID, &u.Owner, &u.Filename, &u.Content, &u.WordCount, &u.CharCount, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return Upload{}, ErrNotFound
	}
	if err != nil {
		return Upload{}, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return Upload{}, fmt.Errorf("parsing created_at for upload %s: %w", id, err)
	}
	if u.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return Upload{}, fmt.Errorf("parsing expires_at for upload %s: %w", id, err)
	}
	return u, nil
}
