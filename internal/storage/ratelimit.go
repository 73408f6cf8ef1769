package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Rate-limit window identifiers. The two windows are independent namespaces
// with their own reset times, orthogonal to the job lifecycle.
const (
	rateWindowShort = "short"
	rateWindowDaily = "daily"
)

// RateLimit describes the submission quotas enforced per owner.
type RateLimit struct {
	PerWindow int
	PerDay    int
	Window    time.Duration
}

// AllowSubmission checks the owner's short-window and daily counters and, if
// both are under quota, increments them. It returns false when either quota
// is exhausted; counters are not incremented on denial.
func (s *Store) AllowSubmission(owner string, limit RateLimit) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning rate-limit transaction: %w", err)
	}
	defer tx.Rollback()

	nowT := time.Now()

	shortCount, err := windowCount(tx, owner, rateWindowShort, nowT)
	if err != nil {
		return false, err
	}
	dailyCount, err := windowCount(tx, owner, rateWindowDaily, nowT)
	if err != nil {
		return false, err
	}

	if shortCount >= limit.PerWindow || dailyCount >= limit.PerDay {
		return false, nil
	}

	if err := bumpWindow(tx, owner, rateWindowShort, shortCount, nowT, limit.Window); err != nil {
		return false, err
	}
	if err := bumpWindow(tx, owner, rateWindowDaily, dailyCount, nowT, 24*time.Hour); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// windowCount returns the owner's current count for a window, treating an
// elapsed window as zero.
func windowCount(tx *sql.Tx, owner, window string, nowT time.Time) (int, error) {
	var count int
	var resetsAt string
	err := tx.QueryRow(`
		SELECT count, resets_at FROM rate_counters WHERE owner = ? AND window = ?`,
		owner, window,
	).Scan(&count, &resetsAt)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s counter for %s: %w", window, owner, err)
	}
	reset, err := parseTime(resetsAt)
	if err != nil {
		return 0, fmt.Errorf("parsing resets_at for %s/%s: %w", owner, window, err)
	}
	if !reset.After(nowT) {
		return 0, nil
	}
	return count, nil
}

// bumpWindow writes count+1, starting a fresh window when the previous one
// elapsed (count == 0 resets the deadline).
func bumpWindow(tx *sql.Tx, owner, window string, count int, nowT time.Time, span time.Duration) error {
	if count == 0 {
		_, err := tx.Exec(`
			INSERT INTO rate_counters (owner, window, count, resets_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(owner, window) DO UPDATE SET
				count = 1,
				resets_at = excluded.resets_at`,
			owner, window, formatTime(nowT.Add(span)),
		)
		if err != nil {
			return fmt.Errorf("resetting %s counter for %s: %w", window, owner, err)
		}
		return nil
	}
	_, err := tx.Exec(`
		UPDATE rate_counters SET count = count + 1 WHERE owner = ? AND window = ?`,
		owner, window,
	)
	if err != nil {
		return fmt.Errorf("incrementing %s counter for %s: %w", window, owner, err)
	}
	return nil
}
