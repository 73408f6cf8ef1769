package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateJob inserts a new PENDING job record with the given TTL.
func (s *Store) CreateJob(job Job, ttl time.Duration) error {
	ts := now()
	status := job.Status
	if status == "" {
		status = StatusPending
	}
	expires := formatTime(time.Now().Add(ttl))
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, owner, payload_json, status, artifact_path, error, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, '', '', ?, ?, ?)`,
		job.ID, job.Owner, job.PayloadJSON, status, ts, ts, expires,
	)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

// GetJob returns a job by id. Expired records are reported as ErrNotFound,
// exactly like records that never existed.
func (s *Store) GetJob(id string) (Job, error) {
	var j Job
	var createdAt, updatedAt, expiresAt string
	err := s.db.QueryRow(`
		SELECT id, owner, payload_json, status, artifact_path, error, created_at, updated_at, expires_at
		FROM jobs WHERE id = ? AND expires_at > ?`, id, now(),
	).Scan(&j.ID, &j.Owner, &j.PayloadJSON, &j.Status, &j.ArtifactPath, &j.Error, &createdAt, &updatedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return Job{}, fmt.Errorf("parsing created_at for job %s: %w", id, err)
	}
	if j.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Job{}, fmt.Errorf("parsing updated_at for job %s: %w", id, err)
	}
	if j.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return Job{}, fmt.Errorf("parsing expires_at for job %s: %w", id, err)
	}
	return j, nil
}

// UpdateJobStatus performs a read-modify-write of the job's status, artifact
// reference, and error cause, refreshing the TTL (sliding expiry). If the
// record is absent or expired the update is a silent no-op and ok is false:
// the job has been abandoned and must not be resurrected.
func (s *Store) UpdateJobStatus(id string, status JobStatus, artifactPath, errMsg string, ttl time.Duration) (bool, error) {
	ts := now()
	expires := formatTime(time.Now().Add(ttl))
	res, err := s.db.Exec(`
		UPDATE jobs
		SET status = ?,
		    artifact_path = CASE WHEN ? != '' THEN ? ELSE artifact_path END,
		    error = CASE WHEN ? != '' THEN ? ELSE error END,
		    updated_at = ?,
		    expires_at = ?
		WHERE id = ? AND expires_at > ?`,
		status, artifactPath, artifactPath, errMsg, errMsg, ts, expires, id, ts,
	)
	if err != nil {
		return false, fmt.Errorf("updating job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
