package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist or has
// expired. Callers cannot distinguish the two cases.
var ErrNotFound = errors.New("not found")

// JobStatus is the lifecycle state of a generation job.
type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether no further transitions occur from this status.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one asynchronous "generate N questions from this text" unit of work.
// ExpiresAt slides forward on every write, so an actively-updated job does not
// expire mid-flight, but one that stalls longer than the TTL disappears.
type Job struct {
	ID           string
	Owner        string
	PayloadJSON  string
	Status       JobStatus
	ArtifactPath string
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}

// Session is an opaque per-owner interactive-state blob owned by callers.
type Session struct {
	Owner     string
	StateJSON string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Upload is extracted text from one uploaded document, kept long enough for
// the owner to build a multi-source job out of several uploads.
type Upload struct {
	ID        string
	Owner     string
	Filename  string
	Content   string
	WordCount int
	CharCount int
	CreatedAt time.Time
	ExpiresAt time.Time
}
