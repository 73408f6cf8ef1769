// Package queue provides the FIFO handoff of job identifiers from submitters
// to the worker pool. Exactly one worker receives a given identifier; no
// other exclusivity is enforced, so producers must never push duplicates.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrFull is returned by Push when the queue's buffer is exhausted. The
// submission as a whole should fail; no partial job should remain enqueued.
var ErrFull = errors.New("queue full")

// Queue is a bounded in-process FIFO of job identifiers.
type Queue struct {
	ch chan string
}

// New creates a Queue buffering up to size identifiers.
func New(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{ch: make(chan string, size)}
}

// Push appends a job id to the tail without blocking.
func (q *Queue) Push(id string) error {
	select {
	case q.ch <- id:
		return nil
	default:
		return ErrFull
	}
}

// Pop removes the head id, waiting up to wait for one to arrive. It returns
// ok=false on timeout or context cancellation, which is how workers observe
// shutdown between polls.
func (q *Queue) Pop(ctx context.Context, wait time.Duration) (string, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case id := <-q.ch:
		return id, true
	case <-timer.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// Len reports the number of ids currently buffered.
func (q *Queue) Len() int {
	return len(q.ch)
}
