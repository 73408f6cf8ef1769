// Package worker runs the fixed pool that drains the job queue and drives
// generation, rendering, and job-state transitions.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quizforge/quizforge/internal/quiz"
	"github.com/quizforge/quizforge/internal/storage"
)

// JobStore abstracts the job-record operations the pool needs.
type JobStore interface {
	GetJob(id string) (storage.Job, error)
	UpdateJobStatus(id string, status storage.JobStatus, artifactPath, errMsg string, ttl time.Duration) (bool, error)
}

// JobQueue hands out job ids in submission order. Pop blocks up to wait and
// returns false when nothing arrived or the context was cancelled.
type JobQueue interface {
	Pop(ctx context.Context, wait time.Duration) (string, bool)
}

// QuestionSource produces validated question sets from source text.
type QuestionSource interface {
	Generate(ctx context.Context, text string, count int) ([]quiz.Question, error)
	GenerateFromFragments(ctx context.Context, fragments []quiz.Fragment, total int) ([]quiz.Question, error)
}

// ArtifactPublisher renders and persists a finished quiz, returning the
// artifact path.
type ArtifactPublisher interface {
	Publish(owner, jobID string, questions []quiz.Question, meta quiz.Meta) (string, error)
}

// Options tunes the pool. Zero values fall back to the documented defaults.
type Options struct {
	Workers    int
	PopTimeout time.Duration
	JobTTL     time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 3
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = 5 * time.Second
	}
	if o.JobTTL <= 0 {
		o.JobTTL = 10 * time.Minute
	}
	return o
}

// Pool owns a fixed set of workers. Each worker loops pop, load, process;
// a failure in one job never takes a worker down.
type Pool struct {
	store     JobStore
	queue     JobQueue
	generator QuestionSource
	publisher ArtifactPublisher
	opts      Options
	logger    *slog.Logger
}

// NewPool creates a Pool with the given dependencies.
func NewPool(store JobStore, queue JobQueue, generator QuestionSource, publisher ArtifactPublisher, opts Options) *Pool {
	return &Pool{
		store:     store,
		queue:     queue,
		generator: generator,
		publisher: publisher,
		opts:      opts.withDefaults(),
		logger:    slog.Default(),
	}
}

// Run starts the workers and blocks until ctx is cancelled and every worker
// has finished its in-flight job.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.opts.Workers; i++ {
		id := i + 1
		g.Go(func() error {
			p.runWorker(ctx, id)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	logger := p.logger.With("worker", id)
	logger.Info("worker started")
	for {
		if ctx.Err() != nil {
			logger.Info("worker stopped")
			return
		}

		jobID, ok := p.queue.Pop(ctx, p.opts.PopTimeout)
		if !ok {
			continue
		}

		p.RunOnce(ctx, jobID, logger)
	}
}

// RunOnce processes a single dequeued job id end to end. A queued id whose
// record has expired is dropped with a log line; any processing failure,
// panics included, marks the job FAILED.
func (p *Pool) RunOnce(ctx context.Context, jobID string, logger *slog.Logger) {
	job, err := p.store.GetJob(jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Warn("dequeued job no longer exists", "job_id", jobID)
		} else {
			logger.Error("loading job failed", "job_id", jobID, "error", err)
		}
		return
	}

	if _, err := p.store.UpdateJobStatus(job.ID, storage.StatusProcessing, "", "", p.opts.JobTTL); err != nil {
		logger.Error("marking job processing failed", "job_id", job.ID, "error", err)
		return
	}

	path, err := p.processJob(ctx, job)
	if err != nil {
		logger.Warn("job failed", "job_id", job.ID, "error", err)
		if _, failErr := p.store.UpdateJobStatus(job.ID, storage.StatusFailed, "", err.Error(), p.opts.JobTTL); failErr != nil {
			logger.Error("marking job failed failed", "job_id", job.ID, "error", failErr)
		}
		return
	}

	if _, err := p.store.UpdateJobStatus(job.ID, storage.StatusCompleted, path, "", p.opts.JobTTL); err != nil {
		logger.Error("marking job completed failed", "job_id", job.ID, "error", err)
		return
	}
	logger.Info("job completed", "job_id", job.ID, "artifact", path)
}

func (p *Pool) processJob(ctx context.Context, job storage.Job) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing job: %v", r)
		}
	}()

	var payload quiz.JobPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return "", fmt.Errorf("parsing payload: %w", err)
	}
	if len(payload.Fragments) == 0 {
		return "", fmt.Errorf("payload has no source fragments")
	}

	var questions []quiz.Question
	if len(payload.Fragments) == 1 {
		questions, err = p.generator.Generate(ctx, payload.Fragments[0].Text, payload.Count)
	} else {
		questions, err = p.generator.GenerateFromFragments(ctx, payload.Fragments, payload.Count)
	}
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(payload.Fragments))
	for _, f := range payload.Fragments {
		if f.Name != "" {
			names = append(names, f.Name)
		}
	}
	path, err = p.publisher.Publish(job.Owner, job.ID, questions, quiz.Meta{
		Title:       payload.Title,
		SourceNames: names,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("publishing artifact: %w", err)
	}
	return path, nil
}
