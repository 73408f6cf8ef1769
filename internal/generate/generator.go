// Package generate wraps the question-generation model call with format
// tolerance, quality gating, bounded retry, and the proportional
// multi-source allocator.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/quizforge/quizforge/internal/quiz"
)

// ChatCompleter is the single model call the generator depends on.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options tunes the generator. Zero values fall back to the defaults the
// rest of the system assumes.
type Options struct {
	MaxAttempts    int
	MaxPromptChars int
	// QualityRatio is the minimum fraction of the requested count that must
	// survive validation for a batch to be accepted.
	QualityRatio float64
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.MaxPromptChars <= 0 {
		o.MaxPromptChars = 40000
	}
	if o.QualityRatio <= 0 {
		o.QualityRatio = 0.8
	}
	return o
}

// Generator produces validated question sets from source text. The model is
// unreliable (malformed, truncated, or thin output) and is never trusted
// blindly.
type Generator struct {
	client ChatCompleter
	opts   Options
	logger *slog.Logger
}

// New creates a Generator over the given model client.
func New(client ChatCompleter, opts Options) *Generator {
	return &Generator{
		client: client,
		opts:   opts.withDefaults(),
		logger: slog.Default(),
	}
}

// Generate runs the bounded attempt loop for a single block of text:
// call, parse, gate, shuffle. Each attempt fails independently on model
// error, parse failure, or quality-gate rejection; after MaxAttempts the
// whole call fails with the last cause.
func (g *Generator) Generate(ctx context.Context, text string, count int) ([]quiz.Question, error) {
	return g.generate(ctx, text, count, "")
}

func (g *Generator) generate(ctx context.Context, text string, count int, sourceName string) ([]quiz.Question, error) {
	var lastErr error
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g.logger.Info("generating questions",
			"count", count, "attempt", attempt, "max_attempts", g.opts.MaxAttempts, "source", sourceName)

		raw, err := g.client.Complete(ctx, buildPrompt(text, count, sourceName, g.opts.MaxPromptChars))
		if err != nil {
			lastErr = fmt.Errorf("model call: %w", err)
			g.logger.Warn("model call failed", "attempt", attempt, "error", err)
			continue
		}

		questions, err := parseQuestions(raw)
		if err != nil {
			lastErr = fmt.Errorf("parsing response: %w", err)
			g.logger.Warn("response parse failed", "attempt", attempt, "error", err)
			continue
		}

		if err := checkBatch(questions, count, g.opts.QualityRatio); err != nil {
			lastErr = fmt.Errorf("quality gate: %w", err)
			g.logger.Warn("batch rejected", "attempt", attempt, "error", err)
			continue
		}

		shuffleOptions(questions)
		renumber(questions)
		return questions, nil
	}

	return nil, fmt.Errorf("generation failed after %d attempts: %w", g.opts.MaxAttempts, lastErr)
}

// GenerateFromFragments allocates the total question count across fragments
// proportionally to word share, generates each fragment's share from its own
// text, and merges the results into one shuffled, re-indexed list. A failed
// fragment is skipped rather than failing the job; the call fails only when
// no fragment produced anything.
func (g *Generator) GenerateFromFragments(ctx context.Context, fragments []quiz.Fragment, total int) ([]quiz.Question, error) {
	if len(fragments) == 0 {
		return nil, fmt.Errorf("no source fragments")
	}

	quotas := Allocate(fragments, total)

	var merged []quiz.Question
	for i, frag := range fragments {
		if quotas[i] <= 0 {
			g.logger.Info("skipping fragment with zero allocation", "source", frag.Name)
			continue
		}

		questions, err := g.generate(ctx, frag.Text, quotas[i], frag.Name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Warn("fragment generation failed, skipping", "source", frag.Name, "error", err)
			continue
		}
		merged = append(merged, questions...)
	}

	if len(merged) == 0 {
		return nil, fmt.Errorf("no questions generated from any of %d fragments", len(fragments))
	}

	// Shuffle so the delivered quiz does not cluster by source document.
	rand.Shuffle(len(merged), func(i, j int) {
		merged[i], merged[j] = merged[j], merged[i]
	})
	renumber(merged)

	return merged, nil
}

// renumber reassigns sequential identifiers in current order so ids are
// always contiguous and order-stable within one delivered set.
func renumber(questions []quiz.Question) {
	for i := range questions {
		questions[i].ID = fmt.Sprintf("q_%d", i+1)
	}
}
