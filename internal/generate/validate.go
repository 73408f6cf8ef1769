package generate

import (
	"errors"
	"fmt"

	"github.com/quizforge/quizforge/internal/quiz"
)

// checkBatch accepts a batch only if enough items survived parsing and every
// survivor is structurally sound. An out-of-range correct index fails the
// whole batch, not just the item: it signals a structurally broken item set
// rather than a content nit. Unknown difficulty tags are coerced, never
// rejected.
func checkBatch(questions []quiz.Question, requested int, qualityRatio float64) error {
	if len(questions) == 0 {
		return errors.New("empty batch")
	}

	minCount := int(float64(requested) * qualityRatio)
	if len(questions) < minCount {
		return fmt.Errorf("got %d questions, need at least %d of %d requested", len(questions), minCount, requested)
	}

	for i := range questions {
		q := &questions[i]
		if len(q.Options) != quiz.OptionCount {
			return fmt.Errorf("question %q has %d options instead of %d", q.ID, len(q.Options), quiz.OptionCount)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= quiz.OptionCount {
			return fmt.Errorf("question %q has correct index %d out of range", q.ID, q.CorrectIndex)
		}
		q.Difficulty = quiz.CoerceDifficulty(string(q.Difficulty))
	}

	return nil
}
