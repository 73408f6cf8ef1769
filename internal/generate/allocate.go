package generate

import (
	"math"

	"github.com/quizforge/quizforge/internal/quiz"
)

// Allocate computes per-fragment question quotas proportional to each
// fragment's share of the total word count. Every non-last fragment gets at
// least 1; the last fragment absorbs all rounding error and is itself floored
// at 1, so the delivered total matches the request exactly whenever rounding
// does not overcommit the budget.
func Allocate(fragments []quiz.Fragment, total int) []int {
	quotas := make([]int, len(fragments))
	if len(fragments) == 0 {
		return quotas
	}

	totalWords := 0
	for _, f := range fragments {
		totalWords += f.WordCount
	}

	remaining := total
	for i, f := range fragments {
		if i == len(fragments)-1 {
			quotas[i] = remaining
			if quotas[i] < 1 {
				quotas[i] = 1
			}
			break
		}

		n := 1
		if totalWords > 0 {
			share := float64(f.WordCount) / float64(totalWords)
			n = int(math.Round(float64(total) * share))
			if n < 1 {
				n = 1
			}
		}
		quotas[i] = n
		remaining -= n
		if remaining < 0 {
			remaining = 0
		}
	}

	return quotas
}
