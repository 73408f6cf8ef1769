package generate

import (
	"math/rand"

	"github.com/quizforge/quizforge/internal/quiz"
)

// shuffleOptions randomly permutes each question's answer options so the
// distractor order looks random to the end user. The correct index is
// remapped through the permutation itself, so the marked answer follows its
// option even when two options carry identical text.
func shuffleOptions(questions []quiz.Question) {
	for i := range questions {
		q := &questions[i]
		perm := rand.Perm(quiz.OptionCount)

		shuffled := make([]string, quiz.OptionCount)
		newCorrect := q.CorrectIndex
		for newIdx, oldIdx := range perm {
			shuffled[newIdx] = q.Options[oldIdx]
			if oldIdx == q.CorrectIndex {
				newCorrect = newIdx
			}
		}
		q.Options = shuffled
		q.CorrectIndex = newCorrect
	}
}
