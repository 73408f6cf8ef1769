package generate

import (
	"testing"

	"github.com/quizforge/quizforge/internal/quiz"
)

func frags(wordCounts ...int) []quiz.Fragment {
	out := make([]quiz.Fragment, len(wordCounts))
	for i, wc := range wordCounts {
		out[i] = quiz.Fragment{Name: "doc", WordCount: wc}
	}
	return out
}

func sum(ns []int) int {
	total := 0
	for _, n := range ns {
		total += n
	}
	return total
}

func TestAllocateProportional(t *testing.T) {
	// 900/1000 and 100/1000 word shares of 10 questions.
	quotas := Allocate(frags(900, 100), 10)
	if quotas[0] != 9 || quotas[1] != 1 {
		t.Errorf("Allocate = %v, want [9 1]", quotas)
	}
}

func TestAllocateSingleFragment(t *testing.T) {
	quotas := Allocate(frags(1000), 10)
	if len(quotas) != 1 || quotas[0] != 10 {
		t.Errorf("Allocate = %v, want [10]", quotas)
	}
}

func TestAllocateSumEqualsTotal(t *testing.T) {
	cases := []struct {
		words []int
		total int
	}{
		{[]int{900, 100}, 10},
		{[]int{500, 300, 200}, 10},
		{[]int{250, 250, 250, 250}, 12},
		{[]int{1, 1, 1}, 3},
		{[]int{7000, 2000, 1000}, 50},
	}
	for _, tc := range cases {
		quotas := Allocate(frags(tc.words...), tc.total)
		if got := sum(quotas); got != tc.total {
			t.Errorf("Allocate(%v, %d) sums to %d: %v", tc.words, tc.total, got, quotas)
		}
	}
}

func TestAllocateEveryFragmentAtLeastOne(t *testing.T) {
	// The tiny fragments would round to 0; the floor keeps them at 1.
	quotas := Allocate(frags(10000, 1, 1, 1), 10)
	for i, q := range quotas {
		if q < 1 {
			t.Errorf("fragment %d allocated %d, want >= 1", i, q)
		}
	}
}

func TestAllocateMonotonic(t *testing.T) {
	quotas := Allocate(frags(600, 300, 100), 10)
	if quotas[0] < quotas[1] {
		t.Errorf("larger fragment got fewer questions: %v", quotas)
	}
}

// When earlier rounding overcommits the budget, the last fragment still gets
// at least one question.
func TestAllocateLastFragmentFloor(t *testing.T) {
	quotas := Allocate(frags(500, 499, 1), 3)
	last := quotas[len(quotas)-1]
	if last < 1 {
		t.Errorf("last fragment allocated %d, want >= 1", last)
	}
}

func TestAllocateZeroWordCounts(t *testing.T) {
	quotas := Allocate(frags(0, 0), 5)
	for i, q := range quotas {
		if q < 1 {
			t.Errorf("fragment %d allocated %d with zero words, want >= 1", i, q)
		}
	}
}

func TestAllocateEmpty(t *testing.T) {
	if quotas := Allocate(nil, 10); len(quotas) != 0 {
		t.Errorf("Allocate(nil) = %v, want empty", quotas)
	}
}
