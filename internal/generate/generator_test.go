package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/quizforge/quizforge/internal/quiz"
)

type mockCompleter struct {
	complete func(ctx context.Context, prompt string) (string, error)
	calls    int
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.complete(ctx, prompt)
}

// batchJSON builds a well-formed model response carrying n questions.
func batchJSON(t *testing.T, n int) string {
	t.Helper()
	type item struct {
		Question     string   `json:"question"`
		Options      []string `json:"options"`
		CorrectIndex int      `json:"correct_index"`
		Difficulty   string   `json:"difficulty"`
		Explanation  string   `json:"explanation"`
	}
	items := make([]item, n)
	for i := range items {
		items[i] = item{
			Question:     fmt.Sprintf("What is fact %d?", i+1),
			Options:      []string{fmt.Sprintf("right %d", i+1), "wrong a", "wrong b", "wrong c"},
			CorrectIndex: 0,
			Difficulty:   "easy",
			Explanation:  "because",
		}
	}
	raw, err := json.Marshal(map[string]any{"questions": items})
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestGenerateSucceedsFirstAttempt(t *testing.T) {
	mock := &mockCompleter{complete: func(ctx context.Context, prompt string) (string, error) {
		return batchJSON(t, 5), nil
	}}
	gen := New(mock, Options{})

	questions, err := gen.Generate(context.Background(), "source text", 5)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("model calls = %d, want 1", mock.calls)
	}
	if len(questions) != 5 {
		t.Fatalf("got %d questions, want 5", len(questions))
	}
	for i, q := range questions {
		want := fmt.Sprintf("q_%d", i+1)
		if q.ID != want {
			t.Errorf("question %d id = %q, want %q", i, q.ID, want)
		}
	}
}

func TestGenerateRetriesAfterParseFailure(t *testing.T) {
	mock := &mockCompleter{}
	mock.complete = func(ctx context.Context, prompt string) (string, error) {
		if mock.calls == 1 {
			return "not json at all", nil
		}
		return batchJSON(t, 4), nil
	}
	gen := New(mock, Options{})

	questions, err := gen.Generate(context.Background(), "source text", 4)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if mock.calls != 2 {
		t.Errorf("model calls = %d, want 2", mock.calls)
	}
	if len(questions) != 4 {
		t.Errorf("got %d questions, want 4", len(questions))
	}
}

func TestGenerateExhaustsAttempts(t *testing.T) {
	modelErr := errors.New("model unavailable")
	mock := &mockCompleter{complete: func(ctx context.Context, prompt string) (string, error) {
		return "", modelErr
	}}
	gen := New(mock, Options{MaxAttempts: 3})

	_, err := gen.Generate(context.Background(), "source text", 5)
	if err == nil {
		t.Fatal("Generate succeeded, want error")
	}
	if mock.calls != 3 {
		t.Errorf("model calls = %d, want 3", mock.calls)
	}
	if !errors.Is(err, modelErr) {
		t.Errorf("error %v does not wrap the model error", err)
	}
}

func TestGenerateRetriesBelowQualityGate(t *testing.T) {
	mock := &mockCompleter{}
	mock.complete = func(ctx context.Context, prompt string) (string, error) {
		if mock.calls == 1 {
			return batchJSON(t, 7), nil // under 80% of 10
		}
		return batchJSON(t, 8), nil
	}
	gen := New(mock, Options{})

	questions, err := gen.Generate(context.Background(), "source text", 10)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if mock.calls != 2 {
		t.Errorf("model calls = %d, want 2", mock.calls)
	}
	if len(questions) != 8 {
		t.Errorf("got %d questions, want 8", len(questions))
	}
}

func TestGenerateHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &mockCompleter{complete: func(ctx context.Context, prompt string) (string, error) {
		return batchJSON(t, 5), nil
	}}
	gen := New(mock, Options{})

	if _, err := gen.Generate(ctx, "source text", 5); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if mock.calls != 0 {
		t.Errorf("model called %d times after cancellation", mock.calls)
	}
}

func TestGenerateFromFragmentsMergesQuotas(t *testing.T) {
	fragments := []quiz.Fragment{
		{Name: "big.pdf", Text: "big fragment text", WordCount: 900},
		{Name: "small.txt", Text: "small fragment text", WordCount: 100},
	}

	mock := &mockCompleter{}
	mock.complete = func(ctx context.Context, prompt string) (string, error) {
		// The per-fragment prompt embeds its own requested count.
		switch {
		case strings.Contains(prompt, "big fragment"):
			return batchJSON(t, 9), nil
		default:
			return batchJSON(t, 1), nil
		}
	}
	gen := New(mock, Options{})

	questions, err := gen.GenerateFromFragments(context.Background(), fragments, 10)
	if err != nil {
		t.Fatalf("GenerateFromFragments: %v", err)
	}
	if len(questions) != 10 {
		t.Fatalf("got %d questions, want 10", len(questions))
	}
	for i, q := range questions {
		want := fmt.Sprintf("q_%d", i+1)
		if q.ID != want {
			t.Errorf("question %d id = %q, want %q", i, q.ID, want)
		}
	}
}

func TestGenerateFromFragmentsSkipsFailedFragment(t *testing.T) {
	fragments := []quiz.Fragment{
		{Name: "good.pdf", Text: "good fragment text", WordCount: 500},
		{Name: "bad.pdf", Text: "bad fragment text", WordCount: 500},
	}

	mock := &mockCompleter{}
	mock.complete = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "bad fragment") {
			return "", errors.New("model unavailable")
		}
		return batchJSON(t, 5), nil
	}
	gen := New(mock, Options{})

	questions, err := gen.GenerateFromFragments(context.Background(), fragments, 10)
	if err != nil {
		t.Fatalf("GenerateFromFragments: %v", err)
	}
	if len(questions) != 5 {
		t.Errorf("got %d questions, want 5 from the surviving fragment", len(questions))
	}
}

func TestGenerateFromFragmentsAllFail(t *testing.T) {
	fragments := []quiz.Fragment{
		{Name: "a.pdf", Text: "text a", WordCount: 100},
		{Name: "b.pdf", Text: "text b", WordCount: 100},
	}

	mock := &mockCompleter{complete: func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("model unavailable")
	}}
	gen := New(mock, Options{MaxAttempts: 1})

	if _, err := gen.GenerateFromFragments(context.Background(), fragments, 6); err == nil {
		t.Fatal("GenerateFromFragments succeeded with every fragment failing")
	}
}

func TestGenerateFromFragmentsNoFragments(t *testing.T) {
	gen := New(&mockCompleter{complete: func(ctx context.Context, prompt string) (string, error) {
		return "", nil
	}}, Options{})

	if _, err := gen.GenerateFromFragments(context.Background(), nil, 5); err == nil {
		t.Fatal("GenerateFromFragments succeeded with no fragments")
	}
}
