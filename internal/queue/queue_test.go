package queue

import (
	"context"
	"testing"
	"time"
)

func TestFIFOOrder(t *testing.T) {
	q := New(10)

	for _, id := range []string{"a", "b", "c"} {
		if err := q.Push(id); err != nil {
			t.Fatalf("Push(%s): %v", id, err)
		}
	}

	ctx := context.Background()
	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Pop(ctx, time.Second)
		if !ok {
			t.Fatalf("Pop timed out waiting for %q", want)
		}
		if got != want {
			t.Errorf("Pop = %q, want %q", got, want)
		}
	}
}

func TestPushFull(t *testing.T) {
	q := New(1)

	if err := q.Push("a"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := q.Push("b"); err != ErrFull {
		t.Fatalf("Push on full queue = %v, want ErrFull", err)
	}
}

func TestPopTimeout(t *testing.T) {
	q := New(1)

	start := time.Now()
	_, ok := q.Pop(context.Background(), 20*time.Millisecond)
	if ok {
		t.Fatal("Pop returned ok on empty queue")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Pop returned after %v, want >= 20ms", elapsed)
	}
}

func TestPopObservesCancellation(t *testing.T) {
	q := New(1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, ok := q.Pop(ctx, 5*time.Second)
	if ok {
		t.Fatal("Pop returned ok after cancellation")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Pop ignored cancellation, took %v", elapsed)
	}
}

// A buffered id survives between Pop calls and is delivered exactly once.
func TestPopOnce(t *testing.T) {
	q := New(2)
	if err := q.Push("only"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	ctx := context.Background()
	got := make(chan string, 2)
	for i := 0; i < 2; i++ {
		go func() {
			if id, ok := q.Pop(ctx, 50*time.Millisecond); ok {
				got <- id
			} else {
				got <- ""
			}
		}()
	}

	first, second := <-got, <-got
	delivered := 0
	for _, v := range []string{first, second} {
		if v == "only" {
			delivered++
		}
	}
	if delivered != 1 {
		t.Fatalf("id delivered %d times, want exactly once", delivered)
	}
}
