package summarizer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingSummarizer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSummarizer) Summarize(_ context.Context, input Input) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.err != nil {
		return "", s.err
	}

	return "summary of " + input.SourceURL, nil
}

func (s *countingSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

func TestCachedSummarizeUsesCache(t *testing.T) {
	next := &countingSummarizer{}
	cached := NewCached(next, DefaultCacheSize, time.Hour)
	input := Input{Text: "New build with fixes", SourceURL: "https://blogs.windows.com/a/"}

	for range 3 {
		got, err := cached.Summarize(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got != "summary of https://blogs.windows.com/a/" {
			t.Fatalf("unexpected summary: %q", got)
		}
	}

	if next.callCount() != 1 {
		t.Fatalf("expected a single upstream call, got %d", next.callCount())
	}
}

func TestCachedSummarizeDoesNotCacheErrors(t *testing.T) {
	next := &countingSummarizer{err: errors.New("rate limited")}
	cached := NewCached(next, DefaultCacheSize, time.Hour)
	input := Input{Text: "text", SourceURL: "https://blogs.windows.com/a/"}

	for range 2 {
		if _, err := cached.Summarize(context.Background(), input); err == nil {
			t.Fatalf("expected error")
		}
	}

	if next.callCount() != 2 {
		t.Fatalf("expected errors to bypass the cache, got %d calls", next.callCount())
	}
}

func TestCacheKey(t *testing.T) {
	if cacheKey(Input{Text: "  "}) != "" {
		t.Fatalf("expected empty key for empty text")
	}

	a := cacheKey(Input{Text: " body ", SourceURL: " https://x/ "})
	b := cacheKey(Input{Text: "body", SourceURL: "https://x/"})
	if a == "" || a != b {
		t.Fatalf("expected trimmed inputs to share a key, got %q vs %q", a, b)
	}
}
