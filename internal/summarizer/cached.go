package summarizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCacheSize = 64
	DefaultCacheTTL  = 24 * time.Hour
)

// Cached memoizes successful summaries per source URL and text.
type Cached struct {
	next  Summarizer
	cache *expirable.LRU[string, string]
}

func NewCached(next Summarizer, size int, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *Cached) Summarize(ctx context.Context, input Input) (string, error) {
	key := cacheKey(input)
	if key == "" {
		return c.next.Summarize(ctx, input)
	}

	if summary, ok := c.cache.Get(key); ok {
		return summary, nil
	}

	summary, err := c.next.Summarize(ctx, input)
	if err != nil {
		return "", err
	}

	c.cache.Add(key, summary)

	return summary, nil
}

func cacheKey(input Input) string {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(strings.TrimSpace(input.SourceURL) + "\n" + text))

	return hex.EncodeToString(hash[:])
}
