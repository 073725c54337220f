package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"insiderbot/internal/domain"

	"github.com/mmcdole/gofeed"
)

const (
	feedClientTimeout = 20 * time.Second
	userAgent         = "insiderbot (+https://github.com/insiderbot/insiderbot)"
)

type Fetcher struct {
	feedURL   string
	libParser *gofeed.Parser
	log       *slog.Logger
}

func NewFetcher(feedURL string, client *http.Client, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: feedClientTimeout}
	}

	libParser := gofeed.NewParser()
	libParser.Client = client
	libParser.UserAgent = userAgent

	return &Fetcher{
		feedURL:   strings.TrimSpace(feedURL),
		libParser: libParser,
		log:       log,
	}
}

// Entries fetches the feed and returns its items in feed order.
func (f *Fetcher) Entries(ctx context.Context) ([]domain.FeedEntry, error) {
	if f.feedURL == "" {
		return nil, errors.New("feed URL is empty")
	}

	parsed, err := f.libParser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed (URL = %s): %w", f.feedURL, err)
	}

	return f.convertItems(ctx, parsed.Items), nil
}

// ParseEntries parses a feed document that is already in memory.
func (f *Fetcher) ParseEntries(ctx context.Context, raw string) ([]domain.FeedEntry, error) {
	parsed, err := f.libParser.ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse feed string: %w", err)
	}

	return f.convertItems(ctx, parsed.Items), nil
}

func (f *Fetcher) convertItems(ctx context.Context, items []*gofeed.Item) []domain.FeedEntry {
	entries := make([]domain.FeedEntry, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		entry := domain.FeedEntry{
			Link:        strings.TrimSpace(item.Link),
			Title:       strings.TrimSpace(item.Title),
			Description: htmlToText(item.Description),
		}

		if entry.Link == "" {
			entry.Link = firstHTTPSURL(item.Content)
		}

		if entry.Link == "" {
			f.log.WarnContext(ctx, "Skipping feed item with empty URL",
				"feedURL", f.feedURL,
				"itemTitle", entry.Title)

			continue
		}

		if entry.Description == "" {
			entry.Description = htmlToText(item.Content)
		}

		entries = append(entries, entry)
	}

	return entries
}
