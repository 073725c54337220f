package announce

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"insiderbot/internal/domain"
	"insiderbot/internal/feed"
	"insiderbot/internal/metrics"
	"insiderbot/internal/settings"
	"insiderbot/internal/summarizer"
)

const summaryMaxChars = 280

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeNoEntry
	OutcomeBaseline
	OutcomeUnchanged
	OutcomeNoBuildNumber
	OutcomeAnnounced
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoEntry:
		return "no_entry"
	case OutcomeBaseline:
		return "baseline"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeNoBuildNumber:
		return "no_build_number"
	case OutcomeAnnounced:
		return "announced"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

type Source interface {
	Entries(ctx context.Context) ([]domain.FeedEntry, error)
}

// Announcer delivers one detected build to a destination.
type Announcer interface {
	Name() string
	Announce(ctx context.Context, build domain.Build) error
}

// Status is a snapshot of the last poll.
type Status struct {
	LastPoll    time.Time
	LastOutcome Outcome
	LastBuild   domain.Build
	LastError   error
}

type Poller struct {
	source     Source
	links      settings.LinkStore
	buildType  feed.BuildType
	summarizer summarizer.Summarizer
	announcers []Announcer
	now        func() time.Time
	log        *slog.Logger

	mu     sync.RWMutex
	status Status
}

type Option func(*Poller)

func WithSummarizer(s summarizer.Summarizer) Option {
	return func(p *Poller) {
		p.summarizer = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

func WithAnnouncers(announcers ...Announcer) Option {
	return func(p *Poller) {
		p.announcers = append(p.announcers, announcers...)
	}
}

func NewPoller(
	source Source,
	links settings.LinkStore,
	buildType feed.BuildType,
	log *slog.Logger,
	opts ...Option,
) *Poller {
	p := &Poller{
		source:    source,
		links:     links,
		buildType: buildType,
		now:       time.Now,
		log:       log,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status
}

// Poll runs one detection cycle. A given feed link is announced at most once.
func (p *Poller) Poll(ctx context.Context) (Outcome, error) {
	build, outcome, err := p.poll(ctx)
	if err != nil {
		outcome = OutcomeFailed
	}

	p.mu.Lock()
	p.status.LastPoll = p.now()
	p.status.LastOutcome = outcome
	p.status.LastError = err
	if outcome == OutcomeAnnounced {
		p.status.LastBuild = build
	}
	p.mu.Unlock()

	metrics.PollsTotal.WithLabelValues(outcome.String()).Inc()

	return outcome, err
}

func (p *Poller) poll(ctx context.Context) (domain.Build, Outcome, error) {
	entries, err := p.source.Entries(ctx)
	if err != nil {
		return domain.Build{}, OutcomeFailed, fmt.Errorf("fetch entries: %w", err)
	}

	entry, ok := feed.FirstMatch(entries, p.buildType)
	if !ok {
		p.log.DebugContext(ctx, "No matching feed entry",
			"buildType", p.buildType,
			"entries", len(entries))

		return domain.Build{}, OutcomeNoEntry, nil
	}

	lastLink, err := p.links.LastLink(ctx)
	if err != nil {
		return domain.Build{}, OutcomeFailed, fmt.Errorf("read last link: %w", err)
	}

	if lastLink == "" {
		if err = p.links.SetLastLink(ctx, entry.Link); err != nil {
			return domain.Build{}, OutcomeFailed, fmt.Errorf("store baseline link: %w", err)
		}

		p.log.InfoContext(ctx, "Baseline link is stored",
			"link", entry.Link)

		return domain.Build{}, OutcomeBaseline, nil
	}

	if lastLink == entry.Link {
		return domain.Build{}, OutcomeUnchanged, nil
	}

	number := feed.BuildNumber(entry.Link)
	if number == "" {
		p.log.WarnContext(ctx, "Feed entry has no build number",
			"link", entry.Link,
			"title", entry.Title)

		return domain.Build{}, OutcomeNoBuildNumber, nil
	}

	ring, platform := feed.Classify(entry.Description, entry.Link)

	if err = p.links.SetLastLink(ctx, entry.Link); err != nil {
		return domain.Build{}, OutcomeFailed, fmt.Errorf("store last link: %w", err)
	}

	build := domain.Build{
		Number:     number,
		Ring:       ring,
		Platform:   platform,
		Entry:      entry,
		DetectedAt: p.now(),
	}
	build.Summary = p.summarize(ctx, entry)

	p.log.InfoContext(ctx, "New build is detected",
		"build", build.Number,
		"ring", build.Ring.String(),
		"platform", build.Platform.String(),
		"link", entry.Link)

	metrics.LastAnnouncement.Set(float64(build.DetectedAt.Unix()))

	for _, announcer := range p.announcers {
		if err = announcer.Announce(ctx, build); err != nil {
			p.log.ErrorContext(ctx, "Failed to announce build",
				"error", err,
				"announcer", announcer.Name(),
				"build", build.Number)
		}
	}

	return build, OutcomeAnnounced, nil
}

func (p *Poller) summarize(ctx context.Context, entry domain.FeedEntry) string {
	fallback := feed.Truncate(entry.Description, summaryMaxChars)

	if p.summarizer == nil {
		return fallback
	}

	summary, err := p.summarizer.Summarize(ctx, summarizer.Input{
		Title:     entry.Title,
		Text:      entry.Description,
		SourceURL: entry.Link,
	})
	if err != nil {
		p.log.WarnContext(ctx, "Failed to summarize build post",
			"error", err,
			"link", entry.Link)

		return fallback
	}

	if summary == "" {
		return fallback
	}

	return feed.Truncate(summary, summaryMaxChars)
}
