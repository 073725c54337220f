package announce_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insiderbot/internal/announce"
	"insiderbot/internal/domain"
	"insiderbot/internal/feed"
	"insiderbot/internal/summarizer"
)

const (
	fastLink   = "https://blogs.windows.com/windows-insider/2019/05/01/announcing-windows-10-insider-preview-build-18890/"
	serverLink = "https://blogs.windows.com/windows-insider/2019/05/07/announcing-windows-server-insider-preview-build-18895/"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	entries []domain.FeedEntry
	err     error
}

func (s *fakeSource) Entries(context.Context) ([]domain.FeedEntry, error) {
	return s.entries, s.err
}

type memoryLinks struct {
	mu     sync.Mutex
	link   string
	setErr error
	writes int
}

func (l *memoryLinks) LastLink(context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.link, nil
}

func (l *memoryLinks) SetLastLink(_ context.Context, link string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.setErr != nil {
		return l.setErr
	}

	l.link = link
	l.writes++

	return nil
}

type recordingAnnouncer struct {
	name   string
	err    error
	builds []domain.Build
}

func (a *recordingAnnouncer) Name() string { return a.name }

func (a *recordingAnnouncer) Announce(_ context.Context, build domain.Build) error {
	a.builds = append(a.builds, build)
	return a.err
}

type stubSummarizer struct {
	summary string
	err     error
}

func (s stubSummarizer) Summarize(context.Context, summarizer.Input) (string, error) {
	return s.summary, s.err
}

func fixedClock() func() time.Time {
	at := time.Date(2019, 5, 1, 17, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func fastEntry() domain.FeedEntry {
	return domain.FeedEntry{
		Link:        fastLink,
		Title:       "Announcing Windows 10 Insider Preview Build 18890",
		Description: "Hello Windows Insiders, today we are releasing Build 18890 to Windows Insiders in the Fast ring.",
	}
}

func TestPollColdStartStoresBaselineOnly(t *testing.T) {
	source := &fakeSource{entries: []domain.FeedEntry{fastEntry()}}
	links := &memoryLinks{}
	announcer := &recordingAnnouncer{name: "test"}

	p := announce.NewPoller(source, links, feed.BuildTypeAny, discardLogger(),
		announce.WithAnnouncers(announcer), announce.WithClock(fixedClock()))

	outcome, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, announce.OutcomeBaseline, outcome)
	assert.Equal(t, fastLink, links.link)
	assert.Empty(t, announcer.builds)
}

func TestPollAnnouncesOnce(t *testing.T) {
	source := &fakeSource{entries: []domain.FeedEntry{fastEntry()}}
	links := &memoryLinks{link: "https://blogs.windows.com/windows-insider/2019/04/24/announcing-windows-10-insider-preview-build-18885/"}
	announcer := &recordingAnnouncer{name: "test"}

	p := announce.NewPoller(source, links, feed.BuildTypeAny, discardLogger(),
		announce.WithAnnouncers(announcer), announce.WithClock(fixedClock()))

	outcome, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, announce.OutcomeAnnounced, outcome)

	outcome, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, announce.OutcomeUnchanged, outcome)

	require.Len(t, announcer.builds, 1)

	build := announcer.builds[0]
	assert.Equal(t, "18890", build.Number)
	assert.Equal(t, domain.RingFast, build.Ring)
	assert.Equal(t, domain.PlatformPC, build.Platform)
	assert.Equal(t, fastLink, links.link)
	assert.NotEmpty(t, build.Summary)

	status := p.Status()
	assert.Equal(t, announce.OutcomeUnchanged, status.LastOutcome)
	assert.Equal(t, fixedClock()(), status.LastPoll)
	assert.Equal(t, "18890", status.LastBuild.Number)
}

func TestPollNoMatchingEntry(t *testing.T) {
	source := &fakeSource{entries: []domain.FeedEntry{fastEntry()}}
	links := &memoryLinks{link: "old"}

	p := announce.NewPoller(source, links, feed.BuildTypeServer, discardLogger())

	outcome, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, announce.OutcomeNoEntry, outcome)
	assert.Equal(t, "old", links.link)
}

func TestPollNoBuildNumberKeepsLink(t *testing.T) {
	entry := domain.FeedEntry{
		Link:  "https://blogs.windows.com/windows-insider/insider-preview-build-notes/",
		Title: "Insider Preview Build notes",
	}
	source := &fakeSource{entries: []domain.FeedEntry{entry}}
	links := &memoryLinks{link: "old"}
	announcer := &recordingAnnouncer{name: "test"}

	p := announce.NewPoller(source, links, feed.BuildTypeAny, discardLogger(),
		announce.WithAnnouncers(announcer))

	outcome, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, announce.OutcomeNoBuildNumber, outcome)
	assert.Equal(t, "old", links.link)
	assert.Empty(t, announcer.builds)
}

func TestPollFetchError(t *testing.T) {
	source := &fakeSource{err: errors.New("boom")}
	p := announce.NewPoller(source, &memoryLinks{}, feed.BuildTypeAny, discardLogger())

	outcome, err := p.Poll(context.Background())
	require.Error(t, err)
	assert.Equal(t, announce.OutcomeFailed, outcome)
	assert.Equal(t, announce.OutcomeFailed, p.Status().LastOutcome)
	assert.Error(t, p.Status().LastError)
}

func TestPollPersistErrorAbortsFanOut(t *testing.T) {
	source := &fakeSource{entries: []domain.FeedEntry{fastEntry()}}
	links := &memoryLinks{link: "old", setErr: errors.New("disk full")}
	announcer := &recordingAnnouncer{name: "test"}

	p := announce.NewPoller(source, links, feed.BuildTypeAny, discardLogger(),
		announce.WithAnnouncers(announcer))

	_, err := p.Poll(context.Background())
	require.Error(t, err)
	assert.Empty(t, announcer.builds)
}

func TestPollAnnouncerErrorDoesNotStopOthers(t *testing.T) {
	source := &fakeSource{entries: []domain.FeedEntry{fastEntry()}}
	links := &memoryLinks{link: "old"}
	failing := &recordingAnnouncer{name: "failing", err: errors.New("unreachable")}
	ok := &recordingAnnouncer{name: "ok"}

	p := announce.NewPoller(source, links, feed.BuildTypeAny, discardLogger(),
		announce.WithAnnouncers(failing, ok))

	outcome, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, announce.OutcomeAnnounced, outcome)
	assert.Len(t, failing.builds, 1)
	assert.Len(t, ok.builds, 1)
}

func TestPollUsesSummarizer(t *testing.T) {
	source := &fakeSource{entries: []domain.FeedEntry{fastEntry()}}
	announcer := &recordingAnnouncer{name: "test"}

	p := announce.NewPoller(source, &memoryLinks{link: "old"}, feed.BuildTypeAny, discardLogger(),
		announce.WithAnnouncers(announcer),
		announce.WithSummarizer(stubSummarizer{summary: "Adds dark mode."}))

	_, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, announcer.builds, 1)
	assert.Equal(t, "Adds dark mode.", announcer.builds[0].Summary)
}

func TestPollSummarizerErrorFallsBackToDescription(t *testing.T) {
	source := &fakeSource{entries: []domain.FeedEntry{fastEntry()}}
	announcer := &recordingAnnouncer{name: "test"}

	p := announce.NewPoller(source, &memoryLinks{link: "old"}, feed.BuildTypeAny, discardLogger(),
		announce.WithAnnouncers(announcer),
		announce.WithSummarizer(stubSummarizer{err: errors.New("quota")}))

	_, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, announcer.builds, 1)
	assert.Equal(t, fastEntry().Description, announcer.builds[0].Summary)
}

func TestPollServerBuild(t *testing.T) {
	entry := domain.FeedEntry{
		Link:  serverLink,
		Title: "Announcing Windows Server Insider Preview Build 18895",
	}
	announcer := &recordingAnnouncer{name: "test"}

	p := announce.NewPoller(&fakeSource{entries: []domain.FeedEntry{entry}}, &memoryLinks{link: "old"},
		feed.BuildTypeServer, discardLogger(), announce.WithAnnouncers(announcer))

	_, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, announcer.builds, 1)
	assert.Equal(t, domain.PlatformServer, announcer.builds[0].Platform)
	assert.Equal(t, "18895", announcer.builds[0].Number)
}
