package bot

import (
	"context"
	"time"

	"insiderbot/internal/announce"
	"insiderbot/internal/domain"
	"insiderbot/internal/settings"
)

type RoleResolver interface {
	Role(ctx context.Context, guildID string, kind domain.RoleKind) (string, error)
	SpeakingChannel(ctx context.Context, guildID string) (settings.Channel, error)
}

type BuildLookup interface {
	Enabled() bool
	Latest(ctx context.Context, platform string) ([]domain.Flight, error)
}

// Env is everything command handlers read or change, built once in main.
type Env struct {
	Store      settings.Store
	Links      settings.LinkStore
	Resolver   RoleResolver
	PollStatus func() announce.Status
	Builds     BuildLookup
	Version    string
	StartedAt  time.Time
	Prefix     string
	ReplyDelay time.Duration
	InviteURL  string
	SourceURL  string
	Now        func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}

	return e.Now()
}
