package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"insiderbot/internal/domain"
)

// Lookup answers what the chat platform currently knows about a guild. Existence
// checks are only meaningful while GuildAvailable reports true.
type Lookup interface {
	GuildAvailable(guildID string) bool
	ChannelExists(guildID, channelID string) bool
	RoleExists(guildID, roleID string) bool
	DefaultChannel(guildID string) (string, bool)
}

// Channel is a resolved speaking channel. An empty ID with Disabled unset means the
// guild has no usable channel at all.
type Channel struct {
	ID       string
	Disabled bool
	Fallback bool
}

// Resolver reads settings and drops stored ids that no longer resolve. Ids of a guild
// that is not loaded yet are returned as stored.
type Resolver struct {
	store  Store
	lookup Lookup
	log    *slog.Logger
}

func NewResolver(store Store, lookup Lookup, log *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		lookup: lookup,
		log:    log,
	}
}

func (r *Resolver) SpeakingChannel(ctx context.Context, guildID string) (Channel, error) {
	gid, err := ParseID(guildID)
	if err != nil {
		return Channel{}, fmt.Errorf("parse guild ID: %w", err)
	}

	setting, err := r.store.Get(ctx, gid)
	if err != nil {
		return Channel{}, fmt.Errorf("get guild setting: %w", err)
	}

	if setting.ChannelDisabled() {
		return Channel{Disabled: true}, nil
	}

	if setting.ChannelConfigured {
		channelID := FormatID(setting.SpeakingChannelID)
		if r.lookup.ChannelExists(guildID, channelID) {
			return Channel{ID: channelID}, nil
		}

		if !r.lookup.GuildAvailable(guildID) {
			return Channel{ID: channelID}, nil
		}

		r.log.WarnContext(ctx, "Configured speaking channel no longer exists",
			"guildID", guildID,
			"channelID", channelID)

		if err = r.store.ClearChannel(ctx, gid); err != nil {
			r.log.ErrorContext(ctx, "Failed to clear stale speaking channel",
				"error", err,
				"guildID", guildID,
				"channelID", channelID)
		}
	}

	defaultID, ok := r.lookup.DefaultChannel(guildID)
	if !ok {
		return Channel{}, nil
	}

	return Channel{ID: defaultID, Fallback: true}, nil
}

// Role returns the configured role of the given kind, or "" when it is unset or gone.
func (r *Resolver) Role(ctx context.Context, guildID string, kind domain.RoleKind) (string, error) {
	gid, err := ParseID(guildID)
	if err != nil {
		return "", fmt.Errorf("parse guild ID: %w", err)
	}

	setting, err := r.store.Get(ctx, gid)
	if err != nil {
		return "", fmt.Errorf("get guild setting: %w", err)
	}

	roleID := setting.RoleID(kind)
	if roleID == 0 {
		return "", nil
	}

	id := FormatID(roleID)
	if r.lookup.RoleExists(guildID, id) || !r.lookup.GuildAvailable(guildID) {
		return id, nil
	}

	r.log.WarnContext(ctx, "Configured role no longer exists",
		"guildID", guildID,
		"roleID", id,
		"kind", kind)

	if err = r.store.ClearRole(ctx, gid, kind); err != nil {
		r.log.ErrorContext(ctx, "Failed to clear stale role",
			"error", err,
			"guildID", guildID,
			"roleID", id,
			"kind", kind)
	}

	return "", nil
}

func ParseID(id string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(id), 10, 64)
}

func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
