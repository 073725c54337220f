// Package settings persists per-guild configuration and the last announced link,
// and resolves stored ids against what the chat platform still knows about.
package settings

import (
	"context"
	"errors"

	"insiderbot/internal/domain"
)

var ErrUnknownRoleKind = errors.New("unknown role kind")

// Store is the per-guild settings persistence. Get never fails for an unknown guild;
// it returns a zero GuildSetting with only GuildID set.
type Store interface {
	Get(ctx context.Context, guildID int64) (domain.GuildSetting, error)
	SetChannel(ctx context.Context, guildID, channelID int64) error
	DisableChannel(ctx context.Context, guildID int64) error
	ClearChannel(ctx context.Context, guildID int64) error
	SetRole(ctx context.Context, guildID int64, kind domain.RoleKind, roleID int64) error
	ClearRole(ctx context.Context, guildID int64, kind domain.RoleKind) error
	Close() error
}

// LinkStore holds the single last announced link.
type LinkStore interface {
	LastLink(ctx context.Context) (string, error)
	SetLastLink(ctx context.Context, link string) error
}

func validRoleKind(kind domain.RoleKind) error {
	if _, ok := domain.ParseRoleKind(string(kind)); !ok {
		return ErrUnknownRoleKind
	}

	return nil
}
