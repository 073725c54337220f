package announce

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"insiderbot/internal/domain"
	"insiderbot/internal/metrics"
	"insiderbot/internal/settings"
)

const discordChannel = "discord"

// Platform is what the dispatcher needs from the chat platform. Ids are the
// platform's native string snowflakes.
type Platform interface {
	GuildIDs() []string
	CanSend(channelID string) bool
	CanManageRoles(channelID string) bool
	// RoleMentionable reports whether the role is mentionable and whether it exists.
	RoleMentionable(guildID, roleID string) (mentionable bool, ok bool)
	SetRoleMentionable(ctx context.Context, guildID, roleID string, mentionable bool) error
	Send(ctx context.Context, channelID, content string) error
}

type ChannelResolver interface {
	SpeakingChannel(ctx context.Context, guildID string) (settings.Channel, error)
	Role(ctx context.Context, guildID string, kind domain.RoleKind) (string, error)
}

type guildOutcome int

const (
	guildSent guildOutcome = iota
	guildSkipped
	guildFailed
)

// Result counts what happened across one fan-out.
type Result struct {
	Sent    int
	Skipped int
	Failed  int
}

// Dispatcher fans a build announcement out to every connected guild.
type Dispatcher struct {
	platform Platform
	resolver ChannelResolver
	pick     Picker
	log      *slog.Logger
}

func NewDispatcher(platform Platform, resolver ChannelResolver, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		platform: platform,
		resolver: resolver,
		pick:     rand.IntN,
		log:      log,
	}
}

// WithPicker replaces the random phrasing picker.
func (d *Dispatcher) WithPicker(pick Picker) *Dispatcher {
	d.pick = pick
	return d
}

func (d *Dispatcher) Name() string {
	return discordChannel
}

// Announce never fails because of a single guild; it only returns ctx errors.
func (d *Dispatcher) Announce(ctx context.Context, build domain.Build) error {
	_, err := d.Dispatch(ctx, build)
	return err
}

func (d *Dispatcher) Dispatch(ctx context.Context, build domain.Build) (Result, error) {
	var result Result

	for _, guildID := range d.platform.GuildIDs() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		switch d.announceGuild(ctx, guildID, build) {
		case guildSent:
			result.Sent++
			metrics.AnnouncementsTotal.WithLabelValues(discordChannel, metrics.ResultSent).Inc()
		case guildSkipped:
			result.Skipped++
			metrics.AnnouncementsTotal.WithLabelValues(discordChannel, metrics.ResultSkipped).Inc()
		case guildFailed:
			result.Failed++
			metrics.AnnouncementsTotal.WithLabelValues(discordChannel, metrics.ResultFailed).Inc()
		}
	}

	d.log.InfoContext(ctx, "Build is dispatched to guilds",
		"build", build.Number,
		"ring", build.Ring.String(),
		"platform", build.Platform.String(),
		"sent", result.Sent,
		"skipped", result.Skipped,
		"failed", result.Failed)

	return result, nil
}

func (d *Dispatcher) announceGuild(ctx context.Context, guildID string, build domain.Build) guildOutcome {
	channel, err := d.resolver.SpeakingChannel(ctx, guildID)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to resolve speaking channel",
			"error", err,
			"guildID", guildID)

		return guildFailed
	}

	if channel.Disabled {
		return guildSkipped
	}

	if channel.ID == "" {
		d.log.WarnContext(ctx, "Guild has no usable speaking channel",
			"guildID", guildID)

		return guildSkipped
	}

	if !d.platform.CanSend(channel.ID) {
		d.log.WarnContext(ctx, "Missing permission to send announcement",
			"guildID", guildID,
			"channelID", channel.ID,
			"fallback", channel.Fallback)

		return guildSkipped
	}

	roleID := d.mentionRole(ctx, guildID, build)
	content := FormatMessage(build, RoleMention(roleID), d.pick)

	restore := false
	if roleID != "" {
		restore = d.ensureMentionable(ctx, guildID, channel.ID, roleID)
	}

	sendErr := d.platform.Send(ctx, channel.ID, content)

	if restore {
		if err = d.platform.SetRoleMentionable(ctx, guildID, roleID, false); err != nil {
			d.log.WarnContext(ctx, "Failed to restore role mentionability",
				"error", err,
				"guildID", guildID,
				"roleID", roleID)
		}
	}

	if sendErr != nil {
		d.log.ErrorContext(ctx, "Failed to send announcement",
			"error", sendErr,
			"guildID", guildID,
			"channelID", channel.ID,
			"build", build.Number)

		return guildFailed
	}

	return guildSent
}

func (d *Dispatcher) mentionRole(ctx context.Context, guildID string, build domain.Build) string {
	for _, kind := range MentionRoleKinds(build) {
		roleID, err := d.resolver.Role(ctx, guildID, kind)
		if err != nil {
			d.log.WarnContext(ctx, "Failed to resolve mention role",
				"error", err,
				"guildID", guildID,
				"kind", kind)

			continue
		}

		if roleID != "" {
			return roleID
		}
	}

	return ""
}

// ensureMentionable flips the role mentionable when needed and possible. It reports
// whether the role must be flipped back after sending.
func (d *Dispatcher) ensureMentionable(ctx context.Context, guildID, channelID, roleID string) bool {
	mentionable, ok := d.platform.RoleMentionable(guildID, roleID)
	if !ok || mentionable {
		return false
	}

	if !d.platform.CanManageRoles(channelID) {
		d.log.DebugContext(ctx, "Role is not mentionable and cannot be changed",
			"guildID", guildID,
			"roleID", roleID)

		return false
	}

	if err := d.platform.SetRoleMentionable(ctx, guildID, roleID, true); err != nil {
		d.log.WarnContext(ctx, "Failed to make role mentionable",
			"error", err,
			"guildID", guildID,
			"roleID", roleID)

		return false
	}

	return true
}
