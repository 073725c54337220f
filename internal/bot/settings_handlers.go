package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"insiderbot/internal/domain"
	"insiderbot/internal/settings"
)

const (
	maxNicknameLength  = 32
	settingsEmbedColor = 0x0078D7
)

func (b *Bot) handleSettingsCommand(ctx context.Context, req Request) error {
	if len(req.Args) == 0 {
		return b.handleSettingsOverview(ctx, req)
	}

	sub := strings.ToLower(req.Args[0])
	rest := req.Args[1:]

	switch sub {
	case "channel":
		return b.handleChannelSetting(ctx, req, rest)
	case "nickname", "nick":
		return b.handleNicknameSetting(ctx, req, rest)
	case "role":
		return b.handleRoleSetting(ctx, req, rest)
	default:
		return &UserError{Message: b.settingsUsage()}
	}
}

func (b *Bot) settingsUsage() string {
	p := b.env.Prefix

	return fmt.Sprintf("Usage:\n"+
		"`%[1]ssettings`\n"+
		"`%[1]ssettings channel [get | set <#channel> | disable | reset]`\n"+
		"`%[1]ssettings nickname [get | set <name> | reset]`\n"+
		"`%[1]ssettings role <primary|skip|slow|jumbo> [get | set <@role> | disable]`", p)
}

func parseGuildID(guildID string) (int64, error) {
	gid, err := settings.ParseID(guildID)
	if err != nil {
		return 0, fmt.Errorf("parse guild ID: %w", err)
	}

	return gid, nil
}

func (b *Bot) handleSettingsOverview(ctx context.Context, req Request) error {
	channel, err := b.describeChannel(ctx, req.GuildID)
	if err != nil {
		return err
	}

	nickname, err := b.chat.Nickname(ctx, req.GuildID)
	if err != nil {
		return fmt.Errorf("get nickname: %w", err)
	}

	if nickname == "" {
		nickname = "not set"
	}

	embed := &discordgo.MessageEmbed{
		Title: "Settings",
		Color: settingsEmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: channel},
			{Name: "Nickname", Value: nickname},
		},
	}

	for _, kind := range domain.RoleKinds {
		roleID, err := b.env.Resolver.Role(ctx, req.GuildID, kind)
		if err != nil {
			return fmt.Errorf("resolve %s role: %w", kind, err)
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   capitalize(string(kind)) + " role",
			Value:  describeRole(roleID),
			Inline: true,
		})
	}

	return b.replyEmbed(ctx, req, embed)
}

func (b *Bot) describeChannel(ctx context.Context, guildID string) (string, error) {
	channel, err := b.env.Resolver.SpeakingChannel(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("resolve speaking channel: %w", err)
	}

	switch {
	case channel.Disabled:
		return "announcements are disabled", nil
	case channel.ID == "":
		return "no channel I can speak in", nil
	case channel.Fallback:
		return "<#" + channel.ID + "> (default)", nil
	default:
		return "<#" + channel.ID + ">", nil
	}
}

func describeRole(roleID string) string {
	if roleID == "" {
		return "none"
	}

	return "<@&" + roleID + ">"
}

func (b *Bot) handleChannelSetting(ctx context.Context, req Request, args []string) error {
	action := "get"
	if len(args) > 0 {
		action = strings.ToLower(args[0])
	}

	if action == "get" {
		channel, err := b.describeChannel(ctx, req.GuildID)
		if err != nil {
			return err
		}

		return b.reply(ctx, req, "Announcement channel: "+channel)
	}

	if err := b.authorize(ctx, req, needManageServer, "change settings"); err != nil {
		return err
	}

	gid, err := parseGuildID(req.GuildID)
	if err != nil {
		return err
	}

	switch action {
	case "set":
		if len(args) < 2 {
			return &UserError{Message: fmt.Sprintf("Usage: `%ssettings channel set <#channel>`", b.env.Prefix)}
		}

		channelID, ok := parseMention(args[1], "<#", ">")
		if !ok || !b.chat.ChannelExists(req.GuildID, channelID) {
			return &UserError{Message: "I can't find that channel in this server."}
		}

		perms, err := b.chat.BotPermissions(channelID)
		if err != nil {
			return fmt.Errorf("get bot permissions: %w", err)
		}

		if !hasPermissions(perms, discordgo.PermissionViewChannel|discordgo.PermissionSendMessages) {
			return &UserError{Message: "I can't send messages in <#" + channelID + ">."}
		}

		cid, err := settings.ParseID(channelID)
		if err != nil {
			return fmt.Errorf("parse channel ID: %w", err)
		}

		if err = b.env.Store.SetChannel(ctx, gid, cid); err != nil {
			return fmt.Errorf("set channel: %w", err)
		}

		return b.reply(ctx, req, "New builds will be announced in <#"+channelID+">.")

	case "disable":
		if err = b.env.Store.DisableChannel(ctx, gid); err != nil {
			return fmt.Errorf("disable channel: %w", err)
		}

		return b.reply(ctx, req, "Build announcements are disabled for this server.")

	case "reset":
		if err = b.env.Store.ClearChannel(ctx, gid); err != nil {
			return fmt.Errorf("clear channel: %w", err)
		}

		return b.reply(ctx, req, "Build announcements will go to the default channel.")

	default:
		return &UserError{Message: b.settingsUsage()}
	}
}

func (b *Bot) handleNicknameSetting(ctx context.Context, req Request, args []string) error {
	action := "get"
	if len(args) > 0 {
		action = strings.ToLower(args[0])
	}

	if action == "get" {
		nickname, err := b.chat.Nickname(ctx, req.GuildID)
		if err != nil {
			return fmt.Errorf("get nickname: %w", err)
		}

		if nickname == "" {
			return b.reply(ctx, req, "I don't have a nickname here.")
		}

		return b.reply(ctx, req, "My nickname here is "+nickname+".")
	}

	if err := b.authorize(ctx, req, needNickname, "change my nickname"); err != nil {
		return err
	}

	switch action {
	case "set":
		nickname := strings.TrimSpace(strings.Join(args[1:], " "))
		if nickname == "" {
			return &UserError{Message: fmt.Sprintf("Usage: `%ssettings nickname set <name>`", b.env.Prefix)}
		}

		if utf8.RuneCountInString(nickname) > maxNicknameLength {
			return &UserError{Message: fmt.Sprintf("Nicknames can be at most %d characters.", maxNicknameLength)}
		}

		if err := b.chat.SetNickname(ctx, req.GuildID, nickname); err != nil {
			return &UserError{Message: "I couldn't change my nickname.", Err: err}
		}

		return b.reply(ctx, req, "Call me "+nickname+" from now on.")

	case "reset":
		if err := b.chat.SetNickname(ctx, req.GuildID, ""); err != nil {
			return &UserError{Message: "I couldn't reset my nickname.", Err: err}
		}

		return b.reply(ctx, req, "My nickname is reset.")

	default:
		return &UserError{Message: b.settingsUsage()}
	}
}

func (b *Bot) handleRoleSetting(ctx context.Context, req Request, args []string) error {
	if len(args) == 0 {
		return &UserError{Message: b.settingsUsage()}
	}

	kind, ok := domain.ParseRoleKind(strings.ToLower(args[0]))
	if !ok {
		return &UserError{Message: "Role kinds are primary, skip, slow and jumbo."}
	}

	action := "get"
	if len(args) > 1 {
		action = strings.ToLower(args[1])
	}

	if action == "get" {
		roleID, err := b.env.Resolver.Role(ctx, req.GuildID, kind)
		if err != nil {
			return fmt.Errorf("resolve %s role: %w", kind, err)
		}

		return b.reply(ctx, req, capitalize(string(kind))+" role: "+describeRole(roleID))
	}

	if err := b.authorize(ctx, req, needManageServer, "change settings"); err != nil {
		return err
	}

	gid, err := parseGuildID(req.GuildID)
	if err != nil {
		return err
	}

	switch action {
	case "set":
		if len(args) < 3 {
			return &UserError{Message: fmt.Sprintf("Usage: `%ssettings role %s set <@role>`", b.env.Prefix, kind)}
		}

		roleID, ok := parseMention(args[2], "<@&", ">")
		if !ok || !b.chat.RoleExists(req.GuildID, roleID) {
			return &UserError{Message: "I can't find that role in this server."}
		}

		rid, err := settings.ParseID(roleID)
		if err != nil {
			return fmt.Errorf("parse role ID: %w", err)
		}

		if err = b.env.Store.SetRole(ctx, gid, kind, rid); err != nil {
			return fmt.Errorf("set %s role: %w", kind, err)
		}

		return b.reply(ctx, req, capitalize(string(kind))+" role is now "+describeRole(roleID)+".")

	case "disable", "reset":
		if err = b.env.Store.ClearRole(ctx, gid, kind); err != nil {
			return fmt.Errorf("clear %s role: %w", kind, err)
		}

		return b.reply(ctx, req, capitalize(string(kind))+" role is disabled.")

	default:
		return &UserError{Message: b.settingsUsage()}
	}
}

// parseMention accepts either a mention such as <#123> or a bare snowflake.
func parseMention(arg, prefix, suffix string) (string, bool) {
	id := strings.TrimSpace(arg)

	if inner, ok := strings.CutPrefix(id, prefix); ok {
		id, ok = strings.CutSuffix(inner, suffix)
		if !ok {
			return "", false
		}
	}

	if id == "" {
		return "", false
	}

	for _, r := range id {
		if r < '0' || r > '9' {
			return "", false
		}
	}

	return id, true
}
