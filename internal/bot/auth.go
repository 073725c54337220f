package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type Authorization int

const (
	Allowed Authorization = iota
	DeniedUser
	DeniedBot
)

func (a Authorization) String() string {
	switch a {
	case Allowed:
		return "allowed"
	case DeniedUser:
		return "denied_user"
	case DeniedBot:
		return "denied_bot"
	default:
		return "unknown"
	}
}

// Need lists the permission bits the invoking user and the bot must both hold.
type Need struct {
	User int64
	Bot  int64
}

var (
	needManageServer = Need{User: discordgo.PermissionManageGuild}
	needNickname     = Need{
		User: discordgo.PermissionManageNicknames,
		Bot:  discordgo.PermissionChangeNickname,
	}
	needManageRoles = Need{Bot: discordgo.PermissionManageRoles}
)

// Authorize checks both sides of a privileged command. The user is checked first.
func Authorize(userPerms, botPerms int64, need Need) Authorization {
	if !hasPermissions(userPerms, need.User) {
		return DeniedUser
	}

	if !hasPermissions(botPerms, need.Bot) {
		return DeniedBot
	}

	return Allowed
}

func hasPermissions(perms, need int64) bool {
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}

	return perms&need == need
}

// authorize resolves permissions for the request and turns denials into user errors.
func (b *Bot) authorize(ctx context.Context, req Request, need Need, action string) error {
	var userPerms, botPerms int64

	if need.User != 0 {
		perms, err := b.chat.MemberPermissions(req.ChannelID, req.AuthorID)
		if err != nil {
			return fmt.Errorf("get member permissions: %w", err)
		}

		userPerms = perms
	}

	if need.Bot != 0 {
		perms, err := b.chat.BotPermissions(req.ChannelID)
		if err != nil {
			return fmt.Errorf("get bot permissions: %w", err)
		}

		botPerms = perms
	}

	switch result := Authorize(userPerms, botPerms, need); result {
	case DeniedUser:
		b.log.InfoContext(ctx, "Command is denied",
			"reason", result.String(),
			"command", req.Command,
			"guildID", req.GuildID,
			"userID", req.AuthorID)

		return &UserError{Message: "You don't have permission to " + action + "."}
	case DeniedBot:
		b.log.InfoContext(ctx, "Command is denied",
			"reason", result.String(),
			"command", req.Command,
			"guildID", req.GuildID,
			"userID", req.AuthorID)

		return &UserError{Message: "I don't have permission to " + action + " here."}
	default:
		return nil
	}
}
