package bot

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
)

const selfUserID = "@me"

// Chat is the Discord surface used by command handlers.
type Chat interface {
	SendMessage(ctx context.Context, channelID, content string) error
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
	Typing(ctx context.Context, channelID string) error
	MemberPermissions(channelID, userID string) (int64, error)
	BotPermissions(channelID string) (int64, error)
	ChannelExists(guildID, channelID string) bool
	RoleExists(guildID, roleID string) bool
	DefaultChannel(guildID string) (string, bool)
	Nickname(ctx context.Context, guildID string) (string, error)
	SetNickname(ctx context.Context, guildID, nickname string) error
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error
	GuildCount() int
	BotUserID() string
	Connected() bool
}

// Client adapts a discordgo session to the bot's Chat, the dispatcher's Platform and
// the settings Lookup.
type Client struct {
	session   *discordgo.Session
	connected atomic.Bool
	log       *slog.Logger
}

func NewClient(session *discordgo.Session, log *slog.Logger) *Client {
	c := &Client{
		session: session,
		log:     log,
	}

	session.AddHandler(func(*discordgo.Session, *discordgo.Ready) { c.connected.Store(true) })
	session.AddHandler(func(*discordgo.Session, *discordgo.Resumed) { c.connected.Store(true) })
	session.AddHandler(func(*discordgo.Session, *discordgo.Disconnect) { c.connected.Store(false) })

	return c
}

func (c *Client) Connected() bool {
	return c.connected.Load()
}

func (c *Client) BotUserID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}

	return c.session.State.User.ID
}

func (c *Client) GuildIDs() []string {
	c.session.State.RLock()
	defer c.session.State.RUnlock()

	ids := make([]string, 0, len(c.session.State.Guilds))
	for _, guild := range c.session.State.Guilds {
		if guild.Unavailable {
			continue
		}

		ids = append(ids, guild.ID)
	}

	return ids
}

func (c *Client) GuildCount() int {
	c.session.State.RLock()
	defer c.session.State.RUnlock()

	return len(c.session.State.Guilds)
}

func (c *Client) BotPermissions(channelID string) (int64, error) {
	perms, err := c.session.State.UserChannelPermissions(c.BotUserID(), channelID)
	if err != nil {
		return 0, fmt.Errorf("compute bot permissions: %w", err)
	}

	return perms, nil
}

func (c *Client) MemberPermissions(channelID, userID string) (int64, error) {
	perms, err := c.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		return 0, fmt.Errorf("compute member permissions: %w", err)
	}

	return perms, nil
}

func (c *Client) hasBotPermission(channelID string, need int64) bool {
	perms, err := c.BotPermissions(channelID)
	if err != nil {
		return false
	}

	return hasPermissions(perms, need)
}

func (c *Client) CanSend(channelID string) bool {
	return c.hasBotPermission(channelID, discordgo.PermissionViewChannel|discordgo.PermissionSendMessages)
}

func (c *Client) CanManageRoles(channelID string) bool {
	return c.hasBotPermission(channelID, discordgo.PermissionManageRoles)
}

func (c *Client) RoleMentionable(guildID, roleID string) (bool, bool) {
	role, err := c.session.State.Role(guildID, roleID)
	if err != nil {
		return false, false
	}

	return role.Mentionable, true
}

func (c *Client) SetRoleMentionable(ctx context.Context, guildID, roleID string, mentionable bool) error {
	_, err := c.session.GuildRoleEdit(guildID, roleID, &discordgo.RoleParams{
		Mentionable: &mentionable,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit role: %w", err)
	}

	return nil
}

func (c *Client) Send(ctx context.Context, channelID, content string) error {
	return c.SendMessage(ctx, channelID, content)
}

func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	if _, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func (c *Client) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	if _, err := c.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send embed: %w", err)
	}

	return nil
}

func (c *Client) Typing(ctx context.Context, channelID string) error {
	if err := c.session.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send typing: %w", err)
	}

	return nil
}

// GuildAvailable reports whether the guild's channels and roles are loaded into State.
func (c *Client) GuildAvailable(guildID string) bool {
	guild, err := c.session.State.Guild(guildID)
	if err != nil {
		return false
	}

	return !guild.Unavailable
}

func (c *Client) ChannelExists(guildID, channelID string) bool {
	channel, err := c.session.State.Channel(channelID)
	if err != nil {
		return false
	}

	return channel.GuildID == guildID
}

func (c *Client) RoleExists(guildID, roleID string) bool {
	_, err := c.session.State.Role(guildID, roleID)
	return err == nil
}

// DefaultChannel picks the guild's system channel, or else the top-most text channel
// the bot can send to.
func (c *Client) DefaultChannel(guildID string) (string, bool) {
	guild, err := c.session.State.Guild(guildID)
	if err != nil {
		return "", false
	}

	if guild.SystemChannelID != "" && c.CanSend(guild.SystemChannelID) {
		return guild.SystemChannelID, true
	}

	c.session.State.RLock()
	channels := make([]*discordgo.Channel, 0, len(guild.Channels))
	for _, channel := range guild.Channels {
		if channel.Type == discordgo.ChannelTypeGuildText || channel.Type == discordgo.ChannelTypeGuildNews {
			channels = append(channels, channel)
		}
	}
	c.session.State.RUnlock()

	slices.SortFunc(channels, func(a, b *discordgo.Channel) int {
		return cmp.Compare(a.Position, b.Position)
	})

	for _, channel := range channels {
		if c.CanSend(channel.ID) {
			return channel.ID, true
		}
	}

	return "", false
}

func (c *Client) Nickname(ctx context.Context, guildID string) (string, error) {
	if member, err := c.session.State.Member(guildID, c.BotUserID()); err == nil {
		return member.Nick, nil
	}

	member, err := c.session.GuildMember(guildID, c.BotUserID(), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("get bot member: %w", err)
	}

	return member.Nick, nil
}

func (c *Client) SetNickname(ctx context.Context, guildID, nickname string) error {
	if err := c.session.GuildMemberNickname(guildID, selfUserID, nickname, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("set nickname: %w", err)
	}

	return nil
}

func (c *Client) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add member role: %w", err)
	}

	return nil
}

func (c *Client) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("remove member role: %w", err)
	}

	return nil
}
