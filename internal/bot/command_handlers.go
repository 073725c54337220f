package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"insiderbot/internal/announce"
	"insiderbot/internal/buildinfo"
	"insiderbot/internal/domain"
	"insiderbot/internal/feed"
)

const (
	insiderText = "The Windows Insider Program lets you try Windows builds before they ship and tell " +
		"Microsoft what you think. Sign up at https://insider.windows.com/"
	ringsText = "Insider builds flow through rings:\n" +
		"**Fast**: the newest builds, roughly weekly, with more bugs.\n" +
		"**Slow**: builds that were stable enough in Fast.\n" +
		"**Release Preview**: the next feature update and fixes, close to release.\n" +
		"**Skip Ahead**: builds from the feature update after the next one, for a limited group of Fast Insiders."
	fastText = "The Fast ring gets new builds first, usually weekly. Expect bugs and occasional " +
		"blocking issues."
	slowText = "The Slow ring gets builds after they proved stable in Fast. Fewer bugs, fewer " +
		"builds."
	skipText = "Skip Ahead is a subset of the Fast ring that receives builds from the next-next " +
		"feature update. Slots are limited and open only occasionally."
	releasePreviewText = "The Release Preview ring gets the upcoming feature update and quality " +
		"fixes shortly before general release. It is the safest ring."
	feedbackText = "Send feedback with the Feedback Hub app (Win+F). Upvote existing entries " +
		"instead of filing duplicates."
	bugsText = "Every build post lists its known issues at the bottom. Report new bugs through " +
		"the Feedback Hub."
	isoText = "Insider Preview ISOs are published at " +
		"https://www.microsoft.com/software-download/windowsinsiderpreviewiso"
	leaveText = "To stop getting Insider builds, open Settings > Update & Security > Windows " +
		"Insider Program and choose \"Stop Insider Preview builds\". Going back to a release build " +
		"may require a clean install."
	aboutText = "insiderbot %s announces new Windows Insider builds as soon as they are " +
		"published. Serving %d servers. Use `%shelp` for commands."

	invitePermissions = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionEmbedLinks |
		discordgo.PermissionManageRoles |
		discordgo.PermissionChangeNickname
)

func textCommand(text string) func(*Bot, context.Context, Request) error {
	return func(b *Bot, ctx context.Context, req Request) error {
		return b.reply(ctx, req, text)
	}
}

func (b *Bot) handleHelpCommand(ctx context.Context, req Request) error {
	names := make([]string, 0, len(b.commands))
	for name, cmd := range b.commands {
		if !cmd.hidden {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	var message strings.Builder
	message.WriteString("**Commands**\n")

	for _, name := range names {
		fmt.Fprintf(&message, "`%s%s`: %s\n", b.env.Prefix, name, b.commands[name].help)
	}

	return b.reply(ctx, req, strings.TrimSuffix(message.String(), "\n"))
}

func (b *Bot) handlePingCommand(ctx context.Context, req Request) error {
	return b.reply(ctx, req, "Pong!")
}

func (b *Bot) handleAboutCommand(ctx context.Context, req Request) error {
	return b.reply(ctx, req, fmt.Sprintf(aboutText, b.env.Version, b.chat.GuildCount(), b.env.Prefix))
}

func (b *Bot) handleUptimeCommand(ctx context.Context, req Request) error {
	uptime := b.env.now().Sub(b.env.StartedAt).Round(time.Second)

	return b.reply(ctx, req, "I've been up for "+uptime.String()+".")
}

func (b *Bot) handleStatusCommand(ctx context.Context, req Request) error {
	if b.env.PollStatus == nil {
		return b.reply(ctx, req, "Feed polling is not running.")
	}

	status := b.env.PollStatus()
	if status.LastPoll.IsZero() {
		return b.reply(ctx, req, "I haven't checked the feed yet.")
	}

	var message strings.Builder
	fmt.Fprintf(&message, "Last feed check: <t:%d:R> (%s).", status.LastPoll.Unix(), describeOutcome(status.LastOutcome))

	if status.LastBuild.Number != "" {
		fmt.Fprintf(&message, "\nLast announced build: %s%s%s, <t:%d:R>.",
			status.LastBuild.Number,
			status.LastBuild.Ring.Suffix(),
			status.LastBuild.Platform.Suffix(),
			status.LastBuild.DetectedAt.Unix())
	}

	if !b.chat.Connected() {
		message.WriteString("\nI'm currently reconnecting to Discord.")
	}

	return b.reply(ctx, req, message.String())
}

func describeOutcome(outcome announce.Outcome) string {
	switch outcome {
	case announce.OutcomeAnnounced:
		return "new build announced"
	case announce.OutcomeUnchanged:
		return "no new builds"
	case announce.OutcomeBaseline:
		return "first check, nothing announced"
	case announce.OutcomeNoEntry:
		return "no build posts in the feed"
	case announce.OutcomeNoBuildNumber:
		return "post without a build number"
	case announce.OutcomeFailed:
		return "check failed"
	default:
		return "unknown"
	}
}

func (b *Bot) handleLatestCommand(ctx context.Context, req Request) error {
	if b.env.PollStatus != nil {
		if build := b.env.PollStatus().LastBuild; build.Number != "" {
			return b.reply(ctx, req, fmt.Sprintf("The latest build is %s%s%s.\n%s",
				build.Number, build.Ring.Suffix(), build.Platform.Suffix(), build.Entry.Link))
		}
	}

	link, err := b.env.Links.LastLink(ctx)
	if err != nil {
		return fmt.Errorf("get last link: %w", err)
	}

	if link == "" {
		return b.reply(ctx, req, "I haven't seen any builds yet.")
	}

	if number := feed.BuildNumber(link); number != "" {
		return b.reply(ctx, req, fmt.Sprintf("The latest build is %s.\n%s", number, link))
	}

	return b.reply(ctx, req, "The latest build post: "+link)
}

func (b *Bot) handleBuildCommand(ctx context.Context, req Request) error {
	platform := "pc"
	if len(req.Args) > 0 {
		platform = strings.ToLower(req.Args[0])
	}

	if platform != "pc" && platform != "server" {
		return &UserError{Message: fmt.Sprintf("Usage: `%sbuild [pc|server]`", b.env.Prefix)}
	}

	if b.env.Builds == nil || !b.env.Builds.Enabled() {
		return b.handleLatestCommand(ctx, req)
	}

	flights, err := b.env.Builds.Latest(ctx, platform)
	if errors.Is(err, buildinfo.ErrDisabled) {
		return b.handleLatestCommand(ctx, req)
	}
	if err != nil {
		return &UserError{Message: "I couldn't reach the build service. Try again later.", Err: err}
	}

	if len(flights) == 0 {
		return b.reply(ctx, req, "No flights are known for "+platformLabel(platform)+".")
	}

	embed := &discordgo.MessageEmbed{
		Title:  "Current " + platformLabel(platform) + " flights",
		Fields: make([]*discordgo.MessageEmbedField, 0, len(flights)),
	}

	for _, flight := range flights {
		embed.Fields = append(embed.Fields, flightField(flight))
	}

	return b.replyEmbed(ctx, req, embed)
}

func flightField(flight domain.Flight) *discordgo.MessageEmbedField {
	value := flight.Build
	if flight.Date != "" {
		value += " (" + flight.Date + ")"
	}

	return &discordgo.MessageEmbedField{
		Name:   capitalize(flight.Ring),
		Value:  value,
		Inline: true,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

func platformLabel(platform string) string {
	if platform == "server" {
		return "Server"
	}

	return "PC"
}

func (b *Bot) handleSubscribeCommand(ctx context.Context, req Request) error {
	roleID, err := b.subscriptionRole(ctx, req)
	if err != nil {
		return err
	}

	if err = b.chat.AddMemberRole(ctx, req.GuildID, req.AuthorID, roleID); err != nil {
		return &UserError{Message: "I couldn't give you the role. Is it above my own role?", Err: err}
	}

	return b.reply(ctx, req, fmt.Sprintf("You'll now be pinged for new builds. Use `%sunsubscribe` to stop.", b.env.Prefix))
}

func (b *Bot) handleUnsubscribeCommand(ctx context.Context, req Request) error {
	roleID, err := b.subscriptionRole(ctx, req)
	if err != nil {
		return err
	}

	if err = b.chat.RemoveMemberRole(ctx, req.GuildID, req.AuthorID, roleID); err != nil {
		return &UserError{Message: "I couldn't remove the role. Is it above my own role?", Err: err}
	}

	return b.reply(ctx, req, "You won't be pinged for new builds anymore.")
}

func (b *Bot) subscriptionRole(ctx context.Context, req Request) (string, error) {
	roleID, err := b.env.Resolver.Role(ctx, req.GuildID, domain.RolePrimary)
	if err != nil {
		return "", fmt.Errorf("resolve primary role: %w", err)
	}

	if roleID == "" {
		return "", &UserError{Message: "This server has no announcement role set up."}
	}

	if err = b.authorize(ctx, req, needManageRoles, "manage roles"); err != nil {
		return "", err
	}

	return roleID, nil
}

func (b *Bot) handleInviteCommand(ctx context.Context, req Request) error {
	if b.env.InviteURL != "" {
		return b.reply(ctx, req, b.env.InviteURL)
	}

	botID := b.chat.BotUserID()
	if botID == "" {
		return &UserError{Message: "I can't build an invite link right now."}
	}

	return b.reply(ctx, req, fmt.Sprintf(
		"https://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=%d", botID, invitePermissions))
}

func (b *Bot) handleSourceCommand(ctx context.Context, req Request) error {
	if b.env.SourceURL == "" {
		return b.reply(ctx, req, "My source isn't published.")
	}

	return b.reply(ctx, req, b.env.SourceURL)
}
