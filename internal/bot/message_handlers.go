package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"insiderbot/internal/metrics"
)

const (
	resultOK        = "ok"
	resultUserError = "user_error"
	resultError     = "error"
)

// Message is an inbound chat message, stripped of discordgo types.
type Message struct {
	GuildID   string
	ChannelID string
	AuthorID  string
	AuthorBot bool
	Content   string
}

// Request is a parsed command invocation.
type Request struct {
	GuildID   string
	ChannelID string
	AuthorID  string
	Command   string
	Args      []string
}

type command struct {
	run  func(b *Bot, ctx context.Context, req Request) error
	help string
	// hidden commands are aliases left out of help.
	hidden bool
}

// Parse splits a prefixed message into a lowercased command name and its arguments.
func Parse(prefix, content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	if prefix == "" {
		return "", nil, false
	}

	rest, ok := strings.CutPrefix(content, prefix)
	if !ok {
		return "", nil, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 || rest[0] == ' ' {
		return "", nil, false
	}

	return strings.ToLower(fields[0]), fields[1:], true
}

func (b *Bot) handleMessage(ctx context.Context, message Message) {
	if message.AuthorBot || message.GuildID == "" {
		return
	}

	name, args, ok := Parse(b.env.Prefix, message.Content)
	if !ok {
		return
	}

	cmd, ok := b.commands[name]
	if !ok {
		b.log.DebugContext(ctx, "Unknown command is ignored",
			"command", name,
			"guildID", message.GuildID)

		return
	}

	req := Request{
		GuildID:   message.GuildID,
		ChannelID: message.ChannelID,
		AuthorID:  message.AuthorID,
		Command:   name,
		Args:      args,
	}

	err := b.withSpinner(ctx, req.ChannelID, func() error {
		return b.runCommand(ctx, cmd, req)
	})

	b.finishCommand(ctx, req, err)
}

func (b *Bot) runCommand(ctx context.Context, cmd command, req Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command panicked: %v\n%s", r, debug.Stack())
		}
	}()

	return cmd.run(b, ctx, req)
}

func (b *Bot) finishCommand(ctx context.Context, req Request, err error) {
	if err == nil {
		metrics.CommandsTotal.WithLabelValues(req.Command, resultOK).Inc()
		return
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		metrics.CommandsTotal.WithLabelValues(req.Command, resultUserError).Inc()

		if userErr.Err != nil {
			b.log.WarnContext(ctx, "Command failed with user error",
				"error", userErr.Err,
				"command", req.Command,
				"guildID", req.GuildID,
				"userID", req.AuthorID)
		}

		if sendErr := b.reply(ctx, req, userErr.Message); sendErr != nil {
			b.log.ErrorContext(ctx, "Failed to send user error",
				"error", sendErr,
				"command", req.Command,
				"channelID", req.ChannelID)
		}

		return
	}

	metrics.CommandsTotal.WithLabelValues(req.Command, resultError).Inc()

	b.log.ErrorContext(ctx, "Failed to handle command",
		"error", err,
		"command", req.Command,
		"args", req.Args,
		"guildID", req.GuildID,
		"channelID", req.ChannelID,
		"userID", req.AuthorID)

	if sendErr := b.reply(ctx, req, genericErrorText); sendErr != nil {
		b.log.ErrorContext(ctx, "Failed to send error message",
			"error", sendErr,
			"command", req.Command,
			"channelID", req.ChannelID)
	}
}

func (b *Bot) commandTable() map[string]command {
	table := map[string]command{
		"help":           {run: (*Bot).handleHelpCommand, help: "list commands"},
		"ping":           {run: (*Bot).handlePingCommand, help: "check that I'm alive"},
		"about":          {run: (*Bot).handleAboutCommand, help: "what I am"},
		"uptime":         {run: (*Bot).handleUptimeCommand, help: "how long I've been running"},
		"status":         {run: (*Bot).handleStatusCommand, help: "when I last checked for builds"},
		"insider":        {run: textCommand(insiderText), help: "about the Windows Insider Program"},
		"rings":          {run: textCommand(ringsText), help: "explain the Insider rings"},
		"fast":           {run: textCommand(fastText), help: "about the Fast ring"},
		"slow":           {run: textCommand(slowText), help: "about the Slow ring"},
		"skip":           {run: textCommand(skipText), help: "about Skip Ahead"},
		"releasepreview": {run: textCommand(releasePreviewText), help: "about the Release Preview ring"},
		"rp":             {run: textCommand(releasePreviewText), hidden: true},
		"feedback":       {run: textCommand(feedbackText), help: "how to send feedback"},
		"bugs":           {run: textCommand(bugsText), help: "where known issues are listed"},
		"iso":            {run: textCommand(isoText), help: "where to get Insider ISOs"},
		"leave":          {run: textCommand(leaveText), help: "how to leave the Insider Program"},
		"latest":         {run: (*Bot).handleLatestCommand, help: "the latest build I announced"},
		"build":          {run: (*Bot).handleBuildCommand, help: "`build [pc|server]`: current flights per ring"},
		"subscribe":      {run: (*Bot).handleSubscribeCommand, help: "get the announcement role"},
		"unsubscribe":    {run: (*Bot).handleUnsubscribeCommand, help: "drop the announcement role"},
		"invite":         {run: (*Bot).handleInviteCommand, help: "invite me to your server"},
		"source":         {run: (*Bot).handleSourceCommand, help: "where my code lives"},
		"settings":       {run: (*Bot).handleSettingsCommand, help: "`settings [channel|nickname|role]`: view or change settings"},
	}

	return table
}
