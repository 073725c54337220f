// Package telegram mirrors build announcements into Telegram chats.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"insiderbot/internal/domain"
	"insiderbot/internal/markdown"
	"insiderbot/internal/metrics"
)

const channelName = "telegram"

// Sender sends one message; *ratelimiter.RateLimiter satisfies it.
type Sender interface {
	Send(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type Mirror struct {
	sender  Sender
	chatIDs []int64
	log     *slog.Logger
}

func NewMirror(sender Sender, chatIDs []int64, log *slog.Logger) *Mirror {
	return &Mirror{
		sender:  sender,
		chatIDs: chatIDs,
		log:     log,
	}
}

func (m *Mirror) Name() string {
	return channelName
}

// Announce sends the build to every chat and joins the per-chat errors.
func (m *Mirror) Announce(ctx context.Context, build domain.Build) error {
	text := FormatMessage(build)

	var errs []error

	for _, chatID := range m.chatIDs {
		_, err := m.sender.Send(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: models.ParseModeMarkdown,
		})
		if err != nil {
			metrics.AnnouncementsTotal.WithLabelValues(channelName, metrics.ResultFailed).Inc()
			errs = append(errs, fmt.Errorf("send to chat %d: %w", chatID, err))

			continue
		}

		metrics.AnnouncementsTotal.WithLabelValues(channelName, metrics.ResultSent).Inc()
	}

	m.log.InfoContext(ctx, "Build is mirrored to Telegram",
		"build", build.Number,
		"chats", len(m.chatIDs),
		"failed", len(errs))

	return errors.Join(errs...)
}

// FormatMessage renders the build as MarkdownV2.
func FormatMessage(build domain.Build) string {
	var b strings.Builder

	b.WriteString("🪟 *New Insider build*\n\n")

	title := "Build " + build.Number
	if link := strings.TrimSpace(build.Entry.Link); link != "" {
		fmt.Fprintf(&b, "[%s](%s)", markdown.EscapeV2(title), markdown.EscapeLinkURL(link))
	} else {
		b.WriteString(markdown.EscapeV2(title))
	}

	b.WriteString(markdown.EscapeV2(build.Ring.Suffix() + build.Platform.Suffix()))

	if summary := strings.TrimSpace(build.Summary); summary != "" {
		b.WriteString("\n\n>")
		b.WriteString(markdown.EscapeV2(summary))
	}

	return b.String()
}
