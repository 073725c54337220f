package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord shows a typing indicator for about ten seconds.
const sendSpinnerInterval = 8 * time.Second

func (b *Bot) sendTyping(ctx context.Context, channelID string) {
	if err := b.chat.Typing(ctx, channelID); err != nil {
		b.log.WarnContext(ctx, "Failed to send typing indicator",
			"error", err,
			"channelID", channelID)
	}
}

func (b *Bot) withSpinner(ctx context.Context, channelID string, fn func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		b.sendTyping(ctx, channelID)

		t := time.NewTicker(sendSpinnerInterval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.sendTyping(ctx, channelID)
			}
		}
	}()

	return fn()
}

// pace holds a reply back for the configured delay.
func (b *Bot) pace(ctx context.Context) error {
	if b.env.ReplyDelay <= 0 {
		return nil
	}

	t := time.NewTimer(b.env.ReplyDelay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (b *Bot) reply(ctx context.Context, req Request, content string) error {
	if err := b.pace(ctx); err != nil {
		return err
	}

	return b.chat.SendMessage(ctx, req.ChannelID, content)
}

func (b *Bot) replyEmbed(ctx context.Context, req Request, embed *discordgo.MessageEmbed) error {
	if err := b.pace(ctx); err != nil {
		return err
	}

	return b.chat.SendEmbed(ctx, req.ChannelID, embed)
}
