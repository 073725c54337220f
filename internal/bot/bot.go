package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	messageProcessingTimeout = 60 * time.Second

	intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
)

type Bot struct {
	ctx      context.Context
	session  *discordgo.Session
	chat     Chat
	env      *Env
	commands map[string]command
	log      *slog.Logger
}

// NewSession creates an unopened discordgo session for the token.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = intents

	return session, nil
}

func New(session *discordgo.Session, chat Chat, env *Env, log *slog.Logger) *Bot {
	b := &Bot{
		ctx:     context.Background(),
		session: session,
		chat:    chat,
		env:     env,
		log:     log,
	}
	b.commands = b.commandTable()

	return b
}

// Start registers handlers and opens the gateway connection.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx = ctx

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onGuildDelete)
	b.session.AddHandler(b.onMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	return nil
}

func (b *Bot) Stop() error {
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}

	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.log.InfoContext(b.ctx, "Bot is ready",
		"user", r.User.Username,
		"guilds", len(r.Guilds))
}

func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.DebugContext(b.ctx, "Guild is available",
		"guildID", g.ID,
		"name", g.Name)
}

func (b *Bot) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	b.log.InfoContext(b.ctx, "Guild is gone",
		"guildID", g.ID,
		"unavailable", g.Unavailable)
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, messageProcessingTimeout)
	defer cancel()

	b.handleMessage(ctx, Message{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		AuthorBot: m.Author.Bot,
		Content:   m.Content,
	})
}
