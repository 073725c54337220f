package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"insiderbot/internal/announce"
	"insiderbot/internal/bot"
	"insiderbot/internal/buildinfo"
	"insiderbot/internal/config"
	"insiderbot/internal/database"
	"insiderbot/internal/feed"
	"insiderbot/internal/ratelimiter"
	"insiderbot/internal/scheduler"
	"insiderbot/internal/server"
	"insiderbot/internal/settings"
	"insiderbot/internal/summarizer"
	"insiderbot/internal/telegram"
)

const (
	feedHTTPTimeout = 30 * time.Second
	pollTaskName    = "poll-feed"
)

var version = "dev"

type stores struct {
	settings settings.Store
	links    settings.LinkStore
	close    func() error
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	st, err := initStores(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize settings store",
			"error", err,
			"backend", cfg.SettingsBackend)

		return
	}
	defer func() {
		if err = st.close(); err != nil {
			log.ErrorContext(ctx, "Failed to close settings store",
				"error", err,
				"backend", cfg.SettingsBackend)
		}
	}()
	log.InfoContext(ctx, "Settings store is initialized",
		"backend", cfg.SettingsBackend)

	session, err := bot.NewSession(cfg.DiscordToken)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create Discord session",
			"error", err)

		return
	}

	client := bot.NewClient(session, log)
	resolver := settings.NewResolver(st.settings, client, log)
	dispatcher := announce.NewDispatcher(client, resolver, log)

	announcers := []announce.Announcer{dispatcher}

	if cfg.TelegramEnabled() {
		mirror, limiter, mirrorErr := initTelegramMirror(cfg, log)
		if mirrorErr != nil {
			log.ErrorContext(ctx, "Failed to initialize Telegram mirror so it is disabled",
				"error", mirrorErr,
				"chats", len(cfg.TelegramChatIDs))
		} else {
			defer limiter.Stop()

			announcers = append(announcers, mirror)
			log.InfoContext(ctx, "Telegram mirror is initialized",
				"chats", len(cfg.TelegramChatIDs))
		}
	}

	fetcher := feed.NewFetcher(cfg.FeedURL, &http.Client{Timeout: feedHTTPTimeout}, log)

	pollerOpts := []announce.Option{announce.WithAnnouncers(announcers...)}
	if s := initOpenAISummarizer(ctx, cfg, log); s != nil {
		pollerOpts = append(pollerOpts, announce.WithSummarizer(s))
	}

	poller := announce.NewPoller(fetcher, st.links, feed.BuildType(cfg.BuildType), log, pollerOpts...)

	builds := buildinfo.New(cfg.BuildAPIURL, nil, cfg.BuildAPICacheTTL, log)

	env := &bot.Env{
		Store:      st.settings,
		Links:      st.links,
		Resolver:   resolver,
		PollStatus: poller.Status,
		Builds:     builds,
		Version:    version,
		StartedAt:  start,
		Prefix:     cfg.CommandPrefix,
		ReplyDelay: cfg.ReplyDelay,
		InviteURL:  cfg.InviteURL,
		SourceURL:  cfg.SourceURL,
	}

	botInst := bot.New(session, client, env, log)
	if err = botInst.Start(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to start bot",
			"error", err)

		return
	}
	defer func() {
		if err = botInst.Stop(); err != nil {
			log.ErrorContext(ctx, "Failed to stop bot",
				"error", err)
		}
	}()
	log.InfoContext(ctx, "Bot is started",
		"prefix", cfg.CommandPrefix,
		"version", version)

	sched := scheduler.New(ctx, log)

	err = sched.Add(scheduler.Task{
		Name:    pollTaskName,
		Spec:    cfg.PollSpec,
		Timeout: cfg.PollTimeout,
		Run: func(ctx context.Context) error {
			_, err := poller.Poll(ctx)
			return err
		},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to schedule feed polling",
			"error", err,
			"spec", cfg.PollSpec)

		return
	}

	sched.Start()
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.PollSpec,
		"timeout", cfg.PollTimeout,
		"buildType", cfg.BuildType,
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	if cfg.HTTPListen != "" {
		srv := server.New(cfg.HTTPListen, healthFunc(client, poller, start), log)
		srv.Start(ctx)
		defer func() {
			if err = srv.Shutdown(context.Background()); err != nil {
				log.ErrorContext(ctx, "Failed to stop HTTP server",
					"error", err)
			}
		}()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())
}

func initStores(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, error) {
	switch cfg.SettingsBackend {
	case config.BackendSQLite:
		db, err := database.New(ctx, cfg.DBPath, log)
		if err != nil {
			return stores{}, err
		}

		return stores{settings: db, links: db, close: db.Close}, nil

	case config.BackendJSON:
		store, err := settings.NewJSONStore(cfg.SettingsPath)
		if err != nil {
			return stores{}, err
		}

		return stores{settings: store, links: settings.NewLinkFile(cfg.LastLinkPath), close: store.Close}, nil

	default:
		return stores{}, errors.New("unknown settings backend: " + cfg.SettingsBackend)
	}
}

func initTelegramMirror(cfg config.Config, log *slog.Logger) (*telegram.Mirror, *ratelimiter.RateLimiter, error) {
	api, err := tgbot.New(cfg.TelegramToken, tgbot.WithSkipGetMe())
	if err != nil {
		return nil, nil, err
	}

	limiter := ratelimiter.New(api, log)

	return telegram.NewMirror(limiter, cfg.TelegramChatIDs, log), limiter, nil
}

func initOpenAISummarizer(ctx context.Context, cfg config.Config, log *slog.Logger) summarizer.Summarizer {
	if cfg.OpenAIAPIKey == "" {
		log.WarnContext(ctx, "OPENAI_API_KEY is missing so fallback will be used",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(cfg.OpenAIAPIKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so fallback will be used",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai")

	return summarizer.NewCached(s, summarizer.DefaultCacheSize, summarizer.DefaultCacheTTL)
}

func healthFunc(client *bot.Client, poller *announce.Poller, start time.Time) server.HealthFunc {
	return func() server.Health {
		status := poller.Status()

		h := server.Health{
			Status:    "ok",
			Connected: client.Connected(),
			LastPoll:  status.LastPoll,
			Uptime:    time.Since(start).Round(time.Second).String(),
		}

		if !status.LastPoll.IsZero() {
			h.LastOutcome = status.LastOutcome.String()
		}

		if !h.Connected {
			h.Status = "disconnected"
		}

		return h
	}
}
