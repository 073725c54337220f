package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	DiscordToken  string        `env:"DISCORD_TOKEN,required,notEmpty"`
	CommandPrefix string        `env:"COMMAND_PREFIX"                  envDefault:"!"                                               validate:"required,max=5"`
	ReplyDelay    time.Duration `env:"REPLY_DELAY"                     envDefault:"1s"                                              validate:"gte=0"`

	FeedURL     string        `env:"FEED_URL"     envDefault:"https://blogs.windows.com/windows-insider/feed/" validate:"required,url"`
	BuildType   string        `env:"BUILD_TYPE"   envDefault:"any"                                              validate:"oneof=any pc server skip"`
	PollSpec    string        `env:"POLL_SPEC"    envDefault:"@every 60s"                                       validate:"required"`
	PollTimeout time.Duration `env:"POLL_TIMEOUT" envDefault:"50s"                                              validate:"gt=0"`

	SettingsBackend string `env:"SETTINGS_BACKEND" envDefault:"json"          validate:"oneof=json sqlite"`
	SettingsPath    string `env:"SETTINGS_PATH"    envDefault:"settings.json" validate:"required"`
	LastLinkPath    string `env:"LAST_LINK_PATH"   envDefault:"lastlink.txt"  validate:"required"`
	DBPath          string `env:"DB_PATH"          envDefault:"db.sqlite"     validate:"required"`

	BuildAPIURL      string        `env:"BUILD_API_URL"       validate:"omitempty,url"`
	BuildAPICacheTTL time.Duration `env:"BUILD_API_CACHE_TTL" envDefault:"5m"          validate:"gt=0"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	TelegramToken   string  `env:"TELEGRAM_TOKEN"`
	TelegramChatIDs []int64 `env:"TELEGRAM_CHAT_IDS" validate:"required_with=TelegramToken"`

	SourceURL string `env:"SOURCE_URL" validate:"omitempty,url"`
	InviteURL string `env:"INVITE_URL" validate:"omitempty,url"`

	HTTPListen string `env:"HTTP_LISTEN" validate:"omitempty,hostname_port"`
	LogLevel   string `env:"LOG_LEVEL"   envDefault:"info" validate:"oneof=debug info warn error"`
}

// Load reads an optional .env file, parses the environment and validates the result.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.CommandPrefix = strings.TrimSpace(cfg.CommandPrefix)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) TelegramEnabled() bool {
	return strings.TrimSpace(c.TelegramToken) != "" && len(c.TelegramChatIDs) > 0
}
