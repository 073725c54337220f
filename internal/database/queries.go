package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"insiderbot/internal/domain"
	"insiderbot/internal/settings"
)

const lastLinkKey = "last_link"

func (d *Database) Get(ctx context.Context, guildID int64) (domain.GuildSetting, error) {
	query := `select speaking_channel_id, primary_role_id, skip_role_id, slow_role_id, jumbo_role_id
	from guild_settings
	where guild_id = ?`

	setting := domain.GuildSetting{GuildID: guildID}

	var channelID sql.NullInt64
	err := d.db.QueryRowContext(ctx, query, guildID).Scan(
		&channelID,
		&setting.PrimaryRoleID,
		&setting.SkipRoleID,
		&setting.SlowRoleID,
		&setting.JumboRoleID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return setting, nil
	}
	if err != nil {
		return domain.GuildSetting{}, fmt.Errorf("scan guild setting: %w", err)
	}

	setting.ChannelConfigured = channelID.Valid
	setting.SpeakingChannelID = channelID.Int64

	return setting, nil
}

func (d *Database) SetChannel(ctx context.Context, guildID, channelID int64) error {
	query := `insert into guild_settings (guild_id, speaking_channel_id)
	values (?, ?)
	on conflict (guild_id) do update
	set speaking_channel_id = excluded.speaking_channel_id`

	if _, err := d.db.ExecContext(ctx, query, guildID, channelID); err != nil {
		return fmt.Errorf("upsert speaking channel: %w", err)
	}

	return nil
}

func (d *Database) DisableChannel(ctx context.Context, guildID int64) error {
	return d.SetChannel(ctx, guildID, 0)
}

func (d *Database) ClearChannel(ctx context.Context, guildID int64) error {
	query := "update guild_settings set speaking_channel_id = null where guild_id = ?"

	if _, err := d.db.ExecContext(ctx, query, guildID); err != nil {
		return fmt.Errorf("clear speaking channel: %w", err)
	}

	return nil
}

func (d *Database) SetRole(ctx context.Context, guildID int64, kind domain.RoleKind, roleID int64) error {
	column, err := roleColumn(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`insert into guild_settings (guild_id, %[1]s)
	values (?, ?)
	on conflict (guild_id) do update
	set %[1]s = excluded.%[1]s`, column)

	if _, err = d.db.ExecContext(ctx, query, guildID, roleID); err != nil {
		return fmt.Errorf("upsert %s: %w", column, err)
	}

	return nil
}

func (d *Database) ClearRole(ctx context.Context, guildID int64, kind domain.RoleKind) error {
	column, err := roleColumn(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("update guild_settings set %s = 0 where guild_id = ?", column)

	if _, err = d.db.ExecContext(ctx, query, guildID); err != nil {
		return fmt.Errorf("clear %s: %w", column, err)
	}

	return nil
}

func (d *Database) LastLink(ctx context.Context) (string, error) {
	var link string

	err := d.db.QueryRowContext(ctx, "select value from bot_state where key = ?", lastLinkKey).Scan(&link)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("scan last link: %w", err)
	}

	return strings.TrimSpace(link), nil
}

func (d *Database) SetLastLink(ctx context.Context, link string) error {
	query := `insert into bot_state (key, value)
	values (?, ?)
	on conflict (key) do update
	set value = excluded.value`

	if _, err := d.db.ExecContext(ctx, query, lastLinkKey, strings.TrimSpace(link)); err != nil {
		return fmt.Errorf("upsert last link: %w", err)
	}

	return nil
}

func roleColumn(kind domain.RoleKind) (string, error) {
	switch kind {
	case domain.RolePrimary:
		return "primary_role_id", nil
	case domain.RoleSkip:
		return "skip_role_id", nil
	case domain.RoleSlow:
		return "slow_role_id", nil
	case domain.RoleJumbo:
		return "jumbo_role_id", nil
	default:
		return "", settings.ErrUnknownRoleKind
	}
}
