package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"insiderbot/internal/domain"
)

const filePerm = 0o600

type jsonDocument struct {
	Channels map[string]int64                     `json:"channels"`
	Roles    map[domain.RoleKind]map[string]int64 `json:"roles"`
}

// JSONStore keeps every setting in memory and rewrites the whole file on each change.
type JSONStore struct {
	path string

	mu  sync.RWMutex
	doc jsonDocument
}

func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path: path,
		doc:  newJSONDocument(),
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	if len(raw) == 0 {
		return s, nil
	}

	if err = json.Unmarshal(raw, &s.doc); err != nil {
		return nil, fmt.Errorf("decode settings file: %w", err)
	}

	if s.doc.Channels == nil {
		s.doc.Channels = make(map[string]int64)
	}
	if s.doc.Roles == nil {
		s.doc.Roles = make(map[domain.RoleKind]map[string]int64)
	}

	return s, nil
}

func newJSONDocument() jsonDocument {
	return jsonDocument{
		Channels: make(map[string]int64),
		Roles:    make(map[domain.RoleKind]map[string]int64),
	}
}

func (s *JSONStore) Get(_ context.Context, guildID int64) (domain.GuildSetting, error) {
	key := guildKey(guildID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	setting := domain.GuildSetting{GuildID: guildID}

	if channelID, ok := s.doc.Channels[key]; ok {
		setting.SpeakingChannelID = channelID
		setting.ChannelConfigured = true
	}

	for kind, guilds := range s.doc.Roles {
		setting.SetRoleID(kind, guilds[key])
	}

	return setting, nil
}

func (s *JSONStore) SetChannel(_ context.Context, guildID, channelID int64) error {
	return s.update(func(doc *jsonDocument) {
		doc.Channels[guildKey(guildID)] = channelID
	})
}

func (s *JSONStore) DisableChannel(ctx context.Context, guildID int64) error {
	return s.SetChannel(ctx, guildID, 0)
}

func (s *JSONStore) ClearChannel(_ context.Context, guildID int64) error {
	return s.update(func(doc *jsonDocument) {
		delete(doc.Channels, guildKey(guildID))
	})
}

func (s *JSONStore) SetRole(_ context.Context, guildID int64, kind domain.RoleKind, roleID int64) error {
	if err := validRoleKind(kind); err != nil {
		return err
	}

	return s.update(func(doc *jsonDocument) {
		guilds := doc.Roles[kind]
		if guilds == nil {
			guilds = make(map[string]int64)
			doc.Roles[kind] = guilds
		}

		guilds[guildKey(guildID)] = roleID
	})
}

func (s *JSONStore) ClearRole(_ context.Context, guildID int64, kind domain.RoleKind) error {
	if err := validRoleKind(kind); err != nil {
		return err
	}

	return s.update(func(doc *jsonDocument) {
		delete(doc.Roles[kind], guildKey(guildID))
	})
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) update(mutate func(doc *jsonDocument)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	mutate(&next)

	if err := writeFileAtomic(s.path, next); err != nil {
		return err
	}

	s.doc = next

	return nil
}

func (d jsonDocument) clone() jsonDocument {
	c := jsonDocument{
		Channels: maps.Clone(d.Channels),
		Roles:    make(map[domain.RoleKind]map[string]int64, len(d.Roles)),
	}

	for kind, guilds := range d.Roles {
		c.Roles[kind] = maps.Clone(guilds)
	}

	return c
}

func writeFileAtomic(path string, doc jsonDocument) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write temp file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replace settings file: %w", err)
	}

	return nil
}

func guildKey(guildID int64) string {
	return strconv.FormatInt(guildID, 10)
}
