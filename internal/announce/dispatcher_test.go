package announce_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insiderbot/internal/announce"
	"insiderbot/internal/domain"
	"insiderbot/internal/settings"
)

type sentMessage struct {
	channelID string
	content   string
}

type fakePlatform struct {
	guilds       []string
	noSend       map[string]bool
	manageRoles  bool
	mentionable  map[string]bool
	roleEdits    []bool
	sent         []sentMessage
	sendErrGuild map[string]error
	channelGuild map[string]string
}

func (p *fakePlatform) GuildIDs() []string { return p.guilds }

func (p *fakePlatform) CanSend(channelID string) bool { return !p.noSend[channelID] }

func (p *fakePlatform) CanManageRoles(string) bool { return p.manageRoles }

func (p *fakePlatform) RoleMentionable(_, roleID string) (bool, bool) {
	mentionable, ok := p.mentionable[roleID]
	return mentionable, ok
}

func (p *fakePlatform) SetRoleMentionable(_ context.Context, _, roleID string, mentionable bool) error {
	p.roleEdits = append(p.roleEdits, mentionable)
	p.mentionable[roleID] = mentionable

	return nil
}

func (p *fakePlatform) Send(_ context.Context, channelID, content string) error {
	if err := p.sendErrGuild[p.channelGuild[channelID]]; err != nil {
		return err
	}

	p.sent = append(p.sent, sentMessage{channelID: channelID, content: content})

	return nil
}

type fakeResolver struct {
	channels map[string]settings.Channel
	roles    map[string]map[domain.RoleKind]string
	err      map[string]error
}

func (r fakeResolver) SpeakingChannel(_ context.Context, guildID string) (settings.Channel, error) {
	if err := r.err[guildID]; err != nil {
		return settings.Channel{}, err
	}

	return r.channels[guildID], nil
}

func (r fakeResolver) Role(_ context.Context, guildID string, kind domain.RoleKind) (string, error) {
	return r.roles[guildID][kind], nil
}

func firstPick(int) int { return 0 }

func fastBuild() domain.Build {
	return domain.Build{
		Number:   "18890",
		Ring:     domain.RingFast,
		Platform: domain.PlatformPC,
		Entry:    domain.FeedEntry{Link: fastLink},
	}
}

func TestDispatchSkipsDisabledGuild(t *testing.T) {
	platform := &fakePlatform{guilds: []string{"1", "2"}, mentionable: map[string]bool{}}
	resolver := fakeResolver{channels: map[string]settings.Channel{
		"1": {Disabled: true},
		"2": {ID: "20"},
	}}

	d := announce.NewDispatcher(platform, resolver, discardLogger()).WithPicker(firstPick)

	result, err := d.Dispatch(context.Background(), fastBuild())
	require.NoError(t, err)
	assert.Equal(t, announce.Result{Sent: 1, Skipped: 1}, result)
	require.Len(t, platform.sent, 1)
	assert.Equal(t, "20", platform.sent[0].channelID)
	assert.Equal(t,
		"Build 18890 has been released for the Fast ring for PC!\n"+fastLink,
		platform.sent[0].content)
}

func TestDispatchSkipsWithoutSendPermission(t *testing.T) {
	platform := &fakePlatform{
		guilds:      []string{"1"},
		noSend:      map[string]bool{"10": true},
		mentionable: map[string]bool{},
	}
	resolver := fakeResolver{channels: map[string]settings.Channel{"1": {ID: "10", Fallback: true}}}

	result, err := announce.NewDispatcher(platform, resolver, discardLogger()).Dispatch(context.Background(), fastBuild())
	require.NoError(t, err)
	assert.Equal(t, announce.Result{Skipped: 1}, result)
	assert.Empty(t, platform.sent)
}

func TestDispatchContinuesAfterGuildFailure(t *testing.T) {
	platform := &fakePlatform{
		guilds:       []string{"1", "2", "3"},
		mentionable:  map[string]bool{},
		channelGuild: map[string]string{"10": "1", "20": "2", "30": "3"},
		sendErrGuild: map[string]error{"2": errors.New("missing access")},
	}
	resolver := fakeResolver{
		channels: map[string]settings.Channel{
			"2": {ID: "20"},
			"3": {ID: "30"},
		},
		err: map[string]error{"1": errors.New("store down")},
	}

	result, err := announce.NewDispatcher(platform, resolver, discardLogger()).Dispatch(context.Background(), fastBuild())
	require.NoError(t, err)
	assert.Equal(t, announce.Result{Sent: 1, Failed: 2}, result)
	require.Len(t, platform.sent, 1)
	assert.Equal(t, "30", platform.sent[0].channelID)
}

func TestDispatchFlipsRoleMentionable(t *testing.T) {
	platform := &fakePlatform{
		guilds:      []string{"1"},
		manageRoles: true,
		mentionable: map[string]bool{"500": false},
	}
	resolver := fakeResolver{
		channels: map[string]settings.Channel{"1": {ID: "10"}},
		roles:    map[string]map[domain.RoleKind]string{"1": {domain.RolePrimary: "500"}},
	}

	_, err := announce.NewDispatcher(platform, resolver, discardLogger()).WithPicker(firstPick).
		Dispatch(context.Background(), fastBuild())
	require.NoError(t, err)

	require.Len(t, platform.sent, 1)
	assert.True(t, strings.HasPrefix(platform.sent[0].content, "<@&500> Build 18890"))
	assert.Equal(t, []bool{true, false}, platform.roleEdits)
	assert.False(t, platform.mentionable["500"])
}

func TestDispatchLeavesRoleWithoutManagePermission(t *testing.T) {
	platform := &fakePlatform{
		guilds:      []string{"1"},
		mentionable: map[string]bool{"500": false},
	}
	resolver := fakeResolver{
		channels: map[string]settings.Channel{"1": {ID: "10"}},
		roles:    map[string]map[domain.RoleKind]string{"1": {domain.RolePrimary: "500"}},
	}

	_, err := announce.NewDispatcher(platform, resolver, discardLogger()).Dispatch(context.Background(), fastBuild())
	require.NoError(t, err)
	assert.Empty(t, platform.roleEdits)
	require.Len(t, platform.sent, 1)
}

func TestDispatchRoleSelection(t *testing.T) {
	roles := map[domain.RoleKind]string{
		domain.RolePrimary: "1",
		domain.RoleSkip:    "2",
		domain.RoleSlow:    "3",
	}

	tests := []struct {
		name     string
		ring     domain.Ring
		platform domain.Platform
		mention  string
	}{
		{name: "fast uses primary", ring: domain.RingFast, mention: "<@&1> "},
		{name: "skip ahead", ring: domain.RingSkipAhead, mention: "<@&2> "},
		{name: "slow", ring: domain.RingSlow, mention: "<@&3> "},
		{name: "jumbo falls back to primary", ring: domain.RingFastAndSlow, mention: "<@&1> "},
		{name: "server only", ring: domain.RingFast, platform: domain.PlatformServer, mention: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := &fakePlatform{
				guilds:      []string{"9"},
				mentionable: map[string]bool{"1": true, "2": true, "3": true},
			}
			resolver := fakeResolver{
				channels: map[string]settings.Channel{"9": {ID: "90"}},
				roles:    map[string]map[domain.RoleKind]string{"9": roles},
			}

			build := fastBuild()
			build.Ring = tt.ring
			build.Platform = tt.platform

			_, err := announce.NewDispatcher(platform, resolver, discardLogger()).WithPicker(firstPick).
				Dispatch(context.Background(), build)
			require.NoError(t, err)
			require.Len(t, platform.sent, 1)

			content := platform.sent[0].content
			if tt.mention == "" {
				assert.True(t, strings.HasPrefix(content, "Build 18890"), content)
				return
			}

			assert.True(t, strings.HasPrefix(content, tt.mention+"Build 18890"), content)
		})
	}
}

func TestDispatchStopsOnCanceledContext(t *testing.T) {
	platform := &fakePlatform{guilds: []string{"1"}, mentionable: map[string]bool{}}
	resolver := fakeResolver{channels: map[string]settings.Channel{"1": {ID: "10"}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := announce.NewDispatcher(platform, resolver, discardLogger()).Announce(ctx, fastBuild())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, platform.sent)
}
