package domain

import "time"

type RoleKind string

const (
	RolePrimary RoleKind = "primary"
	RoleSkip    RoleKind = "skip"
	RoleSlow    RoleKind = "slow"
	RoleJumbo   RoleKind = "jumbo"
)

var RoleKinds = []RoleKind{RolePrimary, RoleSkip, RoleSlow, RoleJumbo}

func ParseRoleKind(s string) (RoleKind, bool) {
	for _, kind := range RoleKinds {
		if string(kind) == s {
			return kind, true
		}
	}

	return "", false
}

// GuildSetting is the per-guild configuration. ChannelConfigured=false means the
// speaking channel is unset and the guild's default channel is used; a configured
// SpeakingChannelID of 0 means announcements are disabled. Role ids of 0 are unset.
type GuildSetting struct {
	GuildID           int64
	SpeakingChannelID int64
	ChannelConfigured bool
	PrimaryRoleID     int64
	SkipRoleID        int64
	SlowRoleID        int64
	JumboRoleID       int64
}

func (s GuildSetting) RoleID(kind RoleKind) int64 {
	switch kind {
	case RolePrimary:
		return s.PrimaryRoleID
	case RoleSkip:
		return s.SkipRoleID
	case RoleSlow:
		return s.SlowRoleID
	case RoleJumbo:
		return s.JumboRoleID
	default:
		return 0
	}
}

func (s *GuildSetting) SetRoleID(kind RoleKind, roleID int64) {
	switch kind {
	case RolePrimary:
		s.PrimaryRoleID = roleID
	case RoleSkip:
		s.SkipRoleID = roleID
	case RoleSlow:
		s.SlowRoleID = roleID
	case RoleJumbo:
		s.JumboRoleID = roleID
	}
}

func (s GuildSetting) ChannelDisabled() bool {
	return s.ChannelConfigured && s.SpeakingChannelID == 0
}

type FeedEntry struct {
	Link        string
	Title       string
	Description string
}

type Ring int

const (
	RingUnknown Ring = iota
	RingFast
	RingSlow
	RingFastAndSlow
	RingSkipAhead
)

func (r Ring) String() string {
	switch r {
	case RingFast:
		return "Fast"
	case RingSlow:
		return "Slow"
	case RingFastAndSlow:
		return "Fast and Slow"
	case RingSkipAhead:
		return "Skip Ahead"
	default:
		return "Unknown"
	}
}

func (r Ring) Suffix() string {
	switch r {
	case RingFast, RingSlow:
		return " for the " + r.String() + " ring"
	case RingFastAndSlow:
		return " for the Fast and Slow rings"
	case RingSkipAhead:
		return " for Skip Ahead"
	default:
		return ""
	}
}

type Platform int

const (
	PlatformPC Platform = iota
	PlatformServer
	PlatformPCAndServer
)

func (p Platform) String() string {
	switch p {
	case PlatformServer:
		return "Server"
	case PlatformPCAndServer:
		return "PC and Server"
	default:
		return "PC"
	}
}

func (p Platform) Suffix() string {
	return " for " + p.String()
}

// Build is a newly detected flight, ready to be announced.
type Build struct {
	Number     string
	Ring       Ring
	Platform   Platform
	Entry      FeedEntry
	Summary    string
	DetectedAt time.Time
}

// Flight is one row of the build-metadata API.
type Flight struct {
	Platform string `json:"platform"`
	Ring     string `json:"ring"`
	Build    string `json:"build"`
	Date     string `json:"date"`
}
