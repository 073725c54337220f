package feed

import (
	"fmt"
	"regexp"
	"strings"

	"insiderbot/internal/domain"
)

type BuildType string

const (
	BuildTypeAny    BuildType = "any"
	BuildTypePC     BuildType = "pc"
	BuildTypeServer BuildType = "server"
	BuildTypeSkip   BuildType = "skip"
)

var (
	buildNumberRe = regexp.MustCompile(`(?:^|\D)(\d{5})(?:[-.](\d{1,5}))?(?:\D|$)`)
	pcWordRe      = regexp.MustCompile(`\bpc\b`)
	fastLinkRe    = regexp.MustCompile(`[/-]fast(?:[/-]|$)`)
	slowLinkRe    = regexp.MustCompile(`[/-]slow(?:[/-]|$)`)
)

// Matches reports whether the entry is a build post of the given type.
func (t BuildType) Matches(entry domain.FeedEntry) bool {
	link := strings.ToLower(entry.Link)
	title := strings.ToLower(entry.Title)
	description := strings.ToLower(entry.Description)

	if !isBuildPost(link, title) {
		return false
	}

	server := strings.Contains(link, "server") || strings.Contains(title, "server")
	skip := isSkipAhead(link) || isSkipAhead(title) || isSkipAhead(description)

	switch t {
	case BuildTypePC:
		return !server && !skip
	case BuildTypeServer:
		return server
	case BuildTypeSkip:
		return skip
	default:
		return true
	}
}

// FirstMatch returns the first entry, in feed order, matching the build type.
func FirstMatch(entries []domain.FeedEntry, t BuildType) (domain.FeedEntry, bool) {
	for _, entry := range entries {
		if t.Matches(entry) {
			return entry, true
		}
	}

	return domain.FeedEntry{}, false
}

// BuildNumber extracts the five-digit build number, and its revision when present, from a link.
func BuildNumber(link string) string {
	m := buildNumberRe.FindStringSubmatch(link)
	if m == nil {
		return ""
	}

	if m[2] != "" {
		return fmt.Sprintf("%s.%s", m[1], m[2])
	}

	return m[1]
}

// Classify derives ring and platform from the entry's description and link.
func Classify(description, link string) (domain.Ring, domain.Platform) {
	description = strings.ToLower(description)
	link = strings.ToLower(link)

	return classifyRing(description, link), classifyPlatform(description, link)
}

func classifyRing(description, link string) domain.Ring {
	if isSkipAhead(description) || isSkipAhead(link) {
		return domain.RingSkipAhead
	}

	fast := strings.Contains(description, "fast ring") ||
		strings.Contains(description, "fast-ring") ||
		fastLinkRe.MatchString(link)
	slow := strings.Contains(description, "slow ring") ||
		strings.Contains(description, "slow-ring") ||
		slowLinkRe.MatchString(link)

	switch {
	case fast && slow:
		return domain.RingFastAndSlow
	case fast:
		return domain.RingFast
	case slow:
		return domain.RingSlow
	default:
		return domain.RingUnknown
	}
}

func classifyPlatform(description, link string) domain.Platform {
	server := strings.Contains(description, "server") || strings.Contains(link, "server")
	pc := pcWordRe.MatchString(description) || pcWordRe.MatchString(strings.NewReplacer("-", " ", "/", " ").Replace(link))

	switch {
	case pc && server:
		return domain.PlatformPCAndServer
	case server:
		return domain.PlatformServer
	default:
		return domain.PlatformPC
	}
}

func isBuildPost(link, title string) bool {
	return strings.Contains(link, "insider-preview-build") ||
		strings.Contains(title, "insider preview build")
}

func isSkipAhead(s string) bool {
	return strings.Contains(s, "skip ahead") || strings.Contains(s, "skip-ahead")
}
