package announce

import (
	"fmt"
	"strings"

	"insiderbot/internal/domain"
)

// phrasings take, in order: build number, ring suffix, platform suffix.
var phrasings = []string{
	"Build %s has been released%s%s!",
	"Heads up, Insiders: build %s is rolling out%s%s.",
	"A new flight has landed: build %s%s%s.",
	"Time to check for updates! Build %s is out%s%s.",
}

// Picker returns an index in [0, n).
type Picker func(n int) int

func firstPhrasing(int) int { return 0 }

// FormatMessage renders the announcement text. mention may be empty.
func FormatMessage(build domain.Build, mention string, pick Picker) string {
	if pick == nil {
		pick = firstPhrasing
	}

	idx := pick(len(phrasings))
	if idx < 0 || idx >= len(phrasings) {
		idx = 0
	}

	var b strings.Builder

	if mention != "" {
		b.WriteString(mention)
		b.WriteString(" ")
	}

	fmt.Fprintf(&b, phrasings[idx], build.Number, build.Ring.Suffix(), build.Platform.Suffix())

	if summary := strings.TrimSpace(build.Summary); summary != "" {
		b.WriteString("\n")
		b.WriteString(quote(summary))
	}

	if link := strings.TrimSpace(build.Entry.Link); link != "" {
		b.WriteString("\n")
		b.WriteString(link)
	}

	return b.String()
}

// quote prefixes every non-blank line with a Discord block quote marker.
func quote(text string) string {
	lines := strings.Split(text, "\n")
	quoted := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		quoted = append(quoted, "> "+line)
	}

	return strings.Join(quoted, "\n")
}

// RoleMention formats a Discord role mention.
func RoleMention(roleID string) string {
	if roleID == "" {
		return ""
	}

	return "<@&" + roleID + ">"
}

// MentionRoleKinds returns the role kinds to try, most specific first, for a build.
// Server-only builds mention nobody.
func MentionRoleKinds(build domain.Build) []domain.RoleKind {
	if build.Platform == domain.PlatformServer {
		return nil
	}

	switch build.Ring {
	case domain.RingSkipAhead:
		return []domain.RoleKind{domain.RoleSkip, domain.RolePrimary}
	case domain.RingSlow:
		return []domain.RoleKind{domain.RoleSlow, domain.RolePrimary}
	case domain.RingFastAndSlow:
		return []domain.RoleKind{domain.RoleJumbo, domain.RolePrimary}
	default:
		return []domain.RoleKind{domain.RolePrimary}
	}
}
