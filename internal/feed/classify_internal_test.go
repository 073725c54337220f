package feed

import (
	"testing"

	"insiderbot/internal/domain"
)

func TestClassifyRing(t *testing.T) {
	tests := []struct {
		name        string
		description string
		link        string
		want        domain.Ring
	}{
		{
			name:        "skip ahead wins over fast and slow",
			description: "Today we are releasing a build to Insiders in the Fast ring and Skip Ahead",
			link:        "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18875/",
			want:        domain.RingSkipAhead,
		},
		{
			name:        "skip ahead from link",
			description: "Hello Windows Insiders, today we are releasing a new build to the Fast ring.",
			link:        "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18836-skip-ahead/",
			want:        domain.RingSkipAhead,
		},
		{
			name:        "fast only",
			description: "Releasing Windows 10 Insider Preview Build 18898 to Windows Insiders in the Fast ring.",
			link:        "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18898/",
			want:        domain.RingFast,
		},
		{
			name:        "slow only",
			description: "Releasing 18362.10000 to Insiders in the Slow ring.",
			link:        "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18362-10000/",
			want:        domain.RingSlow,
		},
		{
			name:        "fast and slow",
			description: "Available to Insiders in the Fast ring and the Slow ring.",
			link:        "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18362/",
			want:        domain.RingFastAndSlow,
		},
		{
			name:        "fast from link token",
			description: "Hello Windows Insiders!",
			link:        "https://blogs.windows.com/builds/fast/18890",
			want:        domain.RingFast,
		},
		{
			name:        "unknown",
			description: "Hello Windows Insiders!",
			link:        "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18890/",
			want:        domain.RingUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Classify(tt.description, tt.link)
			if got != tt.want {
				t.Fatalf("unexpected ring: got %s want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyPlatform(t *testing.T) {
	tests := []struct {
		name        string
		description string
		link        string
		want        domain.Platform
	}{
		{
			name:        "defaults to pc",
			description: "Releasing a new build to the Fast ring.",
			link:        "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18898/",
			want:        domain.PlatformPC,
		},
		{
			name:        "server",
			description: "Releasing a new Windows Server vNext build.",
			link:        "https://blogs.windows.com/announcing-windows-server-vnext-insider-preview-build-18880/",
			want:        domain.PlatformServer,
		},
		{
			name:        "pc and server",
			description: "Releasing Build 18362 for PC and Windows Server.",
			link:        "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18362/",
			want:        domain.PlatformPCAndServer,
		},
		{
			name:        "pc word from link",
			description: "Releasing Windows Server builds.",
			link:        "https://blogs.windows.com/insider-preview-build-18362-for-pc-and-server/",
			want:        domain.PlatformPCAndServer,
		},
		{
			name:        "pc inside another word is ignored",
			description: "Windows Server builds for PCs-friendly epcot.",
			link:        "https://blogs.windows.com/insider-preview-build-18362-server/",
			want:        domain.PlatformServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := Classify(tt.description, tt.link)
			if got != tt.want {
				t.Fatalf("unexpected platform: got %s want %s", got, tt.want)
			}
		})
	}
}

func TestBuildNumber(t *testing.T) {
	tests := map[string]string{
		"https://blogs.windows.com/windows-insider/2019/05/29/announcing-windows-10-insider-preview-build-18898/": "18898",
		"https://blogs.windows.com/announcing-windows-10-insider-preview-build-18362-10000/":                      "18362.10000",
		"https://blogs.windows.com/announcing-windows-10-insider-preview-build-18362-for-pc/":                     "18362",
		"https://blogs.windows.com/windows-insider/2019/05/29/hello/":                                             "",
		"https://blogs.windows.com/123456/":                                                                       "",
	}

	for link, want := range tests {
		if got := BuildNumber(link); got != want {
			t.Fatalf("BuildNumber(%q) = %q, want %q", link, got, want)
		}
	}
}

func TestBuildTypeMatches(t *testing.T) {
	pc := domain.FeedEntry{
		Link:  "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18898/",
		Title: "Announcing Windows 10 Insider Preview Build 18898",
	}
	server := domain.FeedEntry{
		Link:  "https://blogs.windows.com/announcing-windows-server-vnext-insider-preview-build-18880/",
		Title: "Announcing Windows Server vNext Insider Preview Build 18880",
	}
	skip := domain.FeedEntry{
		Link:        "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18875/",
		Title:       "Announcing Windows 10 Insider Preview Build 18875",
		Description: "Releasing to Insiders who have opted into Skip Ahead.",
	}
	other := domain.FeedEntry{
		Link:  "https://blogs.windows.com/windows-insider/2019/05/29/insider-meetup/",
		Title: "Insider meetup in Seattle",
	}

	tests := []struct {
		buildType BuildType
		entry     domain.FeedEntry
		want      bool
	}{
		{BuildTypeAny, pc, true},
		{BuildTypeAny, server, true},
		{BuildTypeAny, other, false},
		{BuildTypePC, pc, true},
		{BuildTypePC, server, false},
		{BuildTypePC, skip, false},
		{BuildTypeServer, server, true},
		{BuildTypeServer, pc, false},
		{BuildTypeSkip, skip, true},
		{BuildTypeSkip, pc, false},
	}

	for _, tt := range tests {
		if got := tt.buildType.Matches(tt.entry); got != tt.want {
			t.Fatalf("%s.Matches(%q) = %t, want %t", tt.buildType, tt.entry.Title, got, tt.want)
		}
	}
}

func TestFirstMatchKeepsFeedOrder(t *testing.T) {
	entries := []domain.FeedEntry{
		{Link: "https://blogs.windows.com/insider-meetup/", Title: "Meetup"},
		{Link: "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18898/"},
		{Link: "https://blogs.windows.com/announcing-windows-10-insider-preview-build-18895/"},
	}

	got, ok := FirstMatch(entries, BuildTypeAny)
	if !ok {
		t.Fatalf("expected a match")
	}

	if got.Link != entries[1].Link {
		t.Fatalf("unexpected match: %q", got.Link)
	}

	if _, ok = FirstMatch(entries[:1], BuildTypeAny); ok {
		t.Fatalf("expected no match for non-build posts")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected truncation of short text: %q", got)
	}

	got := Truncate("Hello Windows Insiders, today we are releasing a new build.", 24)
	if got != "Hello Windows Insiders…" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
