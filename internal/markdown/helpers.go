// Package markdown escapes text for Telegram MarkdownV2 messages.
package markdown

import "strings"

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const (
	textSpecialChars = `_*[]()~` + "`" + `>#+-=|{}.!\`
	linkSpecialChars = `)\`
)

var (
	textLookup = charLookup(textSpecialChars)
	linkLookup = charLookup(linkSpecialChars)
)

// EscapeV2 escapes plain text placed anywhere outside of a link target.
func EscapeV2(input string) string {
	return escape(input, &textLookup)
}

// EscapeLinkURL escapes the URL part of an inline link, `[text](url)`.
func EscapeLinkURL(input string) string {
	return escape(input, &linkLookup)
}

func escape(input string, lookup *[256]bool) string {
	charsToEscape := 0

	for i := range len(input) {
		if lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

func charLookup(chars string) [256]bool {
	var m [256]bool
	for _, c := range []byte(chars) {
		m[c] = true
	}
	return m
}
