package feed

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"mvdan.cc/xurls/v2"
)

func htmlToText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func firstHTTPSURL(raw string) string {
	httpsURLRe, err := xurls.StrictMatchingScheme("https://")
	if err != nil {
		return ""
	}

	return strings.TrimSpace(httpsURLRe.FindString(raw))
}

// Truncate cuts text to at most maxChars runes on a word boundary and appends an ellipsis.
func Truncate(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:maxChars])

	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}

	return strings.TrimRight(cut, " ,.;:") + "…"
}
