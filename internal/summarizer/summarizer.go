package summarizer

import (
	"context"
)

// Input describes the payload for a summary request.
type Input struct {
	// Title is the headline of the build post.
	Title string
	// Text contains the plain text of the post body.
	Text string
	// SourceURL identifies the post and keys the summary cache.
	SourceURL string
}

// Summarizer produces a single summary for a given input text.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
