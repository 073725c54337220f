package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	initialOutputTokens int64 = 512
	maxOutputTokens     int64 = 2048
	maxPostRunes              = 8000

	incompleteStatus     = "incomplete"
	outputTokensExceeded = "max_output_tokens"

	buildPostInstructions = `You write the one-line blurb under a Windows Insider build announcement.

Rules:
- One sentence, at most 30 words.
- Lead with the most notable new feature or fix.
- Skip known issues, sign-up instructions and the build number.
- Neutral tone, no emojis, no links.
- English only.`
)

var errEmptyPost = errors.New("build post is empty")

// OpenAISummarizer asks the Responses API for a blurb of a build post.
type OpenAISummarizer struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAISummarizer(apiKey string) (*OpenAISummarizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("API key is empty")
	}

	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT5Mini2025_08_07,
	}, nil
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, input Input) (string, error) {
	prompt, err := buildPrompt(input)
	if err != nil {
		return "", err
	}

	// The budget doubles while the model runs out of output tokens.
	for budget := initialOutputTokens; ; budget = min(budget*2, maxOutputTokens) {
		resp, err := s.client.Responses.New(ctx, s.params(prompt, budget))
		if err != nil {
			return "", fmt.Errorf("create response: %w", err)
		}

		if resp.Status == incompleteStatus {
			reason := resp.IncompleteDetails.Reason
			if reason == outputTokensExceeded && budget < maxOutputTokens {
				continue
			}

			return "", fmt.Errorf("response is incomplete (reason = %s, budget = %d)", reason, budget)
		}

		blurb := strings.Join(strings.Fields(resp.OutputText()), " ")
		if blurb == "" {
			return "", fmt.Errorf("response has no text (status = %s)", resp.Status)
		}

		return blurb, nil
	}
}

func (s *OpenAISummarizer) params(prompt string, budget int64) responses.ResponseNewParams {
	return responses.ResponseNewParams{
		Model:           s.model,
		ServiceTier:     responses.ResponseNewParamsServiceTierFlex,
		MaxOutputTokens: openai.Int(budget),
		Reasoning: responses.ReasoningParam{
			Effort: openai.ReasoningEffortLow,
		},
		Instructions: openai.String(buildPostInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	}
}

func buildPrompt(input Input) (string, error) {
	post := strings.TrimSpace(input.Text)
	if post == "" {
		return "", errEmptyPost
	}

	if runes := []rune(post); len(runes) > maxPostRunes {
		post = string(runes[:maxPostRunes])
	}

	var prompt strings.Builder

	if title := strings.TrimSpace(input.Title); title != "" {
		fmt.Fprintf(&prompt, "Title: %s\n", title)
	}

	if link := strings.TrimSpace(input.SourceURL); link != "" {
		fmt.Fprintf(&prompt, "Link: %s\n", link)
	}

	prompt.WriteString("\n")
	prompt.WriteString(post)

	return prompt.String(), nil
}
