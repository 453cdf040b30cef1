package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	domsvc "EventPulse/internal/domain/service"
)

const (
	DefaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 10

	systemPrompt = "You label SEC filing descriptions for an investor. " +
		"Answer with exactly one word: Positive, Negative or Neutral."
)

// ClaudeClassifier labels filing descriptions with the Anthropic Messages API.
type ClaudeClassifier struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewClaudeClassifier builds a classifier. Extra request options (base URL, retries)
// are passed through to the SDK client.
func NewClaudeClassifier(apiKey, model string, maxTokens int, opts ...option.RequestOption) (*ClaudeClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &ClaudeClassifier{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

var _ domsvc.SentimentClassifier = (*ClaudeClassifier)(nil)

func (c *ClaudeClassifier) Classify(ctx context.Context, text string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Filing: " + text)),
		},
	}
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude classify: %w", err)
	}

	var answer strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}
	label, ok := domsvc.NormalizeSentiment(answer.String())
	if !ok {
		return "", fmt.Errorf("claude classify: unexpected answer %q", answer.String())
	}
	return label, nil
}
