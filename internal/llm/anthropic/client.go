package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"tool-recommender/internal/llm"
	"tool-recommender/internal/shared/telemetry"
)

// StatusOverloaded is the status Anthropic returns when its API is temporarily saturated.
const StatusOverloaded = 529

// Options tune the client beyond its credential and model.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Client using the Anthropic Messages API.
type Client struct {
	api   sdk.Client
	model string
}

// NewClient constructs a new Anthropic client. The SDK's own retries are disabled;
// callers own the retry policy.
func NewClient(apiKey, model string, opts Options) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Anthropic")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &Client{
		api:   sdk.NewClient(reqOpts...),
		model: model,
	}, nil
}

// Complete sends a single user message and returns the text content blocks in order.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}

	msg, err := c.api.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(model),
		MaxTokens:   int64(maxTokens),
		Temperature: sdk.Float(req.Temperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return llm.Completion{}, classify(err)
	}

	segments := make([]string, 0, len(msg.Content))
	for _, block := range msg.Content {
		if block.Type == "text" {
			segments = append(segments, block.Text)
		}
	}
	telemetry.Debug("llm.response", map[string]any{
		"model":         model,
		"segments":      len(segments),
		"input_tokens":  msg.Usage.InputTokens,
		"output_tokens": msg.Usage.OutputTokens,
		"stop_reason":   string(msg.StopReason),
	})
	if len(segments) == 0 {
		return llm.Completion{}, fmt.Errorf("anthropic response has no text content")
	}
	return llm.Completion{Segments: segments}, nil
}

// classify tags rate-limit and overload statuses with llm.ErrOverloaded.
func classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, StatusOverloaded:
			return fmt.Errorf("%w: anthropic status %d: %v", llm.ErrOverloaded, apiErr.StatusCode, err)
		}
		return fmt.Errorf("anthropic status %d: %w", apiErr.StatusCode, err)
	}
	return fmt.Errorf("anthropic request: %w", err)
}

// Factory returns a constructor that builds a client per credential.
func Factory(model string, opts Options) func(apiKey string) (llm.Client, error) {
	return func(apiKey string) (llm.Client, error) {
		c, err := NewClient(apiKey, model, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

var _ llm.Client = (*Client)(nil)
