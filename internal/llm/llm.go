package llm

import (
	"context"
	"errors"
	"strings"
)

// Fixed sampling parameters for recommendation completions.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Client abstracts LLM providers for tool recommendations.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// CompletionRequest is a single user-role message sent to the provider.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completion holds the provider's text output, either one blob or ordered segments.
type Completion struct {
	Segments []string
}

// Text concatenates the completion segments in order.
func (c Completion) Text() string {
	return strings.Join(c.Segments, "")
}

// ErrOverloaded marks a provider failure that signals temporary saturation (rate limit, overload).
var ErrOverloaded = errors.New("llm provider overloaded")

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req CompletionRequest) (Completion, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	return f(ctx, req)
}
