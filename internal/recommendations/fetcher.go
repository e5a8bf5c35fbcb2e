package recommendations

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"tool-recommender/internal/llm"
	"tool-recommender/internal/shared/metrics"
)

var tracer = otel.Tracer("tool-recommender/recommendations")

// RetryPolicy bounds the upstream retry loop.
type RetryPolicy struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	BaseDelay      time.Duration
	JitterMin      time.Duration
	JitterMax      time.Duration
}

// DefaultRetryPolicy returns the production retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		AttemptTimeout: 60 * time.Second,
		BaseDelay:      2 * time.Second,
		JitterMin:      0,
		JitterMax:      time.Second,
	}
}

// FetchState is a state of the fetch state machine.
type FetchState int

const (
	StateIdle FetchState = iota
	StateAttempting
	StateBackoff
	StateSucceeded
	StateFailed
	StateExhausted
)

func (s FetchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can follow.
func (s FetchState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateExhausted
}

// RetryState is the transient state of one Fetch call. It is never shared between calls.
type RetryState struct {
	State       FetchState
	Attempt     int
	MaxAttempts int
	LastErr     error
	Delay       time.Duration
}

// Progress receives every state transition of a fetch.
type Progress interface {
	OnFetchEvent(RetryState)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(RetryState)

// OnFetchEvent calls f.
func (f ProgressFunc) OnFetchEvent(s RetryState) { f(s) }

// NopProgress discards events.
type NopProgress struct{}

// OnFetchEvent does nothing.
func (NopProgress) OnFetchEvent(RetryState) {}

// Fetcher calls the upstream model with bounded retries on transient overload.
type Fetcher struct {
	client   llm.Client
	model    string
	policy   RetryPolicy
	progress Progress

	jitter func(min, max time.Duration) time.Duration
	after  func(time.Duration) <-chan time.Time
}

// NewFetcher constructs a Fetcher. A zero MaxAttempts falls back to the default policy's.
func NewFetcher(client llm.Client, model string, policy RetryPolicy, progress Progress) *Fetcher {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy().MaxAttempts
	}
	if progress == nil {
		progress = NopProgress{}
	}
	return &Fetcher{
		client:   client,
		model:    model,
		policy:   policy,
		progress: progress,
		jitter:   uniformJitter,
		after:    time.After,
	}
}

// Fetch sends the prompt and returns the concatenated completion text.
//
// Only transient-overload failures are retried. Cancellation of ctx is honored before each
// attempt and during the backoff wait; an attempt already issued runs until it completes or
// hits AttemptTimeout.
func (f *Fetcher) Fetch(ctx context.Context, prompt string) (string, error) {
	st := RetryState{State: StateIdle, MaxAttempts: f.policy.MaxAttempts}
	f.emit(&st, StateIdle)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			st.LastErr = err
			f.emit(&st, StateFailed)
			return "", fmt.Errorf("fetch canceled: %w", err)
		}

		st.Attempt = attempt
		st.Delay = 0
		f.emit(&st, StateAttempting)

		text, err := f.attempt(ctx, prompt, attempt)
		if err == nil {
			metrics.IncAttempt(metrics.OutcomeSuccess)
			st.LastErr = nil
			f.emit(&st, StateSucceeded)
			return text, nil
		}
		st.LastErr = err

		if !IsTransientOverload(err) {
			metrics.IncAttempt(metrics.OutcomeFailed)
			f.emit(&st, StateFailed)
			return "", fmt.Errorf("%w: %w", ErrTerminalTransport, err)
		}
		metrics.IncAttempt(metrics.OutcomeOverloaded)

		if attempt >= f.policy.MaxAttempts {
			f.emit(&st, StateExhausted)
			return "", fmt.Errorf("%w after %d attempts: %w", ErrServiceUnavailable, attempt, err)
		}

		st.Delay = f.backoff(attempt)
		f.emit(&st, StateBackoff)
		select {
		case <-ctx.Done():
			st.LastErr = ctx.Err()
			f.emit(&st, StateFailed)
			return "", fmt.Errorf("fetch canceled during backoff: %w", ctx.Err())
		case <-f.after(st.Delay):
		}
	}
}

func (f *Fetcher) attempt(ctx context.Context, prompt string, attempt int) (string, error) {
	attemptCtx := context.WithoutCancel(ctx)
	if f.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(attemptCtx, f.policy.AttemptTimeout)
		defer cancel()
	}

	attemptCtx, span := tracer.Start(attemptCtx, "recommendations.fetch_attempt")
	defer span.End()
	span.SetAttributes(
		attribute.Int("fetch.attempt", attempt),
		attribute.Int("fetch.max_attempts", f.policy.MaxAttempts),
		attribute.String("llm.model", f.model),
	)

	completion, err := f.client.Complete(attemptCtx, llm.CompletionRequest{
		Model:       f.model,
		Prompt:      prompt,
		Temperature: llm.DefaultTemperature,
		MaxTokens:   llm.DefaultMaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	text := completion.Text()
	span.SetAttributes(attribute.Int("llm.response.content_length", len(text)))
	return text, nil
}

// backoff returns attempt*BaseDelay plus uniform jitter, recomputed on every call.
func (f *Fetcher) backoff(attempt int) time.Duration {
	return time.Duration(attempt)*f.policy.BaseDelay + f.jitter(f.policy.JitterMin, f.policy.JitterMax)
}

func (f *Fetcher) emit(st *RetryState, next FetchState) {
	st.State = next
	f.progress.OnFetchEvent(*st)
}

func uniformJitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}

// IsTransientOverload reports whether err signals temporary upstream saturation.
func IsTransientOverload(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, llm.ErrOverloaded) || errors.Is(err, ErrTransientOverload) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, signal := range []string{"overloaded", "rate limit", "rate_limit", "too many requests", "status 429", "status 529"} {
		if strings.Contains(msg, signal) {
			return true
		}
	}
	return false
}
