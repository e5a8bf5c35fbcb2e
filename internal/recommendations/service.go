package recommendations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"tool-recommender/internal/llm"
	"tool-recommender/internal/shared/config"
	"tool-recommender/internal/shared/metrics"
	"tool-recommender/internal/shared/telemetry"
	"tool-recommender/internal/shared/util"
)

// ClientFactory builds an upstream client bound to one credential.
type ClientFactory func(apiKey string) (llm.Client, error)

// Service runs the request -> prompt -> fetch -> parse pipeline.
type Service struct {
	Model        string
	Policy       RetryPolicy
	PromptFormat PromptFormat
	// APIKey is used when the caller does not supply a credential.
	APIKey  string
	Clients ClientFactory
}

// Input is one recommendation call. APIKey overrides Service.APIKey for this call only.
type Input struct {
	Request   Request
	APIKey    string
	RequestID string
	Progress  Progress
}

// Result is the parsed outcome of a successful call.
type Result struct {
	Set      Set
	Source   SourceFormat
	Attempts int
	Duration time.Duration
}

// Prompt returns the instruction the service would send for req.
func (s *Service) Prompt(req Request) string {
	return BuildPrompt(req, s.PromptFormat)
}

// Recommend validates the request, fetches a completion and parses it into a Set.
func (s *Service) Recommend(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	if err := in.Request.Validate(); err != nil {
		metrics.IncRequest(metrics.OutcomeInvalid)
		return Result{}, err
	}

	apiKey, credentialSource := strings.TrimSpace(in.APIKey), "request"
	if apiKey == "" {
		apiKey, credentialSource = strings.TrimSpace(s.APIKey), "default"
	}
	if apiKey == "" {
		metrics.IncRequest(metrics.OutcomeInvalid)
		return Result{}, ErrMissingCredential
	}
	if s.Clients == nil {
		metrics.IncRequest(metrics.OutcomeFailed)
		return Result{}, fmt.Errorf("%w: no upstream client configured", ErrTerminalTransport)
	}
	client, err := s.Clients(apiKey)
	if err != nil {
		metrics.IncRequest(metrics.OutcomeFailed)
		return Result{}, fmt.Errorf("%w: %w", ErrTerminalTransport, err)
	}

	tracker := &attemptTracker{}
	progress := progressChain{logProgress{requestID: in.RequestID}, tracker}
	if in.Progress != nil {
		progress = append(progress, in.Progress)
	}

	fetcher := NewFetcher(client, s.Model, s.Policy, progress)
	raw, err := fetcher.Fetch(ctx, s.Prompt(in.Request))
	if err != nil {
		outcome := metrics.OutcomeFailed
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			outcome = metrics.OutcomeCanceled
		case errors.Is(err, ErrServiceUnavailable):
			outcome = metrics.OutcomeUnavailable
		}
		metrics.IncRequest(outcome)
		fields := logFields(ctx, in.RequestID, apiKey, credentialSource)
		fields["outcome"] = outcome
		fields["attempts"] = tracker.attempts
		fields["error"] = err.Error()
		telemetry.Warn("recommendations.failed", fields)
		return Result{}, err
	}

	recs, source := ParseWithFormat(raw)
	set := NewSet(recs)
	elapsed := time.Since(start)

	metrics.AddDegraded(set.DegradedCount())
	metrics.IncRequest(metrics.OutcomeSuccess)
	metrics.ObserveDuration(elapsed)
	fields := logFields(ctx, in.RequestID, apiKey, credentialSource)
	fields["source"] = string(source)
	fields["count"] = set.Len()
	fields["degraded"] = set.DegradedCount()
	fields["attempts"] = tracker.attempts
	fields["duration_ms"] = elapsed.Milliseconds()
	telemetry.Info("recommendations.complete", fields)

	return Result{Set: set, Source: source, Attempts: tracker.attempts, Duration: elapsed}, nil
}

// logFields never carries the credential itself, only its fingerprint.
func logFields(ctx context.Context, requestID, apiKey, credentialSource string) map[string]any {
	fields := map[string]any{
		"request_id":        requestID,
		"credential_fp":     util.Fingerprint(apiKey),
		"credential_source": credentialSource,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}
	return fields
}

type progressChain []Progress

func (c progressChain) OnFetchEvent(s RetryState) {
	for _, p := range c {
		p.OnFetchEvent(s)
	}
}

type attemptTracker struct {
	attempts int
}

func (t *attemptTracker) OnFetchEvent(s RetryState) {
	if s.State == StateAttempting {
		t.attempts = s.Attempt
	}
}

type logProgress struct {
	requestID string
}

func (l logProgress) OnFetchEvent(s RetryState) {
	fields := map[string]any{
		"request_id":   l.requestID,
		"state":        s.State.String(),
		"attempt":      s.Attempt,
		"max_attempts": s.MaxAttempts,
	}
	if s.LastErr != nil {
		fields["error"] = s.LastErr.Error()
	}
	switch s.State {
	case StateAttempting:
		telemetry.Debug("llm.attempt", fields)
	case StateBackoff:
		fields["delay_ms"] = s.Delay.Milliseconds()
		telemetry.Warn("llm.backoff", fields)
	case StateFailed, StateExhausted:
		telemetry.Error("llm.failed", fields)
	}
}

// NewServiceFromConfig wires a Service from environment configuration.
func NewServiceFromConfig(cfg config.Config, clients ClientFactory) *Service {
	return &Service{
		Model: cfg.LLMModel,
		Policy: RetryPolicy{
			MaxAttempts:    cfg.LLMMaxAttempts,
			AttemptTimeout: cfg.LLMTimeout,
			BaseDelay:      cfg.LLMBaseDelay,
			JitterMin:      cfg.LLMJitterMin,
			JitterMax:      cfg.LLMJitterMax,
		},
		PromptFormat: ParsePromptFormat(cfg.PromptFormat),
		APIKey:       cfg.AnthropicAPIKey,
		Clients:      clients,
	}
}
