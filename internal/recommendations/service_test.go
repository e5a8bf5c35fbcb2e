package recommendations

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tool-recommender/internal/llm"
	"tool-recommender/internal/shared/telemetry"
	"tool-recommender/internal/shared/util"
)

const twoToolMarkdown = "# Tool A\n## Match Score\n90%\n## Features\n- X\n- Y\n# Tool B\n## Match Score\n42%"

type factoryRecorder struct {
	keys   []string
	client llm.Client
	err    error
}

func (f *factoryRecorder) build(apiKey string) (llm.Client, error) {
	f.keys = append(f.keys, apiKey)
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: maxAttempts}
}

func newTestService(factory *factoryRecorder) *Service {
	return &Service{
		Model:        "claude-test",
		Policy:       fastPolicy(3),
		PromptFormat: PromptMarkdown,
		APIKey:       "default-key",
		Clients:      factory.build,
	}
}

func TestRecommendParsesCompletion(t *testing.T) {
	client := &scriptedClient{results: []error{nil}, text: twoToolMarkdown}
	factory := &factoryRecorder{client: client}
	svc := newTestService(factory)

	result, err := svc.Recommend(context.Background(), Input{Request: sampleRequest(t), RequestID: "req-1"})

	require.NoError(t, err)
	assert.Equal(t, SourceMarkdown, result.Source)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 2, result.Set.Len())
	assert.Equal(t, []string{"default-key"}, factory.keys)
	require.Len(t, client.reqs, 1)
	assert.Equal(t, BuildPrompt(sampleRequest(t), PromptMarkdown), client.reqs[0].Prompt)
	assert.Equal(t, "claude-test", client.reqs[0].Model)
}

func TestRecommendLogsCredentialFingerprintOnly(t *testing.T) {
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	factory := &factoryRecorder{client: &scriptedClient{results: []error{nil}, text: twoToolMarkdown}}
	svc := newTestService(factory)

	_, err := svc.Recommend(context.Background(), Input{Request: sampleRequest(t), APIKey: "sk-ant-user-secret", RequestID: "req-fp"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "recommendations.complete")
	assert.Contains(t, out, util.Fingerprint("sk-ant-user-secret"))
	assert.Contains(t, out, `"credential_source":"request"`)
	assert.NotContains(t, out, "sk-ant-user-secret")
}

func TestRecommendPrefersRequestCredential(t *testing.T) {
	factory := &factoryRecorder{client: &scriptedClient{results: []error{nil}, text: twoToolMarkdown}}
	svc := newTestService(factory)

	_, err := svc.Recommend(context.Background(), Input{Request: sampleRequest(t), APIKey: " user-key "})

	require.NoError(t, err)
	assert.Equal(t, []string{"user-key"}, factory.keys)
}

func TestRecommendRejectsInvalidRequestBeforeNetwork(t *testing.T) {
	factory := &factoryRecorder{client: &scriptedClient{}}
	svc := newTestService(factory)

	_, err := svc.Recommend(context.Background(), Input{Request: Request{BusinessSize: "giant"}})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, factory.keys)
}

func TestRecommendRequiresCredential(t *testing.T) {
	factory := &factoryRecorder{client: &scriptedClient{}}
	svc := newTestService(factory)
	svc.APIKey = ""

	_, err := svc.Recommend(context.Background(), Input{Request: sampleRequest(t)})

	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Empty(t, factory.keys)
}

func TestRecommendClientConstructionFailureIsTerminal(t *testing.T) {
	factory := &factoryRecorder{err: errors.New("bad base url")}
	svc := newTestService(factory)

	_, err := svc.Recommend(context.Background(), Input{Request: sampleRequest(t)})

	assert.ErrorIs(t, err, ErrTerminalTransport)
}

func TestRecommendSurfacesExhaustion(t *testing.T) {
	client := &scriptedClient{results: []error{llm.ErrOverloaded}}
	svc := newTestService(&factoryRecorder{client: client})
	var events []FetchState

	_, err := svc.Recommend(context.Background(), Input{
		Request:  sampleRequest(t),
		Progress: ProgressFunc(func(s RetryState) { events = append(events, s.State) }),
	})

	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, 3, client.calls)
	require.NotEmpty(t, events)
	assert.Equal(t, StateExhausted, events[len(events)-1])
}

func TestRecommendEmptyParseIsNotAnError(t *testing.T) {
	client := &scriptedClient{results: []error{nil}, text: "Sorry, I cannot help with that."}
	svc := newTestService(&factoryRecorder{client: client})

	result, err := svc.Recommend(context.Background(), Input{Request: sampleRequest(t)})

	require.NoError(t, err)
	assert.Equal(t, SourceNone, result.Source)
	assert.Equal(t, 0, result.Set.Len())
}
