package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tool-recommender/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient("test-key", "claude-test", Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresCredentialAndModel(t *testing.T) {
	_, err := NewClient("", "claude-test", Options{})
	assert.Error(t, err)
	_, err = NewClient("key", " ", Options{})
	assert.Error(t, err)
}

func TestCompleteConcatenatesTextBlocks(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [
				{"type": "text", "text": "# Tool A\n"},
				{"type": "text", "text": "## Match Score\n90%"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 20}
		}`))
	})

	completion, err := client.Complete(context.Background(), llm.CompletionRequest{
		Prompt:      "recommend tools",
		Temperature: llm.DefaultTemperature,
		MaxTokens:   llm.DefaultMaxTokens,
	})
	require.NoError(t, err)
	assert.Equal(t, "# Tool A\n## Match Score\n90%", completion.Text())

	assert.Equal(t, "claude-test", got["model"])
	assert.EqualValues(t, 2000, got["max_tokens"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-9)
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestCompleteClassifiesStatuses(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		errType    string
		overloaded bool
	}{
		{name: "overloaded", status: StatusOverloaded, errType: "overloaded_error", overloaded: true},
		{name: "rate_limited", status: http.StatusTooManyRequests, errType: "rate_limit_error", overloaded: true},
		{name: "unauthorized", status: http.StatusUnauthorized, errType: "authentication_error", overloaded: false},
		{name: "bad_request", status: http.StatusBadRequest, errType: "invalid_request_error", overloaded: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"type":"error","error":{"type":"` + tc.errType + `","message":"nope"}}`))
			})

			_, err := client.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
			require.Error(t, err)
			assert.Equal(t, tc.overloaded, errors.Is(err, llm.ErrOverloaded))
		})
	}
}
