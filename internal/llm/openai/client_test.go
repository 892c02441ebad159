package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercoach-backend/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, system string) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL + "/", Timeout: time.Second, System: system})
	require.NoError(t, err)
	return client
}

func TestFixedTemperature(t *testing.T) {
	for model, want := range map[string]bool{
		"gpt-5":       true,
		" GPT-5-mini": true,
		"o3-mini":     true,
		"gpt-4o":      false,
		"":            false,
	} {
		assert.Equal(t, want, fixedTemperature(model), model)
	}
}

func TestNewClientRequiresModelAndKey(t *testing.T) {
	_, err := NewClient(Config{APIKey: "k"})
	assert.Error(t, err)
	_, err = NewClient(Config{Model: "gpt-4o-mini"})
	assert.Error(t, err)
}

func TestCompleteSendsSystemPromptAndJSONMode(t *testing.T) {
	var got completionRequest
	var rawTemp map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		require.NoError(t, json.Unmarshal(raw, &got))
		require.NoError(t, json.Unmarshal(raw, &rawTemp))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"a\":1} "},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`))
	}, "Answer with JSON only.")

	out, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
	assert.Contains(t, rawTemp, "temperature")
}

func TestCompleteTruncatedAndRefused(t *testing.T) {
	truncated := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"a\":"},"finish_reason":"length"}]}`))
	}, "")
	_, err := truncated.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrTruncated)

	refused := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"","refusal":"cannot help"},"finish_reason":"stop"}]}`))
	}, "")
	_, err = refused.Complete(context.Background(), "hello")
	assert.ErrorContains(t, err, "cannot help")

	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}, "")
	_, err = empty.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestCompleteReturnsStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}, "")

	_, err := client.Complete(context.Background(), "hello")
	var statusErr *llm.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "overloaded", statusErr.Message)
	assert.True(t, llm.IsTransient(err))
}
