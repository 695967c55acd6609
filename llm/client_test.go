package llm

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
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:      "gsk_test_key_123456",
		BaseURL:     srv.URL + "/v1",
		Model:       "llama-3.1-8b-instant",
		MaxTokens:   1500,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	})
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "llama-3.1-8b-instant",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": msg, "type": "invalid_request_error"},
	})
}

func TestComplete_Success(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk_test_key_123456", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, `[{"question":"q"}]`)
	})

	out, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `[{"question":"q"}]`, out)

	assert.Equal(t, "llama-3.1-8b-instant", got["model"])
	assert.EqualValues(t, 1500, got["max_tokens"])
	assert.InDelta(t, 0.7, got["temperature"], 0.001)
	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
	assert.Equal(t, "hello", messages[0].(map[string]any)["content"])
}

func TestComplete_MissingCredential(t *testing.T) {
	for _, key := range []string{"", "   ", placeholderKey} {
		client := NewClient(Config{APIKey: key, BaseURL: "http://127.0.0.1:1"})
		_, err := client.Complete(context.Background(), "hi")
		assert.ErrorIs(t, err, ErrMissingCredential, "key %q", key)
	}
}

func TestComplete_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindAuthentication},
		{http.StatusForbidden, KindAuthentication},
		{http.StatusInternalServerError, KindUpstream},
		{http.StatusBadRequest, KindUpstream},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeAPIError(w, tt.status, "nope")
			})

			_, err := client.Complete(context.Background(), "hi")
			require.Error(t, err)

			var llmErr *Error
			require.True(t, errors.As(err, &llmErr))
			assert.Equal(t, tt.want, llmErr.Kind)
			assert.Equal(t, tt.status, llmErr.StatusCode)
		})
	}
}

func TestComplete_NonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	})

	_, err := client.Complete(context.Background(), "hi")
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindRateLimited, kind)
}

func TestComplete_Connectivity(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Config{APIKey: "gsk_test_key_123456", BaseURL: url, Timeout: time.Second})

	_, err := client.Complete(context.Background(), "hi")
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindConnectivity, kind)
}

func TestComplete_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := client.Complete(context.Background(), "hi")
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindUpstream, kind)
}

func TestKindOf_Plain(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
}
