package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/llm"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	t.Setenv("DOCQA_TEST_KEY", "sk-test")
	c, err := NewClient(Config{BaseURL: url, APIKeyEnv: "DOCQA_TEST_KEY", MaxRetries: retries})
	require.NoError(t, err)
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	t.Setenv("DOCQA_TEST_KEY", "sk-test")
	c, err := NewClient(Config{APIKeyEnv: "DOCQA_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Zero(t, c.maxRetries)
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("DOCQA_TEST_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "DOCQA_TEST_KEY"})
	assert.Error(t, err)
}

func TestGenerate_SendsPromptAsUserMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "What is the rate?", req.Messages[0].Content)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  3.5%\n"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv.URL, 0).Generate(context.Background(), "What is the rate?")
	require.NoError(t, err)
	assert.Equal(t, "3.5%", out)
}

func TestGenerate_StatusError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 0).Generate(context.Background(), "q")
	var se *llm.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_WithRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	base := newTestClient(t, srv.URL, 0)
	out, err := base.WithRetries(2).Generate(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, base.maxRetries)
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 0).Generate(context.Background(), "q")
	assert.Error(t, err)
}
