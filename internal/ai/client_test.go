package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gitmax/gitmax/backend/go-services/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke_OutputText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4", body["model"])
		_ = json.NewEncoder(w).Encode(map[string]any{"output_text": "Overall Score: 87"})
	}))
	defer srv.Close()

	c := NewClient(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4", ResponsesURL: srv.URL})
	out, err := c.Invoke(context.Background(), "score this profile")
	require.NoError(t, err)
	assert.Equal(t, "Overall Score: 87", out)
}

func TestInvoke_NestedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output": []map[string]any{
				{"content": []map[string]any{{"type": "output_text", "text": "nested text"}}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4", ResponsesURL: srv.URL})
	out, err := c.Invoke(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "nested text", out)
}

func TestInvoke_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4", ResponsesURL: srv.URL})
	_, err := c.Invoke(context.Background(), "p")
	require.Error(t, err)
}

func TestInvoke_NotConfigured(t *testing.T) {
	c := NewClient(config.OpenAIConfig{Model: "gpt-4", ResponsesURL: "http://unused"})
	_, err := c.Invoke(context.Background(), "p")
	require.True(t, errors.Is(err, ErrNotConfigured))
}
