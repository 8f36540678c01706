package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid config", config: Config{APIKey: "test-key"}},
		{name: "missing API key", config: Config{}, wantErr: true},
		{name: "custom model and settings", config: Config{APIKey: "test-key", Model: "gpt-4o", Temperature: 0.5, MaxTokens: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	t.Run("successful completion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "gpt-4o-mini", body["model"])
			assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"choices": [{"message": {"role": "assistant", "content": "{\"categorizations\":[]}"}}],
				"usage": {"prompt_tokens": 1000, "completion_tokens": 500, "total_tokens": 1500}
			}`))
		}))
		defer server.Close()

		client, err := newOpenAIClient(Config{
			APIKey:  "test-key",
			BaseURL: server.URL + "/",
			Pricing: Pricing{InputPerMillion: 1, OutputPerMillion: 2},
		})
		require.NoError(t, err)

		resp, err := client.Complete(context.Background(), "system", "prompt")
		require.NoError(t, err)
		assert.Equal(t, `{"categorizations":[]}`, resp.Content)
		assert.Equal(t, 1500, resp.Usage.TotalTokens)
		assert.Equal(t, "gpt-4o-mini", resp.Usage.Model)
		assert.InDelta(t, 0.002, resp.Usage.EstimatedCost, 1e-9)
	})

	t.Run("rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
		}))
		defer server.Close()

		client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), "s", "p")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrRateLimit)
		assert.Contains(t, err.Error(), "status 429")
	})

	t.Run("client error is not retryable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), "s", "p")
		require.Error(t, err)
		assert.False(t, common.IsRetryable(err))
	})

	t.Run("unreachable server is retryable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: url})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), "s", "p")
		require.Error(t, err)
		assert.True(t, common.IsRetryable(err))
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), "s", "p")
		assert.ErrorContains(t, err, "no completion choices")
	})
}
