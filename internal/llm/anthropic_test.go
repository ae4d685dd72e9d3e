package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
)

func TestNewAnthropicClient(t *testing.T) {
	_, err := newAnthropicClient(Config{})
	require.Error(t, err)

	client, err := newAnthropicClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, defaultAnthropicURL, client.baseURL)
	assert.Equal(t, 300, client.maxTokens)
}

func TestAnthropicClient_Complete(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"contains_financial_info\": "},{"type":"text","text":"true}"}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	got, err := client.Complete(context.Background(), "be strict", "spent 10 on lunch")
	require.NoError(t, err)
	assert.Equal(t, `{"contains_financial_info": true}`, got)
	assert.Equal(t, "be strict", gotBody["system"])
}

func TestAnthropicClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.False(t, common.IsRetryable(err))
}

func TestAnthropicClient_Overloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error"}}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, common.ErrOracleUnavailable)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)

	_, err = NewClient(Config{Provider: "anthropic", APIKey: "k"})
	require.NoError(t, err)

	_, err = NewClient(Config{Provider: "claudecode", APIKey: "k"})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
