package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProviderAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "rsp-1",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "answer"}},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL, "test-model")
	rsp, err := p.Ask(context.Background(), "question", "be terse")
	require.NoError(t, err)
	assert.Equal(t, "answer", rsp)
}

func TestOpenAIProviderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("k", srv.URL, "m")
	_, err := p.Ask(context.Background(), "question")
	require.Error(t, err)

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Error(), "rate limited")
}

func TestOpenAIProviderNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "rsp-2", "choices": []any{}})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("k", srv.URL, "m")
	_, err := p.Ask(context.Background(), "question")
	require.Error(t, err)
}
