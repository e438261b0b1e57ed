package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClientComplete(t *testing.T) {
	var got completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "I hear you."}},
			},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4")
	client.endpoint = server.URL

	reply, err := client.Complete(context.Background(), []ChatTurn{
		{Role: "user", Content: "I feel overwhelmed"},
	})
	require.NoError(t, err)
	assert.Equal(t, "I hear you.", reply)

	assert.Equal(t, "gpt-4", got.Model)
	require.Len(t, got.Messages, 2, "system prompt is prepended to the history")
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "I feel overwhelmed", got.Messages[1].Content)
}

func TestOpenAIClientCompleteUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4")
	client.endpoint = server.URL

	_, err := client.Complete(context.Background(), []ChatTurn{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}

func TestOpenAIClientCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4")
	client.endpoint = server.URL

	_, err := client.Complete(context.Background(), []ChatTurn{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}
