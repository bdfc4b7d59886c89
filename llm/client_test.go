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

func completionResponse(content string) OpenAIResponse {
	return OpenAIResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}}}
}

func TestClientGenerate(t *testing.T) {
	var captured OpenAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(completionResponse(`{"rating": 72}`))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL, "test-key", "test-model")
	got, err := client.Generate(context.Background(), "rate this budget", GenerationOptions{
		MaxTokens: 250, Temperature: 0.6, TopP: 0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"rating": 72}`, got)

	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, 250, captured.MaxTokens)
	assert.InDelta(t, 0.6, captured.Temperature, 0.001)
	assert.InDelta(t, 0.9, captured.TopP, 0.001)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, systemPersona, captured.Messages[0].Content)
	assert.Equal(t, "rate this budget", captured.Messages[1].Content)
}

func TestClientGenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(OpenAIResponse{})
			},
			wantErr: ErrEmptyResponse,
		},
		{
			name: "empty message content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(completionResponse(""))
			},
			wantErr: ErrEmptyResponse,
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClientWithURL(server.URL, "k", "m")
			_, err := client.Generate(context.Background(), "prompt", OptionsFor(PurposeSpendingRating))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestClientGenerateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClientWithURL(server.URL, "k", "m")
	_, err := client.Generate(context.Background(), "prompt", OptionsFor(PurposeSpendingRating))
	require.Error(t, err)
}
