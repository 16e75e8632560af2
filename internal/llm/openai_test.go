package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid config",
			config: Config{APIKey: "test-key"},
		},
		{
			name:    "missing API key",
			config:  Config{},
			wantErr: true,
		},
		{
			name: "custom model and settings",
			config: Config{
				APIKey:      "test-key",
				Model:       "gpt-4o",
				Temperature: 0.5,
				MaxTokens:   200,
			},
		},
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
	tests := []struct {
		name          string
		body          string
		want          string
		statusCode    int
		wantErr       bool
		wantRetryable bool
	}{
		{
			name:       "successful completion",
			statusCode: http.StatusOK,
			body:       `{"choices":[{"message":{"role":"assistant","content":"{\"action\":\"check_stock\"}"}}]}`,
			want:       `{"action":"check_stock"}`,
		},
		{
			name:       "no choices",
			statusCode: http.StatusOK,
			body:       `{"choices":[]}`,
			wantErr:    true,
		},
		{
			name:          "rate limited",
			statusCode:    http.StatusTooManyRequests,
			body:          `{"error":{"message":"slow down"}}`,
			wantErr:       true,
			wantRetryable: true,
		},
		{
			name:          "server error",
			statusCode:    http.StatusBadGateway,
			body:          `bad gateway`,
			wantErr:       true,
			wantRetryable: true,
		},
		{
			name:       "bad request",
			statusCode: http.StatusBadRequest,
			body:       `{"error":{"message":"invalid model"}}`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			got, err := client.Complete(context.Background(), Request{System: "sys", User: "hola", JSON: true})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantRetryable, common.IsRetryable(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			assert.Equal(t, map[string]any{"type": "json_object"}, captured["response_format"])
			messages, ok := captured["messages"].([]any)
			require.True(t, ok)
			assert.Len(t, messages, 2)
		})
	}
}
