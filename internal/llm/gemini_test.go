package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"action\":\"unknown\",\"confidence\":0.1}"}]}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Provider: "gemini",
		APIKey:   "test-key",
		Model:    "gemini-test",
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	got, err := client.Complete(context.Background(), Request{System: "sys", User: "hola", JSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"unknown","confidence":0.1}`, got)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{provider: "openai"},
		{provider: "Anthropic"},
		{provider: "gemini"},
		{provider: "claudecode", wantErr: true},
		{provider: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			client, err := NewClient(Config{Provider: tt.provider, APIKey: "key"})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}
