package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/despensa/internal/common"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for key, value := range values {
		v.Set(key, value)
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("HOME", "/home/cocina")

	s, err := Load(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", s.Database.Driver)
	assert.Equal(t, "/home/cocina/.local/share/despensa/despensa.db", s.Database.Path)
	assert.Equal(t, "openai", s.LLM.Provider)
	assert.Equal(t, "sk-test", s.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", s.LLM.Model)
	assert.Equal(t, 3, s.LLM.MaxRetries)
	assert.InDelta(t, 0.6, s.Assistant.ConfidenceThreshold, 1e-9)
	assert.Equal(t, 30*time.Minute, s.Assistant.PendingTTL)
	assert.Equal(t, StoreMemory, s.Conversation.Store)
	assert.Equal(t, ":8080", s.Server.Addr)
	assert.NoError(t, s.RequireLLM())
}

func TestLoadProviderKeys(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		configKey string
		env       map[string]string
		wantKey   string
		wantModel string
	}{
		{
			name:      "anthropic env fallback",
			provider:  "Anthropic",
			env:       map[string]string{"ANTHROPIC_API_KEY": "ak"},
			wantKey:   "ak",
			wantModel: "claude-3-5-haiku-latest",
		},
		{
			name:      "gemini env fallback",
			provider:  "gemini",
			env:       map[string]string{"GEMINI_API_KEY": "gk"},
			wantKey:   "gk",
			wantModel: "gemini-2.0-flash",
		},
		{
			name:      "config key wins",
			provider:  "openai",
			configKey: "from-config",
			env:       map[string]string{"OPENAI_API_KEY": "from-env"},
			wantKey:   "from-config",
			wantModel: "gpt-4o-mini",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			values := map[string]any{"llm.provider": tt.provider}
			if tt.configKey != "" {
				values["llm.api_key"] = tt.configKey
			}

			s, err := Load(newViper(values))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, s.LLM.APIKey)
			assert.Equal(t, tt.wantModel, s.LLM.Model)
		})
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("DESPENSA_CONVERSATION_STORE", "redis")
	t.Setenv("DESPENSA_ASSISTANT_PENDING_TTL", "5m")

	v := newViper(nil)
	BindEnv(v)

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, s.Conversation.Store)
	assert.Equal(t, 5*time.Minute, s.Assistant.PendingTTL)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr error
	}{
		{"threshold above one", map[string]any{"assistant.confidence_threshold": 1.5}, common.ErrInvalidConfig},
		{"unknown store", map[string]any{"conversation.store": "memcached"}, common.ErrInvalidConfig},
		{"unknown driver", map[string]any{"database.driver": "oracle"}, common.ErrInvalidConfig},
		{"postgres without dsn", map[string]any{"database.driver": "postgres"}, common.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(tt.values))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequireLLM(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	s, err := Load(newViper(nil))
	require.NoError(t, err)
	require.ErrorIs(t, s.RequireLLM(), common.ErrMissingConfig)
	assert.Contains(t, s.RequireLLM().Error(), "OPENAI_API_KEY")

	s, err = Load(newViper(map[string]any{"llm.provider": "claudecode"}))
	require.NoError(t, err)
	require.ErrorIs(t, s.RequireLLM(), common.ErrInvalidConfig)
}
