package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/storage"
)

// EnvPrefix is the prefix of every environment override, as in
// DESPENSA_LLM_PROVIDER.
const EnvPrefix = "DESPENSA"

// Settings is the resolved configuration of every command.
type Settings struct {
	Database     Database
	LLM          LLM
	Redis        Redis
	Conversation Conversation
	Server       Server
	Assistant    Assistant
	Logging      Logging
}

// Database selects the storage backend.
type Database struct {
	Driver string
	Path   string
	DSN    string
}

// LLM configures the language model provider.
type LLM struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	MaxRetries  int
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// Redis locates the Redis server used by the redis conversation store.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Conversation selects where pending actions live between messages.
type Conversation struct {
	Store string
}

// Server configures the HTTP transport.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
}

// Assistant tunes the orchestrator.
type Assistant struct {
	ConfidenceThreshold float64
	PendingTTL          time.Duration
}

// Logging configures slog.
type Logging struct {
	Level  string
	Format string
}

// Store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-haiku-latest",
	"gemini":    "gemini-2.0-flash",
	"google":    "gemini-2.0-flash",
}

var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"google":    "GEMINI_API_KEY",
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.cache_ttl", 15*time.Minute)
	v.SetDefault("llm.rate_limit", 60)

	v.SetDefault("assistant.confidence_threshold", 0.6)
	v.SetDefault("assistant.pending_ttl", 30*time.Minute)

	v.SetDefault("conversation.store", StoreMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// BindEnv makes every key overridable through DESPENSA_ variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load resolves Settings from v. Provider API keys fall back to the
// provider's conventional environment variable.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Database: Database{
			Driver: v.GetString("database.driver"),
			Path:   ExpandPath(v.GetString("database.path")),
			DSN:    v.GetString("database.dsn"),
		},
		LLM: LLM{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			RateLimit:   v.GetInt("llm.rate_limit"),
		},
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Conversation: Conversation{
			Store: strings.ToLower(v.GetString("conversation.store")),
		},
		Server: Server{
			Addr:           v.GetString("server.addr"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Assistant: Assistant{
			ConfidenceThreshold: v.GetFloat64("assistant.confidence_threshold"),
			PendingTTL:          v.GetDuration("assistant.pending_ttl"),
		},
		Logging: Logging{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if s.LLM.APIKey == "" {
		if name, ok := apiKeyEnv[s.LLM.Provider]; ok {
			s.LLM.APIKey = os.Getenv(name)
		}
	}
	if s.LLM.Model == "" {
		s.LLM.Model = defaultModels[s.LLM.Provider]
	}

	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) validate() error {
	if s.Assistant.ConfidenceThreshold < 0 || s.Assistant.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: assistant.confidence_threshold must be between 0 and 1, got %v",
			common.ErrInvalidConfig, s.Assistant.ConfidenceThreshold)
	}
	switch s.Conversation.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown conversation.store %q", common.ErrInvalidConfig, s.Conversation.Store)
	}
	dialect, err := storage.ParseDialect(s.Database.Driver)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if dialect == storage.DialectPostgres && s.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is required for postgres", common.ErrMissingConfig)
	}
	return nil
}

// RequireLLM reports whether the LLM settings can build a client.
func (s Settings) RequireLLM() error {
	if _, ok := apiKeyEnv[s.LLM.Provider]; !ok {
		return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, s.LLM.Provider)
	}
	if s.LLM.APIKey == "" {
		return fmt.Errorf("%w: no API key for %s; set llm.api_key or %s",
			common.ErrMissingConfig, s.LLM.Provider, apiKeyEnv[s.LLM.Provider])
	}
	return nil
}
