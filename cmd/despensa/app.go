package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/despensa/internal/analytics"
	"github.com/Veraticus/despensa/internal/assistant"
	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/config"
	"github.com/Veraticus/despensa/internal/conversation"
	"github.com/Veraticus/despensa/internal/inventory"
	"github.com/Veraticus/despensa/internal/llm"
	"github.com/Veraticus/despensa/internal/storage"
)

// openStorage opens the configured database and brings its schema up to date.
func openStorage(ctx context.Context) (*storage.SQLStorage, error) {
	if settings.Database.Path != ":memory:" {
		if err := config.EnsureDir(settings.Database.Path); err != nil {
			return nil, common.NewUserError("No pude crear el directorio de datos.",
				fmt.Errorf("failed to create data directory: %w", err))
		}
	}

	store, err := storage.Open(storage.Options{
		Driver: settings.Database.Driver,
		Path:   settings.Database.Path,
		DSN:    settings.Database.DSN,
	})
	if err != nil {
		return nil, common.NewUserError(
			fmt.Sprintf("No pude abrir la base de datos (%s).", settings.Database.Driver),
			fmt.Errorf("failed to open database: %w", err))
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("No pude actualizar el esquema de la base de datos.",
			fmt.Errorf("failed to run migrations: %w", err))
	}

	return store, nil
}

// newExtractor builds the rate-limited, cached LLM client.
func newExtractor() (*llm.Extractor, error) {
	if err := settings.RequireLLM(); err != nil {
		return nil, common.NewUserError(
			"Falta configurar el modelo de lenguaje: revisa el proveedor y su API key.", err)
	}

	cfg := llm.Config{
		Provider:    settings.LLM.Provider,
		APIKey:      settings.LLM.APIKey,
		Model:       settings.LLM.Model,
		BaseURL:     settings.LLM.BaseURL,
		Temperature: settings.LLM.Temperature,
		MaxTokens:   settings.LLM.MaxTokens,
		MaxRetries:  settings.LLM.MaxRetries,
		RetryDelay:  settings.LLM.RetryDelay,
		CacheTTL:    settings.LLM.CacheTTL,
		RateLimit:   settings.LLM.RateLimit,
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	slog.Debug("llm client ready", "provider", cfg.Provider, "model", cfg.Model)
	return llm.NewExtractor(client, cfg), nil
}

// newPendingStore builds the configured conversation store.
func newPendingStore(ctx context.Context) (conversation.Store, error) {
	switch settings.Conversation.Store {
	case config.StoreRedis:
		store, err := conversation.NewRedisStore(ctx, conversation.RedisOptions{
			Addr:     settings.Redis.Addr,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
			TTL:      settings.Assistant.PendingTTL,
		})
		if err != nil {
			return nil, common.NewUserError(
				fmt.Sprintf("No pude conectarme a Redis en %s.", settings.Redis.Addr), err)
		}
		return store, nil
	default:
		return conversation.NewMemoryStore(settings.Assistant.PendingTTL), nil
	}
}

// app is every long-lived dependency of the chat commands.
type app struct {
	store     *storage.SQLStorage
	extractor *llm.Extractor
	pending   conversation.Store
	handler   *conversation.Handler
}

func newApp(ctx context.Context) (*app, error) {
	store, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}

	extractor, err := newExtractor()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	pending, err := newPendingStore(ctx)
	if err != nil {
		extractor.Close()
		_ = store.Close()
		return nil, err
	}

	analyst := analytics.NewAnalyst(extractor, store, string(store.Dialect()))
	orchestrator := assistant.New(extractor, inventory.New(store), analyst, assistant.Config{
		ConfidenceThreshold: settings.Assistant.ConfidenceThreshold,
		PendingTTL:          settings.Assistant.PendingTTL,
	})

	return &app{
		store:     store,
		extractor: extractor,
		pending:   pending,
		handler:   conversation.NewHandler(orchestrator, pending),
	}, nil
}

func (a *app) Close() {
	if err := a.pending.Close(); err != nil {
		slog.Warn("failed to close pending store", "error", err)
	}
	a.extractor.Close()
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}
