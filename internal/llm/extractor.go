package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/service"
)

// Extractor turns messages into actions through an LLM. Failures never
// surface as errors: they yield an unknown action or empty fields, and are
// logged.
type Extractor struct {
	client  Client
	cache   *extractionCache
	limiter *rateLimiter
	retry   service.RetryOptions
}

// NewExtractor wraps client with caching, rate limiting and retries taken
// from cfg. Close releases the cache goroutine.
func NewExtractor(client Client, cfg Config) *Extractor {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &Extractor{
		client:  client,
		cache:   newExtractionCache(cfg.CacheTTL),
		limiter: newRateLimiter(cfg.RateLimit),
		retry: service.RetryOptions{
			MaxAttempts:  maxRetries,
			InitialDelay: retryDelay,
			MaxDelay:     retryDelay * 30,
			Multiplier:   2.0,
		},
	}
}

// Complete sends req through the rate limiter with retries. It lets other
// packages share one rate budget with extraction.
func (e *Extractor) Complete(ctx context.Context, req Request) (string, error) {
	var content string
	err := common.WithRetry(ctx, func() error {
		if err := e.limiter.wait(ctx); err != nil {
			return common.Permanent(err)
		}
		var err error
		content, err = e.client.Complete(ctx, req)
		return err
	}, e.retry)
	return content, err
}

// Extract interprets a fresh message.
func (e *Extractor) Extract(ctx context.Context, message string) (model.Action, error) {
	if cached, ok := e.cache.get(message); ok {
		slog.Debug("extraction cache hit", "message", message, "action", cached.Kind)
		return cached, nil
	}

	content, err := e.Complete(ctx, Request{System: extractSystemPrompt, User: message, JSON: true})
	if err != nil {
		common.LogError(err, "intent extraction failed", common.Fields{"message": message})
		return model.UnknownAction(), nil
	}

	action, err := parseAction(content)
	if err != nil {
		common.LogError(err, "malformed extraction response", common.Fields{"message": message, "content": content})
		return model.UnknownAction(), nil
	}

	slog.Debug("extracted action",
		"message", message,
		"action", action.Kind,
		"confidence", action.Confidence,
		"fields", action.Fields.Present())

	if action.Kind != model.ActionUnknown {
		e.cache.set(message, action)
	}
	return action, nil
}

// ExtractFields extracts only the requested fields from a follow-up
// message.
func (e *Extractor) ExtractFields(ctx context.Context, message string, requested []model.Field) (model.Fields, error) {
	if len(requested) == 0 {
		return model.Fields{}, nil
	}

	content, err := e.Complete(ctx, Request{System: fieldsPrompt(requested), User: message, JSON: true})
	if err != nil {
		common.LogError(err, "field extraction failed", common.Fields{"message": message})
		return model.Fields{}, nil
	}

	fields, err := parseFields(content, requested)
	if err != nil {
		common.LogError(err, "malformed field extraction response", common.Fields{"message": message, "content": content})
		return model.Fields{}, nil
	}

	slog.Debug("extracted fields", "message", message, "requested", requested, "found", fields.Present())
	return fields, nil
}

// Close stops background work.
func (e *Extractor) Close() {
	e.cache.Close()
}
