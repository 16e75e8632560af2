package conversation

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/despensa/internal/assistant"
	"github.com/Veraticus/despensa/internal/metrics"
	"github.com/Veraticus/despensa/internal/model"
)

// Processor runs one message through the assistant.
type Processor interface {
	Process(ctx context.Context, message string, pending *model.PendingAction) assistant.Reply
}

// Handler threads each user's pending action through the assistant.
type Handler struct {
	processor Processor
	store     Store
}

// NewHandler creates a Handler.
func NewHandler(processor Processor, store Store) *Handler {
	return &Handler{processor: processor, store: store}
}

// Handle processes text for userID. A pending action that cannot be loaded
// is treated as absent; one that cannot be saved is logged and the reply
// is still returned. The error is reserved for a canceled context.
func (h *Handler) Handle(ctx context.Context, userID, text string) (assistant.Reply, error) {
	start := time.Now()
	defer func() {
		metrics.MessageDuration.Observe(time.Since(start).Seconds())
	}()

	pending, err := h.store.Load(ctx, userID)
	loadFailed := err != nil
	if loadFailed {
		metrics.StoreErrors.WithLabelValues("load").Inc()
		slog.Warn("failed to load pending action", "user", userID, "error", err)
		pending = nil
	}

	reply := h.processor.Process(ctx, text, pending)
	if err := ctx.Err(); err != nil {
		return reply, err
	}

	if reply.Pending != nil {
		if err := h.store.Save(ctx, userID, *reply.Pending); err != nil {
			metrics.StoreErrors.WithLabelValues("save").Inc()
			slog.Error("failed to save pending action", "user", userID, "error", err)
		}
	} else if pending != nil || loadFailed {
		if err := h.store.Clear(ctx, userID); err != nil {
			metrics.StoreErrors.WithLabelValues("clear").Inc()
			slog.Error("failed to clear pending action", "user", userID, "error", err)
		}
	}

	metrics.MessagesProcessed.WithLabelValues(result(reply)).Inc()
	return reply, nil
}

func result(reply assistant.Reply) string {
	switch {
	case reply.Pending != nil:
		return metrics.ResultPending
	case reply.Success:
		return metrics.ResultExecuted
	default:
		return metrics.ResultFailed
	}
}
