// Package assistant routes chat messages to inventory and finance
// operations. It holds no conversation state: the pending action is passed
// in and handed back on every call.
package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/despensa/internal/inventory"
	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/slots"
)

// DefaultConfidenceThreshold is the minimum extraction confidence acted on.
const DefaultConfidenceThreshold = 0.6

// DefaultPendingTTL is how long an unanswered pending action is kept.
const DefaultPendingTTL = 30 * time.Minute

// Extractor interprets messages.
type Extractor interface {
	Extract(ctx context.Context, message string) (model.Action, error)
	ExtractFields(ctx context.Context, message string, requested []model.Field) (model.Fields, error)
}

// Analyst answers analytical questions.
type Analyst interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Inventory executes mutations and stock queries.
type Inventory interface {
	RegisterPurchase(ctx context.Context, req inventory.PurchaseRequest) (inventory.PurchaseResult, error)
	RegisterExpense(ctx context.Context, req inventory.ExpenseRequest) (inventory.ExpenseResult, error)
	RegisterUsage(ctx context.Context, req inventory.UsageRequest) (inventory.UsageResult, error)
	CheckStock(ctx context.Context, name string) (inventory.StockResult, error)
}

// Config tunes the state machine.
type Config struct {
	// Now defaults to time.Now.
	Now                 func() time.Time
	ConfidenceThreshold float64
	// PendingTTL drops pending actions older than this. Zero keeps them
	// until answered.
	PendingTTL time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		PendingTTL:          DefaultPendingTTL,
	}
}

// Reply is the outcome of one message. Pending is non-nil when the caller
// must keep it for the next message from the same user.
type Reply struct {
	Pending  *model.PendingAction `json:"pending"`
	Response string               `json:"response"`
	Success  bool                 `json:"success"`
}

// Service is the conversation orchestrator.
type Service struct {
	extractor Extractor
	inventory Inventory
	analyst   Analyst
	cfg       Config
}

// New creates a Service. A zero ConfidenceThreshold uses the default.
func New(extractor Extractor, inv Inventory, analyst Analyst, cfg Config) *Service {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{extractor: extractor, inventory: inv, analyst: analyst, cfg: cfg}
}

var cancelWords = map[string]struct{}{
	"cancelar":  {},
	"cancela":   {},
	"olvídalo":  {},
	"olvidalo":  {},
	"cancel":    {},
	"/cancelar": {},
}

// IsCancel reports whether message asks to drop the pending action.
func IsCancel(message string) bool {
	_, ok := cancelWords[strings.ToLower(strings.Trim(strings.TrimSpace(message), ".!¡"))]
	return ok
}

// Process handles one user message. pending is the action awaiting details
// from this user, or nil. It is never modified.
func (s *Service) Process(ctx context.Context, message string, pending *model.PendingAction) Reply {
	message = strings.TrimSpace(message)

	if pending != nil {
		current := pending.Clone()
		switch {
		case IsCancel(message):
			slog.Info("pending action canceled", "action", current.Kind)
			return Reply{Success: true, Response: CancelReply}
		case current.Expired(s.cfg.Now(), s.cfg.PendingTTL):
			slog.Info("discarding expired pending action",
				"action", current.Kind,
				"created_at", current.CreatedAt,
				"ttl", s.cfg.PendingTTL)
		default:
			return s.continuePending(ctx, message, current)
		}
	} else if IsCancel(message) {
		return Reply{Success: true, Response: NothingToCancelReply}
	}

	action, err := s.extractor.Extract(ctx, message)
	if err != nil {
		logFailure(err, "intent extraction failed", message)
		action = model.UnknownAction()
	}
	return s.handleAction(ctx, message, action)
}

// handleAction runs the idle-state transitions for a freshly extracted action.
func (s *Service) handleAction(ctx context.Context, message string, action model.Action) Reply {
	if action.Confidence < s.cfg.ConfidenceThreshold {
		slog.Info("low confidence extraction", "message", message, "action", action.Kind, "confidence", action.Confidence)
		return Reply{Success: false, Response: rephraseReply(message)}
	}
	if action.Kind == model.ActionUnknown {
		return Reply{Success: false, Response: UnknownReply}
	}

	missing := slots.MissingFields(action.Kind, action.Fields)
	if len(missing) > 0 {
		pending := model.PendingAction{
			CreatedAt:       s.cfg.Now(),
			Kind:            action.Kind,
			OriginalMessage: message,
			Fields:          action.Fields.Clone(),
			MissingFields:   missing,
		}
		slog.Info("awaiting details", "action", action.Kind, "missing", missing)
		return Reply{Success: true, Response: slots.FormatMissingPrompt(missing), Pending: &pending}
	}

	return s.execute(ctx, message, action)
}

// continuePending merges a follow-up message into pending.
func (s *Service) continuePending(ctx context.Context, message string, pending model.PendingAction) Reply {
	if pending.Ready() {
		return s.execute(ctx, pending.OriginalMessage, pending.Action())
	}

	supplement, err := s.extractor.ExtractFields(ctx, message, pending.MissingFields)
	if err != nil {
		logFailure(err, "field extraction failed", message)
		supplement = model.Fields{}
	}

	if len(supplement.Only(pending.MissingFields...).Present()) == 0 {
		// Nothing answered the question; the user may have moved on.
		if action, err := s.extractor.Extract(ctx, message); err == nil &&
			action.Kind != model.ActionUnknown &&
			action.Kind != pending.Kind &&
			action.Confidence >= s.cfg.ConfidenceThreshold {
			slog.Info("replacing pending action", "previous", pending.Kind, "action", action.Kind)
			return s.handleAction(ctx, message, action)
		}
		return Reply{Success: true, Response: slots.FormatMissingPrompt(pending.MissingFields), Pending: &pending}
	}

	merged := pending.Merge(supplement)
	if !merged.Ready() {
		slog.Info("still awaiting details", "action", merged.Kind, "missing", merged.MissingFields)
		return Reply{Success: true, Response: slots.FormatMissingPrompt(merged.MissingFields), Pending: &merged}
	}

	return s.execute(ctx, message, merged.Action())
}
