// Package conversation keeps each user's pending action between messages
// and runs messages through the assistant.
package conversation

import (
	"context"

	"github.com/Veraticus/despensa/internal/model"
)

// Store persists at most one pending action per user. Load returns nil,
// nil when the user has nothing pending.
type Store interface {
	Load(ctx context.Context, userID string) (*model.PendingAction, error)
	Save(ctx context.Context, userID string, pending model.PendingAction) error
	Clear(ctx context.Context, userID string) error
	Close() error
}
