package model

import (
	"encoding/json"
	"time"
)

// PendingAction is a partially filled action waiting for the user to supply
// the remaining required fields. It is a plain value: callers persist it
// between turns and hand it back unchanged.
type PendingAction struct {
	CreatedAt       time.Time  `json:"created_at"`
	Kind            ActionKind `json:"kind"`
	OriginalMessage string     `json:"original_message"`
	Fields          Fields     `json:"fields"`
	MissingFields   []Field    `json:"missing_fields"`
}

// UnmarshalJSON drops missing field names outside AllFields; no answer could
// ever fill them.
func (p *PendingAction) UnmarshalJSON(data []byte) error {
	type plain PendingAction
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.MissingFields != nil {
		valid := make([]Field, 0, len(decoded.MissingFields))
		for _, field := range decoded.MissingFields {
			if field.Valid() {
				valid = append(valid, field)
			}
		}
		decoded.MissingFields = valid
	}
	*p = PendingAction(decoded)
	return nil
}

// Clone returns a deep copy of p.
func (p PendingAction) Clone() PendingAction {
	out := p
	out.Fields = p.Fields.Clone()
	if p.MissingFields != nil {
		out.MissingFields = make([]Field, len(p.MissingFields))
		copy(out.MissingFields, p.MissingFields)
	}
	return out
}

// Merge overlays supplement onto p and drops every missing field that now
// holds a usable value. p itself is not modified.
func (p PendingAction) Merge(supplement Fields) PendingAction {
	out := p.Clone()
	out.Fields = out.Fields.Overlay(supplement)

	remaining := make([]Field, 0, len(out.MissingFields))
	for _, field := range out.MissingFields {
		if !out.Fields.IsFilled(field) {
			remaining = append(remaining, field)
		}
	}
	out.MissingFields = remaining

	return out
}

// Ready reports whether nothing is missing.
func (p PendingAction) Ready() bool {
	return len(p.MissingFields) == 0
}

// Expired reports whether p was created more than ttl before now. A
// non-positive ttl never expires.
func (p PendingAction) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 || p.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(p.CreatedAt) > ttl
}

// Action converts p back into an executable action.
func (p PendingAction) Action() Action {
	return Action{Kind: p.Kind, Fields: p.Fields.Clone(), Confidence: 1}
}
