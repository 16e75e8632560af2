// Package model defines the actions, pending actions, entities and ledger
// records the assistant works with.
package model

import "encoding/json"

// ActionKind identifies what the user asked the assistant to do.
type ActionKind string

const (
	// ActionRegisterPurchase buys stock: an expense plus a stock increase.
	ActionRegisterPurchase ActionKind = "register_purchase"
	// ActionRegisterExpense records a payment with no stock effect.
	ActionRegisterExpense ActionKind = "register_expense"
	// ActionRegisterUsage consumes stock.
	ActionRegisterUsage ActionKind = "register_usage"
	// ActionCheckStock reports current stock for one product or all of them.
	ActionCheckStock ActionKind = "check_stock"
	// ActionFinanceReport is an analytical question about the books.
	ActionFinanceReport ActionKind = "finance_report"
	// ActionUnknown means the message could not be classified.
	ActionUnknown ActionKind = "unknown"
)

// ActionKinds lists every known kind, ActionUnknown last.
var ActionKinds = []ActionKind{
	ActionRegisterPurchase,
	ActionRegisterExpense,
	ActionRegisterUsage,
	ActionCheckStock,
	ActionFinanceReport,
	ActionUnknown,
}

// ParseActionKind maps a wire value to an ActionKind. Anything unrecognized
// becomes ActionUnknown.
func ParseActionKind(s string) ActionKind {
	for _, k := range ActionKinds {
		if string(k) == s {
			return k
		}
	}
	return ActionUnknown
}

// String implements fmt.Stringer.
func (k ActionKind) String() string {
	return string(k)
}

// Action is a single structured interpretation of a user message.
type Action struct {
	Kind       ActionKind
	Fields     Fields
	Confidence float64
}

// UnknownAction is what a failed or unparsable extraction yields.
func UnknownAction() Action {
	return Action{Kind: ActionUnknown}
}

// UnmarshalJSON decodes through ParseActionKind so stored values from older
// versions cannot introduce unknown kinds.
func (k *ActionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseActionKind(s)
	return nil
}
