package assistant

import (
	"context"
	"log/slog"

	"github.com/Veraticus/despensa/internal/inventory"
	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/units"
)

// execute dispatches a complete action. message is the text that triggered
// execution and is what finance reports are asked about.
func (s *Service) execute(ctx context.Context, message string, action model.Action) Reply {
	f := action.Fields

	switch action.Kind {
	case model.ActionRegisterPurchase:
		quantity, unit := units.Normalize(model.StringValue(f.Unit), model.FloatValue(f.Quantity))
		result, err := s.inventory.RegisterPurchase(ctx, inventory.PurchaseRequest{
			Product:       model.StringValue(f.EntityName),
			Unit:          unit,
			Provider:      model.StringValue(f.Provider),
			PaymentMethod: model.StringValue(f.PaymentMethod),
			Quantity:      quantity,
			Cost:          model.FloatValue(f.Cost),
		})
		if err != nil {
			return persistenceFailure(err, action)
		}
		return Reply{Success: true, Response: purchaseReply(result)}

	case model.ActionRegisterExpense:
		result, err := s.inventory.RegisterExpense(ctx, inventory.ExpenseRequest{
			Category:      model.StringValue(f.ExpenseCategory),
			Provider:      model.StringValue(f.Provider),
			PaymentMethod: model.StringValue(f.PaymentMethod),
			Cost:          model.FloatValue(f.Cost),
		})
		if err != nil {
			return persistenceFailure(err, action)
		}
		return Reply{Success: true, Response: expenseReply(result)}

	case model.ActionRegisterUsage:
		quantity, unit := units.Normalize(model.StringValue(f.Unit), model.FloatValue(f.Quantity))
		result, err := s.inventory.RegisterUsage(ctx, inventory.UsageRequest{
			Product:  model.StringValue(f.EntityName),
			Unit:     unit,
			Reason:   model.StringValue(f.Reason),
			Quantity: quantity,
		})
		if err != nil {
			return persistenceFailure(err, action)
		}
		return usageReply(result)

	case model.ActionCheckStock:
		result, err := s.inventory.CheckStock(ctx, model.StringValue(f.EntityName))
		if err != nil {
			return persistenceFailure(err, action)
		}
		return Reply{Success: true, Response: StockReply(result)}

	case model.ActionFinanceReport:
		if s.analyst == nil {
			return Reply{Success: false, Response: AnalyticsUnavailableReply}
		}
		answer, err := s.analyst.Answer(ctx, message)
		if err != nil {
			logFailure(err, "finance report failed", message)
			return Reply{Success: false, Response: PersistenceFailureReply}
		}
		return Reply{Success: true, Response: answer}

	case model.ActionUnknown:
		return Reply{Success: false, Response: UnknownReply}
	}

	slog.Warn("unhandled action kind", "action", action.Kind)
	return Reply{Success: false, Response: UnknownReply}
}
