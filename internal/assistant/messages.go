package assistant

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/inventory"
	"github.com/Veraticus/despensa/internal/model"
	"github.com/Veraticus/despensa/internal/resolver"
)

// Fixed replies.
const (
	UnknownReply              = `No entendí qué operación quieres realizar. Prueba con frases como "compré 2 kg de harina por $3000 en Líder con débito" o "usé 500 g de azúcar".`
	PersistenceFailureReply   = "❌ Ocurrió un error al guardar la operación. Por favor intenta de nuevo."
	CancelReply               = "👌 Operación cancelada."
	NothingToCancelReply      = "👌 No hay ninguna operación pendiente."
	EmptyInventoryReply       = "📦 El inventario está vacío."
	AnalyticsUnavailableReply = "Las consultas de reportes no están disponibles en este momento."
)

func rephraseReply(message string) string {
	return fmt.Sprintf("No estoy seguro de lo que quisiste decir con %q. ¿Podrías ser más específico?", message)
}

func notFoundReply(name string) string {
	return fmt.Sprintf("📦 No encontré %q en el inventario.", name)
}

// number renders v without trailing zeros, rounded to three decimals.
func number(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

// notes renders correction annotations for low-confidence matches.
func notes(matches ...resolver.MatchResult) string {
	var b strings.Builder
	for _, m := range matches {
		if m.NeedsNote() {
			fmt.Fprintf(&b, "\n%s %s", m.Name, resolver.Note(m))
		}
	}
	return b.String()
}

func purchaseReply(r inventory.PurchaseResult) string {
	return fmt.Sprintf("✅ Compra registrada: %s %s de %s por $%s en %s (%s)",
		number(r.Quantity), r.Unit, r.Product.Name, number(r.Cost), r.Provider.Name, r.PaymentMethod.Name) +
		notes(r.Product, r.Provider, r.PaymentMethod)
}

func expenseReply(r inventory.ExpenseResult) string {
	return fmt.Sprintf("✅ Gasto registrado: %s por $%s en %s (%s)",
		r.Category.Name, number(r.Cost), r.Provider.Name, r.PaymentMethod.Name) +
		notes(r.Category, r.Provider, r.PaymentMethod)
}

func lowStockWarning(item model.StockItem) string {
	return fmt.Sprintf("\n⚠️ Stock bajo: quedan %s %s de %s (mínimo %s).",
		number(item.Quantity), item.Unit, item.Name, number(item.MinStock))
}

func usageReply(r inventory.UsageResult) Reply {
	switch r.Outcome {
	case inventory.UsageRecorded:
		text := fmt.Sprintf("✅ Uso registrado: %s %s de %s. Stock restante: %s %s",
			number(r.Requested), r.Unit, r.Product.Name, number(r.Stock.Quantity), r.Stock.Unit) +
			notes(r.Product)
		if r.Stock.Low() {
			text += lowStockWarning(r.Stock)
		}
		return Reply{Success: true, Response: text}

	case inventory.UsageInsufficientStock:
		return Reply{Success: false, Response: fmt.Sprintf("❌ Stock insuficiente de %s: tienes %s %s y pediste %s %s.",
			r.Product.Name, number(r.Stock.Quantity), r.Stock.Unit, number(r.Requested), r.Unit)}

	case inventory.UsageProductNotFound:
		return Reply{Success: false, Response: notFoundReply(r.Product.Typed)}
	}
	panic(fmt.Sprintf("unhandled usage outcome %d", r.Outcome))
}

// StockReply renders a stock lookup. It is shared with the stock command.
func StockReply(r inventory.StockResult) string {
	switch r.Outcome {
	case inventory.StockEmpty:
		return EmptyInventoryReply

	case inventory.StockNotFound:
		return notFoundReply(r.Product.Typed)

	case inventory.StockFound:
		item := r.Items[0]
		text := fmt.Sprintf("📦 %s: %s %s", item.Name, number(item.Quantity), item.Unit) + notes(r.Product)
		if item.Low() {
			text += lowStockWarning(item)
		}
		return text

	case inventory.StockListed:
		var b strings.Builder
		b.WriteString("📦 Inventario actual:")
		for _, item := range r.Items {
			fmt.Fprintf(&b, "\n• %s: %s %s", item.Name, number(item.Quantity), item.Unit)
			if item.Low() {
				b.WriteString(" ⚠️")
			}
		}
		return b.String()
	}
	panic(fmt.Sprintf("unhandled stock outcome %d", r.Outcome))
}

// AdjustReply renders a stock correction for the stock set command.
func AdjustReply(r inventory.AdjustResult) string {
	switch r.Outcome {
	case inventory.AdjustApplied:
		text := fmt.Sprintf("✅ Stock de %s ajustado a %s %s (antes %s %s)",
			r.Product.Name, number(r.Stock.Quantity), r.Stock.Unit, number(r.Previous), r.Stock.Unit) +
			notes(r.Product)
		if r.Stock.Low() {
			text += lowStockWarning(r.Stock)
		}
		return text

	case inventory.AdjustUnitMismatch:
		return fmt.Sprintf("❌ %s se mide en otra unidad; no puedo usar %s.", r.Product.Name, r.Unit)

	case inventory.AdjustProductNotFound:
		return notFoundReply(r.Product.Typed)
	}
	panic(fmt.Sprintf("unhandled adjust outcome %d", r.Outcome))
}

func persistenceFailure(err error, action model.Action) Reply {
	common.LogError(err, "failed to execute action", common.Fields{
		"action": action.Kind,
		"fields": action.Fields.Present(),
	})
	return Reply{Success: false, Response: PersistenceFailureReply}
}

func logFailure(err error, msg, message string) {
	common.LogError(err, msg, common.Fields{"message": message})
}
