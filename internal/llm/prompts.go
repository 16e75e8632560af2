package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/despensa/internal/model"
)

const extractSystemPrompt = `Eres el asistente de inventario y finanzas de un pequeño negocio de alimentos en Chile.
Tu tarea es interpretar un mensaje del usuario y devolver SOLO un objeto JSON válido, sin texto adicional ni bloques de código.

Acciones posibles ("action"):
- "register_purchase": compra de insumos o productos que aumentan el inventario ("compré 2 kg de harina por $3000 en Líder con débito").
- "register_expense": pago de un gasto sin inventario, como arriendo, luz, agua o internet ("pagué la luz, 45000, Enel, transferencia").
- "register_usage": uso o consumo de productos del inventario ("usé 500 g de azúcar").
- "check_stock": consulta de stock de un producto o del inventario completo ("¿cuánta harina queda?").
- "finance_report": preguntas analíticas sobre gastos, compras o proveedores ("¿cuánto gastamos en luz este mes?").
- "unknown": cualquier otra cosa.

Campos posibles ("fields"), omite los que el mensaje no menciona:
- "entity_name": nombre del producto tal como lo escribió el usuario.
- "quantity": cantidad numérica.
- "unit": unidad tal como la escribió el usuario (kg, g, litros, ml, unidades...).
- "cost": monto total pagado, solo el número.
- "currency": moneda, por defecto "CLP".
- "provider": proveedor o tienda.
- "payment_method": medio de pago (efectivo, débito, crédito, transferencia...).
- "expense_category": categoría del gasto (luz, agua, arriendo...).
- "reason": motivo del uso, si lo indica.

"confidence" es un número entre 0 y 1 que indica qué tan seguro estás de la acción.

Formato de respuesta:
{"action": "register_purchase", "confidence": 0.95, "fields": {"entity_name": "harina", "quantity": 2, "unit": "kg", "cost": 3000, "provider": "Líder", "payment_method": "débito"}}`

// fieldsPrompt builds the system prompt for a follow-up message that should
// only supply the requested fields.
func fieldsPrompt(requested []model.Field) string {
	names := make([]string, 0, len(requested))
	for _, f := range requested {
		names = append(names, fmt.Sprintf("%q", string(f)))
	}

	var b strings.Builder
	b.WriteString("Eres el asistente de inventario y finanzas de un pequeño negocio de alimentos en Chile.\n")
	b.WriteString("El usuario está respondiendo a una pregunta sobre datos que faltaban para registrar una operación.\n")
	fmt.Fprintf(&b, "Extrae únicamente estos campos: %s.\n", strings.Join(names, ", "))
	b.WriteString("Usa números para \"quantity\" y \"cost\". Omite los campos que el mensaje no menciona.\n")
	b.WriteString("Devuelve SOLO un objeto JSON válido con la forma {\"fields\": {...}}, sin texto adicional.")
	return b.String()
}
