package analytics

import "fmt"

const schemaContext = `
CREATE TABLE tipos_gasto (id, nombre);          -- 'Fijo' o 'Variable'
CREATE TABLE categorias (id, nombre);
CREATE TABLE metodos_pago (id, nombre);
CREATE TABLE proveedores (id, nombre);

CREATE TABLE catalogo_productos (
    id, nombre, unidad_medida, categoria_id REFERENCES categorias(id), stock_minimo, creado_en
);

CREATE TABLE inventario (
    producto_id REFERENCES catalogo_productos(id), cantidad_actual, actualizado_en
);

CREATE TABLE gastos (
    id, monto, fecha_compra,
    proveedor_id REFERENCES proveedores(id),
    metodo_pago_id REFERENCES metodos_pago(id),
    categoria_id REFERENCES categorias(id),
    tipo_gasto_id REFERENCES tipos_gasto(id),
    producto_id REFERENCES catalogo_productos(id),  -- NULL para gastos sin producto
    cantidad_comprada, observaciones
);

CREATE TABLE salidas_inventario (
    id, producto_id REFERENCES catalogo_productos(id), cantidad_usada, motivo, fecha
);
`

const summaryPrompt = `Eres un asistente financiero de un pequeño negocio de alimentos en Chile.
El usuario hizo una pregunta y estos son los datos obtenidos de la base de datos.
Responde en español, de forma natural y breve.
- Si es una suma, indica el monto claramente.
- Si es una lista, resume los elementos principales.
- Usa formato de pesos chilenos ($10.000) cuando se trate de dinero.`

// sqlPrompt builds the text-to-SQL system prompt for a dialect.
func sqlPrompt(dialect string) string {
	flavor, match, month := "SQLite", "LIKE", "strftime('%Y-%m', fecha_compra) = strftime('%Y-%m', 'now')"
	if dialect == "postgres" {
		flavor, match, month = "PostgreSQL", "ILIKE", "date_trunc('month', fecha_compra) = date_trunc('month', CURRENT_DATE)"
	}

	return fmt.Sprintf(`Eres un analista de datos %[1]s de un negocio.
Con el esquema de abajo, escribe UNA consulta SQL que responda la pregunta del usuario.
%[2]s
REGLAS:
1. Devuelve SOLO la consulta SQL, sin markdown ni explicaciones.
2. Usa solo sentencias SELECT (se permite WITH).
3. Haz JOIN con las tablas de nombres para mostrar nombres legibles en vez de ids.
4. Si no se indica un período, considera todo el historial. Para "este mes" usa %[4]s.
5. Limita los resultados a 20 filas (LIMIT 20) si la respuesta es una lista.
6. Al filtrar por nombres (proveedor, categoría, producto) usa siempre %[3]s con comodines, por ejemplo WHERE p.nombre %[3]s '%%lider%%'.`,
		flavor, schemaContext, match, month)
}
