package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/model"
)

const fieldsSchemaJSON = `{
	"type": "object",
	"properties": {
		"entity_name":      {"type": ["string", "null"]},
		"quantity":         {"type": ["number", "string", "null"]},
		"unit":             {"type": ["string", "null"]},
		"cost":             {"type": ["number", "string", "null"]},
		"currency":         {"type": ["string", "null"]},
		"provider":         {"type": ["string", "null"]},
		"payment_method":   {"type": ["string", "null"]},
		"expense_category": {"type": ["string", "null"]},
		"reason":           {"type": ["string", "null"]}
	}
}`

var (
	actionSchema = mustSchema(`{
		"type": "object",
		"required": ["action", "confidence"],
		"properties": {
			"action":     {"type": "string"},
			"confidence": {"type": "number"},
			"fields":     {"oneOf": [` + fieldsSchemaJSON + `, {"type": "null"}]}
		}
	}`)
	fieldsSchema = mustSchema(`{
		"type": "object",
		"required": ["fields"],
		"properties": {
			"fields": ` + fieldsSchemaJSON + `
		}
	}`)
)

func mustSchema(text string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(text))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in schema: %v", err))
	}
	return schema
}

// cleanMarkdownWrapper strips a ```json fence and any text around the
// outermost JSON object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}

	return content
}

// validate checks content against schema and returns every violation as
// one error.
func validate(schema *gojsonschema.Schema, content string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(content))
	if err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", common.ErrExtractionFailed, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("%w: schema violation: %s", common.ErrExtractionFailed, strings.Join(problems, "; "))
	}
	return nil
}

// looseNumber decodes a JSON number or a numeric string such as "$3000",
// "2,5" or "$15.000". Strings that do not read as one unambiguous amount
// decode as absent so the slot gets asked again.
type looseNumber struct {
	value *float64
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		n.value = &number
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	if parsed, ok := parseLocaleNumber(text); ok {
		n.value = &parsed
	}
	return nil
}

// parseLocaleNumber reads amounts written with either "." or "," as the
// thousands separator. A lone separator followed by exactly three digits
// groups thousands ("1.790", "15,000"); otherwise it is the decimal mark
// ("2,5", "0.500"). With both present the last one is the decimal mark.
func parseLocaleNumber(text string) (float64, bool) {
	text = strings.NewReplacer("$", "", " ", "", "\u00a0", "").Replace(text)
	if text == "" {
		return 0, false
	}

	dot, comma := strings.LastIndex(text, "."), strings.LastIndex(text, ",")
	switch {
	case dot >= 0 && comma >= 0:
		decimalAt, thousands := dot, ","
		if comma > dot {
			decimalAt, thousands = comma, "."
		}
		whole, frac := text[:decimalAt], text[decimalAt+1:]
		if strings.ContainsAny(frac, ".,") || !thousandsGrouped(whole, thousands) {
			return 0, false
		}
		text = strings.ReplaceAll(whole, thousands, "") + "." + frac

	case dot >= 0 || comma >= 0:
		sep := "."
		if comma >= 0 {
			sep = ","
		}
		switch {
		case thousandsGrouped(text, sep):
			text = strings.ReplaceAll(text, sep, "")
		case strings.Count(text, sep) == 1:
			text = strings.Replace(text, sep, ".", 1)
		default:
			return 0, false
		}
	}

	if !isNumeral(strings.Replace(strings.TrimPrefix(text, "-"), ".", "", 1)) {
		return 0, false
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// thousandsGrouped reports whether s is digits split by sep into groups of
// three after a leading group of one to three digits with no leading zero.
func thousandsGrouped(s, sep string) bool {
	parts := strings.Split(strings.TrimPrefix(s, "-"), sep)
	if len(parts) < 2 {
		return false
	}
	head := parts[0]
	if head == "" || len(head) > 3 || head[0] == '0' || !isNumeral(head) {
		return false
	}
	for _, group := range parts[1:] {
		if len(group) != 3 || !isNumeral(group) {
			return false
		}
	}
	return true
}

func isNumeral(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// wireFields is the oracle's JSON shape for fields.
type wireFields struct {
	EntityName      *string     `json:"entity_name"`
	Unit            *string     `json:"unit"`
	Currency        *string     `json:"currency"`
	Provider        *string     `json:"provider"`
	PaymentMethod   *string     `json:"payment_method"`
	ExpenseCategory *string     `json:"expense_category"`
	Reason          *string     `json:"reason"`
	Quantity        looseNumber `json:"quantity"`
	Cost            looseNumber `json:"cost"`
}

func (w wireFields) toModel() model.Fields {
	// Overlay drops blank strings and trims the rest
	return model.Fields{}.Overlay(model.Fields{
		EntityName:      w.EntityName,
		Quantity:        w.Quantity.value,
		Unit:            w.Unit,
		Cost:            w.Cost.value,
		Currency:        w.Currency,
		Provider:        w.Provider,
		PaymentMethod:   w.PaymentMethod,
		ExpenseCategory: w.ExpenseCategory,
		Reason:          w.Reason,
	})
}

// parseAction decodes a full extraction response.
func parseAction(content string) (model.Action, error) {
	content = cleanMarkdownWrapper(content)
	if err := validate(actionSchema, content); err != nil {
		return model.Action{}, err
	}

	var resp struct {
		Action     string      `json:"action"`
		Fields     *wireFields `json:"fields"`
		Confidence float64     `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return model.Action{}, fmt.Errorf("%w: failed to parse JSON response: %w", common.ErrExtractionFailed, err)
	}

	action := model.Action{
		Kind:       model.ParseActionKind(resp.Action),
		Confidence: min(max(resp.Confidence, 0), 1),
	}
	if resp.Fields != nil {
		action.Fields = resp.Fields.toModel()
	}
	return action, nil
}

// parseFields decodes a targeted extraction response, keeping only the
// requested fields.
func parseFields(content string, requested []model.Field) (model.Fields, error) {
	content = cleanMarkdownWrapper(content)
	if err := validate(fieldsSchema, content); err != nil {
		return model.Fields{}, err
	}

	var resp struct {
		Fields wireFields `json:"fields"`
	}
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return model.Fields{}, fmt.Errorf("%w: failed to parse JSON response: %w", common.ErrExtractionFailed, err)
	}

	return resp.Fields.toModel().Only(requested...), nil
}
