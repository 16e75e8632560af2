// Package analytics answers free-form questions about the ledger by having
// an LLM write a read-only SQL query and summarize its result.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/despensa/internal/common"
	"github.com/Veraticus/despensa/internal/llm"
)

// Replies shown to the user.
const (
	UnsafeReply  = "Lo siento, no puedo realizar esa operación por motivos de seguridad (solo lectura)."
	NoRowsReply  = "Analicé la base de datos y no encontré registros que coincidan con tu consulta."
	FailureReply = "Tuve un problema analizando los datos. Por favor intenta reformular tu pregunta."
)

// summaryRows caps how many rows are sent back to the LLM.
const summaryRows = 20

// Querier runs a read-only statement.
type Querier interface {
	QueryReadOnly(ctx context.Context, query string) ([]map[string]any, error)
}

// Analyst is a text-to-SQL question answerer.
type Analyst struct {
	client  llm.Client
	db      Querier
	dialect string
}

// NewAnalyst creates an Analyst. dialect is "postgres" or "sqlite3" and
// selects the SQL flavor the LLM is asked to write.
func NewAnalyst(client llm.Client, db Querier, dialect string) *Analyst {
	return &Analyst{client: client, db: db, dialect: dialect}
}

// Answer returns a Spanish answer to question. Failures are logged and
// turned into a reply; the error is always nil.
func (a *Analyst) Answer(ctx context.Context, question string) (string, error) {
	query, err := a.generateSQL(ctx, question)
	if err != nil {
		common.LogError(err, "failed to generate SQL", common.Fields{"question": question})
		return FailureReply, nil
	}
	slog.Info("generated analytics query", "question", question, "sql", query)

	if err := ValidateQuery(query); err != nil {
		slog.Warn("rejected analytics query", "sql", query, "error", err)
		return UnsafeReply, nil
	}

	rows, err := a.db.QueryReadOnly(ctx, query)
	if err != nil {
		common.LogError(err, "analytics query failed", common.Fields{"sql": query})
		return FailureReply, nil
	}
	if len(rows) == 0 {
		return NoRowsReply, nil
	}

	answer, err := a.summarize(ctx, question, rows)
	if err != nil {
		common.LogError(err, "failed to summarize analytics result", common.Fields{"question": question})
		return FailureReply, nil
	}
	return answer, nil
}

func (a *Analyst) generateSQL(ctx context.Context, question string) (string, error) {
	content, err := a.client.Complete(ctx, llm.Request{
		System: sqlPrompt(a.dialect),
		User:   question,
	})
	if err != nil {
		return "", err
	}
	query := CleanQuery(content)
	if query == "" {
		return "", errors.New("empty query")
	}
	return query, nil
}

func (a *Analyst) summarize(ctx context.Context, question string, rows []map[string]any) (string, error) {
	if len(rows) > summaryRows {
		rows = rows[:summaryRows]
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode rows: %w", err)
	}

	content, err := a.client.Complete(ctx, llm.Request{
		System: summaryPrompt,
		User:   fmt.Sprintf("Pregunta: %s\n\nResultado de la base de datos (JSON):\n%s", question, data),
	})
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(content)
	if answer == "" {
		return "", errors.New("empty summary")
	}
	return answer, nil
}

var (
	codeFence  = regexp.MustCompile("(?i)```(?:sql)?")
	readPrefix = regexp.MustCompile(`(?i)^(SELECT|WITH)\b`)
	forbidden  = regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|ALTER|TRUNCATE|GRANT|CREATE|REPLACE|ATTACH|DETACH|PRAGMA|VACUUM)\b`)
)

// CleanQuery strips markdown fences, surrounding space and trailing
// semicolons from an LLM-written statement.
func CleanQuery(content string) string {
	query := strings.TrimSpace(codeFence.ReplaceAllString(content, ""))
	return strings.TrimSpace(strings.TrimRight(query, "; \n\t"))
}

// ValidateQuery accepts a single SELECT or WITH statement that contains no
// write or schema keywords.
func ValidateQuery(query string) error {
	query = strings.TrimSpace(query)
	if !readPrefix.MatchString(query) {
		return fmt.Errorf("%w: must start with SELECT or WITH", common.ErrUnsafeQuery)
	}
	if word := forbidden.FindString(query); word != "" {
		return fmt.Errorf("%w: forbidden keyword %s", common.ErrUnsafeQuery, strings.ToUpper(word))
	}
	if strings.Contains(query, ";") {
		return fmt.Errorf("%w: multiple statements", common.ErrUnsafeQuery)
	}
	return nil
}
