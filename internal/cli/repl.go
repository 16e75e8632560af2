package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/despensa/internal/assistant"
)

// Chatter handles one message for one user.
type Chatter interface {
	Handle(ctx context.Context, userID, text string) (assistant.Reply, error)
}

// Local commands.
const (
	CommandQuit   = "/salir"
	CommandHelp   = "/ayuda"
	CommandCancel = "/cancelar"
)

const helpText = `Escribe en lenguaje natural, por ejemplo:
  compré 2 kg de harina en el Líder por 3000 con débito
  pagué 45000 de luz a Enel por transferencia
  usé 500 gr de azúcar
  ¿cuánta harina queda?
  ¿cuánto gasté este mes?

/cancelar descarta la acción pendiente, /ayuda muestra esta ayuda, /salir termina.`

// REPL is an interactive chat session for a single local user.
type REPL struct {
	chatter Chatter
	reader  *NonBlockingReader
	out     io.Writer
	userID  string
}

// NewREPL creates a REPL reading from in and writing to out.
func NewREPL(chatter Chatter, in io.Reader, out io.Writer, userID string) *REPL {
	return &REPL{
		chatter: chatter,
		reader:  NewNonBlockingReader(in),
		out:     out,
		userID:  userID,
	}
}

// Run reads messages until /salir, end of input or ctx is canceled.
func (r *REPL) Run(ctx context.Context) error {
	r.printf("%s\n%s\n\n", FormatTitle("Despensa"), SubtleStyle.Render("Escribe /ayuda para ver ejemplos."))

	for {
		r.printf("%s", FormatPrompt("tú"))

		line, err := r.reader.ReadLine(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, ErrInputCancelled) {
			r.printf("\n")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case CommandQuit:
			r.printf("%s\n", SubtleStyle.Render("¡Hasta luego!"))
			return nil
		case CommandHelp:
			r.printf("%s\n\n", RenderBox("Ayuda", helpText))
			continue
		}

		reply, err := r.chatter.Handle(ctx, r.userID, line)
		if err != nil {
			if ctx.Err() != nil {
				r.printf("\n")
				return nil
			}
			r.printf("%s\n\n", FormatError(err.Error()))
			continue
		}
		r.printf("%s\n\n", RenderReply(reply))
	}
}

// RenderReply styles a reply by outcome.
func RenderReply(reply assistant.Reply) string {
	switch {
	case reply.Pending != nil:
		return QuestionStyle.Render(PendingIcon + " " + reply.Response)
	case !reply.Success:
		return ErrorStyle.Render(reply.Response)
	}

	head, warning, found := strings.Cut(reply.Response, "\n"+WarningIcon)
	if !found {
		return SuccessStyle.Render(reply.Response)
	}
	return SuccessStyle.Render(head) + "\n" + WarningStyle.Render(WarningIcon+warning)
}

func (r *REPL) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
