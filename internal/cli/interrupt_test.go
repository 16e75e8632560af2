package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterruptHandlerStop(t *testing.T) {
	var out bytes.Buffer
	h := NewInterruptHandler(&out)

	ctx, stop := h.HandleInterrupts(context.Background())
	stop()
	stop()

	<-ctx.Done()
	assert.False(t, h.WasInterrupted())
	assert.Empty(t, out.String())
}

func TestInterruptHandlerMessage(t *testing.T) {
	var out bytes.Buffer
	h := NewInterruptHandler(&out)

	h.interrupt()
	h.interrupt()

	assert.True(t, h.WasInterrupted())
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("Hasta luego")))
}
