package llm

import (
	"testing"
	"time"

	"github.com/Veraticus/despensa/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestExtractionCache(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Run("basic operations", func(t *testing.T) {
		cache := newExtractionCache(5 * time.Minute)
		defer cache.Close()

		_, found := cache.get("non-existent")
		assert.False(t, found)

		action := model.Action{
			Kind:       model.ActionRegisterUsage,
			Fields:     model.Fields{EntityName: model.String("azúcar"), Quantity: model.Float(0.5)},
			Confidence: 0.9,
		}
		cache.set("Usé 500 g de azúcar", action)

		retrieved, found := cache.get("  usé 500 G   de azúcar ")
		require.True(t, found)
		assert.Equal(t, action, retrieved)
		assert.Equal(t, 1, cache.size())
	})

	t.Run("returned values are copies", func(t *testing.T) {
		cache := newExtractionCache(5 * time.Minute)
		defer cache.Close()

		cache.set("msg", model.Action{Kind: model.ActionCheckStock, Fields: model.Fields{EntityName: model.String("harina")}})

		first, _ := cache.get("msg")
		*first.Fields.EntityName = "arroz"

		second, _ := cache.get("msg")
		assert.Equal(t, "harina", *second.Fields.EntityName)
	})

	t.Run("expiration", func(t *testing.T) {
		cache := newExtractionCache(50 * time.Millisecond)
		defer cache.Close()

		cache.set("key", model.Action{Kind: model.ActionCheckStock})
		_, found := cache.get("key")
		assert.True(t, found)

		time.Sleep(100 * time.Millisecond)
		_, found = cache.get("key")
		assert.False(t, found)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		cache := newExtractionCache(time.Minute)
		cache.Close()
		cache.Close()
	})
}
