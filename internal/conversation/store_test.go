package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Veraticus/despensa/internal/model"
)

func samplePending() model.PendingAction {
	return model.PendingAction{
		CreatedAt:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Kind:            model.ActionRegisterPurchase,
		OriginalMessage: "compré 2 kg de harina",
		Fields: model.Fields{
			EntityName: model.String("harina"),
			Quantity:   model.Float(2),
			Unit:       model.String("kg"),
		},
		MissingFields: []model.Field{model.FieldCost, model.FieldProvider, model.FieldPaymentMethod},
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

// Both stores must behave the same for callers.
func TestStoreContract(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			s := NewMemoryStore(time.Hour)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"redis": func(t *testing.T) Store {
			s, _ := newRedisStore(t, time.Hour)
			return s
		},
	}

	for name, build := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := build(t)

			got, err := store.Load(ctx, "ana")
			require.NoError(t, err)
			assert.Nil(t, got)

			want := samplePending()
			require.NoError(t, store.Save(ctx, "ana", want))

			got, err = store.Load(ctx, "ana")
			require.NoError(t, err)
			require.NotNil(t, got)
			if diff := cmp.Diff(want, *got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}

			other, err := store.Load(ctx, "luis")
			require.NoError(t, err)
			assert.Nil(t, other)

			require.NoError(t, store.Clear(ctx, "ana"))
			got, err = store.Load(ctx, "ana")
			require.NoError(t, err)
			assert.Nil(t, got)

			assert.NoError(t, store.Clear(ctx, "nadie"))
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	defer func() { _ = store.Close() }()

	pending := samplePending()
	require.NoError(t, store.Save(ctx, "ana", pending))
	*pending.Fields.EntityName = "azúcar"
	pending.MissingFields[0] = model.FieldReason

	loaded, err := store.Load(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "harina", *loaded.Fields.EntityName)
	assert.Equal(t, model.FieldCost, loaded.MissingFields[0])

	*loaded.Fields.EntityName = "sal"
	again, err := store.Load(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "harina", *again.Fields.EntityName)
}

func TestMemoryStoreExpiry(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	store := NewMemoryStore(10 * time.Minute)
	defer func() { _ = store.Close() }()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "ana", samplePending()))
	require.NoError(t, store.Save(ctx, "luis", samplePending()))

	now = now.Add(11 * time.Minute)

	got, err := store.Load(ctx, "ana")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, store.Len())

	store.purge()
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreCloseTwice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := NewMemoryStore(0)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("key and ttl", func(t *testing.T) {
		store, mr := newRedisStore(t, 30*time.Minute)

		require.NoError(t, store.Save(ctx, "ana", samplePending()))
		assert.True(t, mr.Exists("despensa:pending:ana"))
		assert.Equal(t, 30*time.Minute, mr.TTL("despensa:pending:ana"))

		mr.FastForward(31 * time.Minute)
		got, err := store.Load(ctx, "ana")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown kind decodes as unknown", func(t *testing.T) {
		store, mr := newRedisStore(t, time.Hour)

		require.NoError(t, mr.Set("despensa:pending:ana", `{"kind":"borrar_todo","fields":{}}`))
		got, err := store.Load(ctx, "ana")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, model.ActionUnknown, got.Kind)
	})

	t.Run("corrupt value", func(t *testing.T) {
		store, mr := newRedisStore(t, time.Hour)

		require.NoError(t, mr.Set("despensa:pending:ana", "{not json"))
		_, err := store.Load(ctx, "ana")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode")
	})

	t.Run("server down", func(t *testing.T) {
		store, mr := newRedisStore(t, time.Hour)
		mr.Close()

		_, err := store.Load(ctx, "ana")
		require.Error(t, err)
		assert.Error(t, store.Save(ctx, "ana", samplePending()))
	})
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisStore(context.Background(), RedisOptions{Addr: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
