package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/consulting-service/internal/domain"
)

func TestMemoryStoreCheckoutExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, &domain.CheckoutSession{GatewayOrderID: "order_abc", Amount: 5000}, time.Minute))

	got, err := store.Get(ctx, "order_abc")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.Amount)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "order_abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreIdempotency(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	ok, err := store.Acquire(ctx, "pay_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Acquire(ctx, "pay_1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Release(ctx, "pay_1"))
	ok, err = store.Acquire(ctx, "pay_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreSequenceAndCatalog(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for want := int64(1); want <= 3; want++ {
		n, err := store.Next(ctx, "chat:seq:order-1")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	_, hit, err := store.GetServices(ctx)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.SetServices(ctx, []domain.Service{{ID: "svc-1"}}, time.Minute))
	services, hit, err := store.GetServices(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, services, 1)

	require.NoError(t, store.Invalidate(ctx))
	_, hit, _ = store.GetServices(ctx)
	assert.False(t, hit)
}

func TestMemoryStoreSeedOnlyMovesForward(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Seed(ctx, "chat:seq:order-1", 10))
	n, err := store.Next(ctx, "chat:seq:order-1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	require.NoError(t, store.Seed(ctx, "chat:seq:order-1", 3))
	n, err = store.Next(ctx, "chat:seq:order-1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}
