package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandaardn/eventix/internal/models"
	"github.com/nandaardn/eventix/internal/services"
	"github.com/nandaardn/eventix/internal/storage"
)

func TestReserve_WithinCapacity(t *testing.T) {
	store := storage.NewMemoryStore()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10})

	svc := services.NewInventoryService(store)
	ctx := context.Background()

	err := svc.Reserve(ctx, tierID, 2)
	require.NoError(t, err)

	tier, err := store.GetTier(ctx, tierID)
	require.NoError(t, err)
	assert.Equal(t, 2, tier.Sold)
}

func TestReserve_CapacityExceeded(t *testing.T) {
	store := storage.NewMemoryStore()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10, Sold: 8})

	svc := services.NewInventoryService(store)
	ctx := context.Background()

	err := svc.Reserve(ctx, tierID, 5)
	assert.ErrorIs(t, err, storage.ErrCapacityExceeded)

	// A rejected reservation leaves the counter untouched.
	tier, err := store.GetTier(ctx, tierID)
	require.NoError(t, err)
	assert.Equal(t, 8, tier.Sold)
}

func TestReserve_UnknownTier(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewInventoryService(store)

	err := svc.Reserve(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, storage.ErrTierNotFound)
}

func TestRelease_Normal(t *testing.T) {
	store := storage.NewMemoryStore()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10, Sold: 5})

	svc := services.NewInventoryService(store)
	ctx := context.Background()

	err := svc.Release(ctx, tierID, 3)
	require.NoError(t, err)

	tier, err := store.GetTier(ctx, tierID)
	require.NoError(t, err)
	assert.Equal(t, 2, tier.Sold)
	assert.Equal(t, int64(0), svc.ClampCount())
}

func TestRelease_ClampsAtZero(t *testing.T) {
	store := storage.NewMemoryStore()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10, Sold: 1})

	svc := services.NewInventoryService(store)
	ctx := context.Background()

	// A concurrent release already took most of the units; this one must
	// clamp instead of driving the counter negative.
	err := svc.Release(ctx, tierID, 3)
	require.NoError(t, err)

	tier, err := store.GetTier(ctx, tierID)
	require.NoError(t, err)
	assert.Equal(t, 0, tier.Sold)
	assert.Equal(t, int64(1), svc.ClampCount())
}

func TestReserveRelease_InvalidQuantity(t *testing.T) {
	store := storage.NewMemoryStore()
	tierID := uuid.New()
	store.AddTier(models.Tier{ID: tierID, Name: "GA", Price: 50000, Capacity: 10})

	svc := services.NewInventoryService(store)
	ctx := context.Background()

	assert.Error(t, svc.Reserve(ctx, tierID, 0))
	assert.Error(t, svc.Release(ctx, tierID, -1))
}
