package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/nandaardn/eventix/internal/storage"
)

// InventoryService is the only code path allowed to move tier sold
// counters. Reserve is called at checkout, Release at expiration.
type InventoryService struct {
	store storage.Store

	// clampCount tracks how often a release hit the zero clamp. A clamp
	// means the counter was already partially released, not corruption.
	clampCount atomic.Int64
}

func NewInventoryService(store storage.Store) *InventoryService {
	return &InventoryService{store: store}
}

// Reserve commits qty units of a tier to an order. It fails with
// storage.ErrCapacityExceeded before anything is written when the tier
// cannot hold qty more units.
func (s *InventoryService) Reserve(ctx context.Context, tierID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid reserve quantity %d", qty)
	}
	return s.store.ReserveTierUnits(ctx, tierID, qty)
}

// Release returns qty units of a tier to the pool, clamped at zero.
func (s *InventoryService) Release(ctx context.Context, tierID uuid.UUID, qty int) error {
	return s.ReleaseUsing(ctx, s.store, tierID, qty)
}

// ReleaseUsing is Release against a caller-supplied store, so a
// cancellation transition can release inside its own transaction while the
// clamp accounting stays here.
func (s *InventoryService) ReleaseUsing(ctx context.Context, store storage.Store, tierID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid release quantity %d", qty)
	}
	clamped, err := store.ReleaseTierUnits(ctx, tierID, qty)
	if err != nil {
		return err
	}
	if clamped {
		s.clampCount.Inc()
		log.Printf("inventory: release of %d units on tier %s clamped at zero (total clamps: %d)", qty, tierID, s.clampCount.Load())
	}
	return nil
}

// ClampCount reports how many releases have been clamped since startup.
func (s *InventoryService) ClampCount() int64 {
	return s.clampCount.Load()
}
