package counts

import (
	"context"
	"sync"
	"time"

	"kantinku-be/internal/logger"
	"kantinku-be/internal/order"

	"go.uber.org/zap"
)

// Counter is the slice of the order store the cache recomputes from.
type Counter interface {
	CountByStatus(ctx context.Context, cafeteriaID uint) (map[order.Status]int, error)
}

// Store holds cached snapshots. Get returns (nil, nil) on a miss.
type Store interface {
	Get(ctx context.Context, cafeteriaID uint) (*order.CountsSnapshot, error)
	Set(ctx context.Context, snap *order.CountsSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, cafeteriaID uint) error
	DeleteAll(ctx context.Context) error
}

type Service struct {
	counter Counter
	store   Store
	ttl     time.Duration

	// lastKnown keeps the most recent successful snapshot per cafeteria so
	// a store outage degrades to stale counts instead of an error page.
	mu        sync.RWMutex
	lastKnown map[uint]*order.CountsSnapshot
}

func NewService(counter Counter, store Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &Service{
		counter:   counter,
		store:     store,
		ttl:       ttl,
		lastKnown: make(map[uint]*order.CountsSnapshot),
	}
}

// GetCounts serves the cached snapshot while it is inside the validity
// window, recomputing otherwise. A failed recompute falls back to the last
// known snapshot; only when there is none does the error propagate. A
// fabricated zero-count snapshot is never returned.
func (s *Service) GetCounts(ctx context.Context, cafeteriaID uint) (*order.CountsSnapshot, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "counts"),
		zap.Uint("cafeteria_id", cafeteriaID),
	)

	cached, err := s.store.Get(ctx, cafeteriaID)
	if err != nil {
		log.Warn("snapshot store read failed", zap.Error(err))
	}
	if cached != nil && time.Since(cached.ComputedAt) < s.ttl {
		return cached, nil
	}

	byStatus, err := s.counter.CountByStatus(ctx, cafeteriaID)
	if err != nil {
		s.mu.RLock()
		stale := s.lastKnown[cafeteriaID]
		s.mu.RUnlock()

		if stale != nil {
			log.Warn("recompute failed, serving stale snapshot",
				zap.Error(err),
				zap.Time("computed_at", stale.ComputedAt),
			)
			return stale, nil
		}
		return nil, err
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}

	snap := &order.CountsSnapshot{
		CafeteriaID: cafeteriaID,
		ByStatus:    byStatus,
		Total:       total,
		ComputedAt:  time.Now(),
	}

	if err := s.store.Set(ctx, snap, s.ttl); err != nil {
		log.Warn("snapshot store write failed", zap.Error(err))
	}

	s.mu.Lock()
	s.lastKnown[cafeteriaID] = snap
	s.mu.Unlock()

	return snap, nil
}

// Invalidate drops the cached snapshot so the next GetCounts recomputes.
// Runs synchronously on the mutation path.
func (s *Service) Invalidate(ctx context.Context, cafeteriaID uint) {
	if err := s.store.Delete(ctx, cafeteriaID); err != nil {
		logger.FromCtx(ctx).Warn("failed to invalidate counts",
			zap.Uint("cafeteria_id", cafeteriaID),
			zap.Error(err),
		)
	}
}

// InvalidateAll drops every cached snapshot. Backs the dashboard's manual
// refresh button.
func (s *Service) InvalidateAll(ctx context.Context) {
	if err := s.store.DeleteAll(ctx); err != nil {
		logger.FromCtx(ctx).Warn("failed to invalidate all counts", zap.Error(err))
	}
}
