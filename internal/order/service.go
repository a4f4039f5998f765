package order

import (
	"context"
	"fmt"
	"time"

	"kantinku-be/internal/logger"
	"kantinku-be/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CountsInvalidator drops the cached counts snapshot for a cafeteria. Called
// synchronously after every successful store write, before the caller is
// acknowledged.
type CountsInvalidator interface {
	Invalidate(ctx context.Context, cafeteriaID uint)
}

// ChangePublisher signals subscribed dashboards that something changed for a
// cafeteria. Best-effort; delivery failures never roll back the write.
type ChangePublisher interface {
	Publish(cafeteriaID uint)
}

// NoticeDispatcher delivers cancellation notices across the counter:
// customer-initiated cancellations go to the cafeteria, staff-initiated ones
// to the customer.
type NoticeDispatcher interface {
	NotifyCafeteria(ctx context.Context, o *Order, reason string) error
	NotifyCustomer(ctx context.Context, o *Order, reason string) error
}

type Service interface {
	Place(ctx context.Context, input PlaceInput) (*Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, req TransitionRequest) (*Order, error)
	ListByStatus(ctx context.Context, cafeteriaID uint, status Status, limit int32) ([]*Order, error)
	GetDetail(ctx context.Context, orderID uuid.UUID) (*Detail, error)
}

type service struct {
	repo    Repository
	counts  CountsInvalidator
	changes ChangePublisher
	notices NoticeDispatcher
	metrics *metrics.OrderMetrics
}

func NewService(
	repo Repository,
	counts CountsInvalidator,
	changes ChangePublisher,
	notices NoticeDispatcher,
	m *metrics.OrderMetrics,
) Service {
	return &service{
		repo:    repo,
		counts:  counts,
		changes: changes,
		notices: notices,
		metrics: m,
	}
}

type PlaceInput struct {
	CafeteriaID uint
	CustomerID  uint
	PickupTime  *time.Time
	Items       []PlaceItemInput
}

type PlaceItemInput struct {
	MenuItemID uint
	Quantity   int
	UnitPrice  int
	Notes      *string
}

func (s *service) Place(ctx context.Context, input PlaceInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Place"),
		zap.Uint("cafeteria_id", input.CafeteriaID),
		zap.Int("item_count", len(input.Items)),
	)

	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]Item, 0, len(input.Items))
	total := 0
	for i, in := range input.Items {
		if in.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalidItem, i)
		}
		if in.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: item %d unit price must not be negative", ErrInvalidItem, i)
		}
		total += in.Quantity * in.UnitPrice
		items = append(items, Item{
			MenuItemID: in.MenuItemID,
			Quantity:   in.Quantity,
			UnitPrice:  in.UnitPrice,
			Notes:      in.Notes,
		})
	}

	o := &Order{
		ID:          uuid.New(),
		CafeteriaID: input.CafeteriaID,
		CustomerID:  input.CustomerID,
		Status:      StatusNew,
		Items:       items,
		TotalAmount: total,
		PickupTime:  input.PickupTime,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("failed to create order", zap.Error(err))
		return nil, err
	}

	// Creation mutates the NEW bucket: same invalidate-then-publish path as
	// a transition.
	s.counts.Invalidate(ctx, o.CafeteriaID)
	s.changes.Publish(o.CafeteriaID)

	log.Info("order placed",
		zap.String("order_id", o.ID.String()),
		zap.Int("total_amount", total),
	)

	return o, nil
}

func (s *service) Transition(
	ctx context.Context,
	orderID uuid.UUID,
	req TransitionRequest,
) (*Order, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Transition"),
		zap.String("order_id", orderID.String()),
		zap.String("target", string(req.Target)),
		zap.String("actor_role", string(req.Actor.Role)),
	)

	timer := time.Now()

	// 1. Load current state
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		s.metrics.ObserveTransition(string(req.Target), "error", time.Since(timer))
		return nil, err
	}

	// 2. Validate against the lifecycle table
	res, err := PlanTransition(o, req)
	if err != nil {
		log.Warn("transition rejected", zap.Error(err))
		s.metrics.ObserveTransition(string(req.Target), "rejected", time.Since(timer))
		return nil, err
	}

	// 3. Conditional write; the store resolves races
	if err := s.repo.ApplyTransition(ctx, orderID, res); err != nil {
		log.Warn("transition write failed", zap.Error(err))
		s.metrics.ObserveTransition(string(req.Target), "conflict", time.Since(timer))
		return nil, err
	}

	res.Apply(o)

	// 4. Declared side effects, in order. Counts invalidation is
	// synchronous; publish and notices are best-effort.
	for _, effect := range res.Effects {
		switch effect {
		case EffectInvalidateCounts:
			s.counts.Invalidate(ctx, o.CafeteriaID)
		case EffectPublishChange:
			s.changes.Publish(o.CafeteriaID)
		case EffectNotifyCafeteria:
			if err := s.notices.NotifyCafeteria(ctx, o, *res.CancellationReason); err != nil {
				log.Warn("cafeteria notice failed", zap.Error(err))
			}
		case EffectNotifyCustomer:
			if err := s.notices.NotifyCustomer(ctx, o, *res.CancellationReason); err != nil {
				log.Warn("customer notice failed", zap.Error(err))
			}
		}
	}

	s.metrics.ObserveTransition(string(req.Target), "ok", time.Since(timer))

	log.Info("transition applied",
		zap.String("from", string(res.From)),
		zap.String("to", string(res.To)),
	)

	return o, nil
}

func (s *service) ListByStatus(
	ctx context.Context,
	cafeteriaID uint,
	status Status,
	limit int32,
) ([]*Order, error) {
	return s.repo.ListByStatus(ctx, cafeteriaID, status, limit)
}

func (s *service) GetDetail(ctx context.Context, orderID uuid.UUID) (*Detail, error) {
	return s.repo.GetDetail(ctx, orderID)
}
