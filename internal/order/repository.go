package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kantinku-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetDetail(ctx context.Context, orderID uuid.UUID) (*Detail, error)
	ListByStatus(ctx context.Context, cafeteriaID uint, status Status, limit int32) ([]*Order, error)
	ApplyTransition(ctx context.Context, orderID uuid.UUID, res *TransitionResult) error
	CountByStatus(ctx context.Context, cafeteriaID uint) (map[Status]int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// storeErr maps driver failures onto the domain taxonomy. Row-level outcomes
// (no rows) are handled by the callers; everything else is the store being
// unreachable or broken.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, cafeteria_id, customer_id,
			status, total_amount, pickup_time, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		o.ID,
		o.CafeteriaID,
		o.CustomerID,
		o.Status,
		o.TotalAmount,
		o.PickupTime,
		o.CreatedAt,
	)
	if err != nil {
		return storeErr(err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, menu_item_id, quantity, unit_price, notes
			) VALUES ($1,$2,$3,$4,$5)
		`,
			o.ID,
			item.MenuItemID,
			item.Quantity,
			item.UnitPrice,
			item.Notes,
		)
		if err != nil {
			return storeErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	query := `
		SELECT
			o.id, o.cafeteria_id, o.customer_id, o.status,
			o.total_amount, o.pickup_time, o.created_at, o.updated_at,
			o.cancellation_reason, o.cancelled_by, o.cancelled_at
		FROM orders o
		WHERE o.id = $1
	`

	var o Order
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&o.ID, &o.CafeteriaID, &o.CustomerID, &o.Status,
		&o.TotalAmount, &o.PickupTime, &o.CreatedAt, &o.UpdatedAt,
		&o.CancellationReason, &o.CancelledBy, &o.CancelledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}

	items, err := r.fetchItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *repository) GetDetail(ctx context.Context, orderID uuid.UUID) (*Detail, error) {
	query := `
		SELECT
			o.id, o.cafeteria_id, o.customer_id, o.status,
			o.total_amount, o.pickup_time, o.created_at, o.updated_at,
			o.cancellation_reason, o.cancelled_by, o.cancelled_at,
			u.display_name, u.email
		FROM orders o
		JOIN users u ON u.id = o.customer_id
		WHERE o.id = $1
	`

	var d Detail
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&d.ID, &d.CafeteriaID, &d.CustomerID, &d.Status,
		&d.TotalAmount, &d.PickupTime, &d.CreatedAt, &d.UpdatedAt,
		&d.CancellationReason, &d.CancelledBy, &d.CancelledAt,
		&d.CustomerName, &d.CustomerEmail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}

	items, err := r.fetchItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	d.Items = items

	return &d, nil
}

func (r *repository) fetchItems(ctx context.Context, orderID uuid.UUID) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			i.id, i.order_id, i.menu_item_id, m.name,
			i.quantity, i.unit_price, i.notes
		FROM order_items i
		JOIN menu_items m ON m.id = i.menu_item_id
		WHERE i.order_id = $1
		ORDER BY i.id
	`, orderID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.MenuItemID, &it.Name,
			&it.Quantity, &it.UnitPrice, &it.Notes,
		); err != nil {
			return nil, storeErr(err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	return items, nil
}

func (r *repository) ListByStatus(
	ctx context.Context,
	cafeteriaID uint,
	status Status,
	limit int32,
) ([]*Order, error) {

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	log := logger.FromCtx(ctx).With(
		zap.String("method", "ListByStatus"),
		zap.Uint("cafeteria_id", cafeteriaID),
		zap.String("status", string(status)),
		zap.Int32("limit", limit),
	)
	log.Debug("listing orders")

	// id breaks created_at ties so pagination is deterministic.
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			o.id, o.cafeteria_id, o.customer_id, o.status,
			o.total_amount, o.pickup_time, o.created_at, o.updated_at
		FROM orders o
		WHERE o.cafeteria_id = $1 AND o.status = $2
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $3
	`, cafeteriaID, status, limit)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, storeErr(err)
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.CafeteriaID, &o.CustomerID, &o.Status,
			&o.TotalAmount, &o.PickupTime, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, storeErr(err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	return orders, nil
}

// ApplyTransition is the serialization point for concurrent transitions: the
// UPDATE is conditional on the status still being the one the plan was built
// from. When zero rows match, the current row is re-read to report the right
// error instead of a silent overwrite.
func (r *repository) ApplyTransition(
	ctx context.Context,
	orderID uuid.UUID,
	res *TransitionResult,
) error {

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
			cancellation_reason = $2,
			cancelled_by = $3,
			cancelled_at = $4,
			updated_at = NOW()
		WHERE id = $5 AND status = $6
	`,
		res.To,
		res.CancellationReason,
		res.CancelledBy,
		res.CancelledAt,
		orderID,
		res.From,
	)
	if err != nil {
		return storeErr(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if affected == 1 {
		return nil
	}

	// Lost the race or the order vanished. Distinguish which.
	var current Status
	err = r.db.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1`, orderID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return storeErr(err)
	}

	if current.Terminal() {
		return fmt.Errorf("%w: order %s is %s", ErrAlreadyTerminal, orderID, current)
	}
	return fmt.Errorf("%w: expected %s, found %s", ErrIllegalTransition, res.From, current)
}

func (r *repository) CountByStatus(ctx context.Context, cafeteriaID uint) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.status, COUNT(*)
		FROM orders o
		WHERE o.cafeteria_id = $1
		GROUP BY o.status
	`, cafeteriaID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	counts := make(map[Status]int, len(Statuses()))
	for _, s := range Statuses() {
		counts[s] = 0
	}
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, storeErr(err)
		}
		counts[s] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	return counts, nil
}
