package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderColumns() []string {
	return []string{
		"id", "cafeteria_id", "customer_id", "status",
		"total_amount", "pickup_time", "created_at", "updated_at",
	}
}

func TestRepository_ListByStatus(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(orderColumns()).
			AddRow(uuid.New(), 1, 42, "NEW", 25, nil, now, now).
			AddRow(uuid.New(), 1, 43, "NEW", 10, nil, now.Add(-time.Minute), now)

		mockDB.ExpectQuery(`SELECT .* FROM orders o WHERE o.cafeteria_id = \$1 AND o.status = \$2 ORDER BY o.created_at DESC, o.id DESC LIMIT \$3`).
			WithArgs(uint(1), StatusNew, int32(10)).
			WillReturnRows(rows)

		orders, err := repo.ListByStatus(ctx, 1, StatusNew, 10)
		require.NoError(t, err)
		assert.Len(t, orders, 2)
		assert.Equal(t, StatusNew, orders[0].Status)
	})

	t.Run("EmptyResultIsNotAnError", func(t *testing.T) {
		mockDB.ExpectQuery(`SELECT .* FROM orders`).
			WithArgs(uint(1), StatusReady, int32(20)).
			WillReturnRows(sqlmock.NewRows(orderColumns()))

		orders, err := repo.ListByStatus(ctx, 1, StatusReady, 20)
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
	})

	t.Run("LimitClamped", func(t *testing.T) {
		mockDB.ExpectQuery(`SELECT .* FROM orders`).
			WithArgs(uint(1), StatusNew, int32(100)).
			WillReturnRows(sqlmock.NewRows(orderColumns()))

		_, err := repo.ListByStatus(ctx, 1, StatusNew, 500)
		assert.NoError(t, err)
	})

	t.Run("DefaultLimit", func(t *testing.T) {
		mockDB.ExpectQuery(`SELECT .* FROM orders`).
			WithArgs(uint(1), StatusNew, int32(20)).
			WillReturnRows(sqlmock.NewRows(orderColumns()))

		_, err := repo.ListByStatus(ctx, 1, StatusNew, 0)
		assert.NoError(t, err)
	})

	t.Run("DBError", func(t *testing.T) {
		mockDB.ExpectQuery(`SELECT .* FROM orders`).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.ListByStatus(ctx, 1, StatusNew, 10)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestRepository_ApplyTransition(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	res := &TransitionResult{From: StatusNew, To: StatusPreparing}

	t.Run("ConditionalWriteWins", func(t *testing.T) {
		mockDB.ExpectExec(`UPDATE orders SET status = \$1`).
			WithArgs(StatusPreparing, nil, nil, nil, orderID, StatusNew).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ApplyTransition(ctx, orderID, res)
		assert.NoError(t, err)
	})

	t.Run("LoserSeesAlreadyTerminal", func(t *testing.T) {
		mockDB.ExpectExec(`UPDATE orders SET status = \$1`).
			WithArgs(StatusPreparing, nil, nil, nil, orderID, StatusNew).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mockDB.ExpectQuery(`SELECT status FROM orders WHERE id = \$1`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("CANCELLED"))

		err := repo.ApplyTransition(ctx, orderID, res)
		assert.ErrorIs(t, err, ErrAlreadyTerminal)
	})

	t.Run("LoserSeesIllegalTransition", func(t *testing.T) {
		mockDB.ExpectExec(`UPDATE orders SET status = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mockDB.ExpectQuery(`SELECT status FROM orders WHERE id = \$1`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("PREPARING"))

		err := repo.ApplyTransition(ctx, orderID, res)
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})

	t.Run("OrderVanished", func(t *testing.T) {
		mockDB.ExpectExec(`UPDATE orders SET status = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mockDB.ExpectQuery(`SELECT status FROM orders WHERE id = \$1`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}))

		err := repo.ApplyTransition(ctx, orderID, res)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		mockDB.ExpectExec(`UPDATE orders SET status = \$1`).
			WillReturnError(errors.New("connection reset"))

		err := repo.ApplyTransition(ctx, orderID, res)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("CancellationFieldsWritten", func(t *testing.T) {
		reason := "out of stock"
		role := RoleStaff
		at := time.Now()
		cancel := &TransitionResult{
			From:               StatusPreparing,
			To:                 StatusCancelled,
			CancellationReason: &reason,
			CancelledBy:        &role,
			CancelledAt:        &at,
		}

		mockDB.ExpectExec(`UPDATE orders SET status = \$1`).
			WithArgs(StatusCancelled, &reason, &role, &at, orderID, StatusPreparing).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ApplyTransition(ctx, orderID, cancel)
		assert.NoError(t, err)
	})
}

func TestRepository_Get(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		orderRow := sqlmock.NewRows([]string{
			"id", "cafeteria_id", "customer_id", "status",
			"total_amount", "pickup_time", "created_at", "updated_at",
			"cancellation_reason", "cancelled_by", "cancelled_at",
		}).AddRow(orderID, 1, 42, "NEW", 0, nil, now, now, nil, nil, nil)

		itemRows := sqlmock.NewRows([]string{
			"id", "order_id", "menu_item_id", "name", "quantity", "unit_price", "notes",
		}).
			AddRow(1, orderID, 10, "Nasi Goreng", 2, 10, nil).
			AddRow(2, orderID, 11, "Es Teh", 1, 5, nil)

		mockDB.ExpectQuery(`SELECT .* FROM orders o WHERE o.id = \$1`).
			WithArgs(orderID).
			WillReturnRows(orderRow)
		mockDB.ExpectQuery(`SELECT .* FROM order_items i JOIN menu_items m`).
			WithArgs(orderID).
			WillReturnRows(itemRows)

		o, err := repo.Get(ctx, orderID)
		require.NoError(t, err)

		assert.Len(t, o.Items, 2)
		// Stored total is zero, so the read-side total derives from items.
		assert.Equal(t, 25, o.Total())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockDB.ExpectQuery(`SELECT .* FROM orders o WHERE o.id = \$1`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.Get(ctx, orderID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_GetDetail(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		detailRow := sqlmock.NewRows([]string{
			"id", "cafeteria_id", "customer_id", "status",
			"total_amount", "pickup_time", "created_at", "updated_at",
			"cancellation_reason", "cancelled_by", "cancelled_at",
			"display_name", "email",
		}).AddRow(orderID, 1, 42, "PREPARING", 25, nil, now, now, nil, nil, nil,
			"Budi", "budi@example.com")

		itemRows := sqlmock.NewRows([]string{
			"id", "order_id", "menu_item_id", "name", "quantity", "unit_price", "notes",
		}).AddRow(1, orderID, 10, "Nasi Goreng", 2, 10, nil)

		mockDB.ExpectQuery(`SELECT .* FROM orders o JOIN users u ON u.id = o.customer_id WHERE o.id = \$1`).
			WithArgs(orderID).
			WillReturnRows(detailRow)
		mockDB.ExpectQuery(`SELECT .* FROM order_items i JOIN menu_items m`).
			WithArgs(orderID).
			WillReturnRows(itemRows)

		d, err := repo.GetDetail(ctx, orderID)
		require.NoError(t, err)

		assert.Equal(t, "Budi", d.CustomerName)
		assert.Equal(t, "budi@example.com", d.CustomerEmail)
		require.Len(t, d.Items, 1)
		assert.Equal(t, "Nasi Goreng", d.Items[0].Name)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockDB.ExpectQuery(`SELECT .* FROM orders o JOIN users u`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetDetail(ctx, orderID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_Create(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	o := &Order{
		ID:          uuid.New(),
		CafeteriaID: 1,
		CustomerID:  42,
		Status:      StatusNew,
		TotalAmount: 25,
		CreatedAt:   time.Now(),
		Items: []Item{
			{MenuItemID: 10, Quantity: 2, UnitPrice: 10},
			{MenuItemID: 11, Quantity: 1, UnitPrice: 5},
		},
	}

	t.Run("Success", func(t *testing.T) {
		mockDB.ExpectBegin()
		mockDB.ExpectExec(`INSERT INTO orders`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.ExpectExec(`INSERT INTO order_items`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mockDB.ExpectExec(`INSERT INTO order_items`).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mockDB.ExpectCommit()

		err := repo.Create(ctx, o)
		assert.NoError(t, err)
	})

	t.Run("RollbackOnItemFailure", func(t *testing.T) {
		mockDB.ExpectBegin()
		mockDB.ExpectExec(`INSERT INTO orders`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.ExpectExec(`INSERT INTO order_items`).
			WillReturnError(errors.New("constraint violation"))
		mockDB.ExpectRollback()

		err := repo.Create(ctx, o)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestRepository_CountByStatus(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"status", "count"}).
			AddRow("NEW", 3).
			AddRow("PREPARING", 2)

		mockDB.ExpectQuery(`SELECT o.status, COUNT\(\*\) FROM orders o WHERE o.cafeteria_id = \$1 GROUP BY o.status`).
			WithArgs(uint(1)).
			WillReturnRows(rows)

		counts, err := repo.CountByStatus(ctx, 1)
		require.NoError(t, err)

		assert.Equal(t, 3, counts[StatusNew])
		assert.Equal(t, 2, counts[StatusPreparing])
		// Statuses with no rows still appear, at zero.
		assert.Equal(t, 0, counts[StatusCompleted])
		assert.Len(t, counts, 5)
	})

	t.Run("DBError", func(t *testing.T) {
		mockDB.ExpectQuery(`SELECT o.status, COUNT\(\*\)`).
			WillReturnError(errors.New("timeout"))

		_, err := repo.CountByStatus(ctx, 1)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}
