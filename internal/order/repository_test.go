package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRows() *sqlmock.Rows {
	return sqlmock.NewRows(orderColumns)
}

func addOrderRow(rows *sqlmock.Rows, id uuid.UUID, number, customer string, status Status, now time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id.String(), number, customer,
		`[{"productId":"`+uuid.NewString()+`","name":"Linen Shirt","size":"M","quantity":2,"price":"100","total":"200"}]`,
		`{"firstName":"Ana","address":"Jl. Melati 1","city":"Jakarta"}`,
		`{"firstName":"Ana","address":"Jl. Melati 1","city":"Jakarta"}`,
		"200.00", "20.00", "0.00", "0.00", "180.00",
		string(status), "pending", "cod",
		`{"code":"SAVE10","discountType":"percentage","discountValue":"10","discountAmount":"20"}`,
		now, now, nil, nil, nil, nil,
	)
}

func TestRepository_NextOrderSequence(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	repo := NewRepository(conn)

	mock.ExpectQuery(`SELECT nextval\('order_number_seq'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(42)))

	n, err := repo.NextOrderSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	o := &Order{
		ID:              uuid.New(),
		OrderNumber:     "AR17296400000000001",
		CustomerID:      "user-1",
		Items:           []Item{{ProductID: uuid.New(), Name: "Linen Shirt", Size: "M", Quantity: 2}},
		ShippingAddress: *shipTo,
		BillingAddress:  *shipTo,
		Totals:          Totals{Subtotal: decimal.NewFromInt(200), Total: decimal.NewFromInt(200)},
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		PaymentMethod:   PaymentCOD,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	t.Run("Success", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		mock.ExpectExec(`INSERT INTO orders \(billing_address,coupon,created_at,customer_id,discount,id,items,order_number`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, o))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateOrderNumber", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		mock.ExpectExec(`INSERT INTO orders`).WillReturnError(&pq.Error{Code: "23505"})

		assert.ErrorIs(t, repo.Create(ctx, o), ErrDuplicateOrderNumber)
	})
}

func TestRepository_GetByOrderNumber(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		mock.ExpectQuery(`SELECT id, order_number, .* FROM orders WHERE order_number = \$1`).
			WithArgs("AR1").
			WillReturnRows(addOrderRow(orderRows(), id, "AR1", "user-1", StatusPending, now))

		o, err := repo.GetByOrderNumber(ctx, "AR1")
		require.NoError(t, err)
		assert.Equal(t, id, o.ID)
		assert.Equal(t, "Jakarta", o.ShippingAddress.City)
		require.Len(t, o.Items, 1)
		assert.Equal(t, 2, o.Items[0].Quantity)
		require.NotNil(t, o.Coupon)
		assert.Equal(t, "SAVE10", o.Coupon.Code)
		assert.True(t, o.Totals.Balanced())
		assert.Nil(t, o.ConfirmedAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		mock.ExpectQuery(`SELECT .* FROM orders`).WillReturnRows(orderRows())

		_, err = repo.GetByOrderNumber(ctx, "AR404")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("CustomerScoped", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE customer_id = \$1`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT id, .* FROM orders WHERE customer_id = \$1 ORDER BY created_at DESC, order_number DESC LIMIT 20 OFFSET 0`).
			WithArgs("user-1").
			WillReturnRows(addOrderRow(orderRows(), uuid.New(), "AR1", "user-1", StatusPending, now))

		orders, total, err := repo.List(ctx, Filter{CustomerID: "user-1", Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, orders, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("StatusAndSearch", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE status = \$1 AND \(order_number ILIKE \$2 OR shipping_address->>'firstName' ILIKE \$3`).
			WithArgs("shipped", "%ana%", "%ana%", "%ana%", "%ana%", "%ana%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT id, .* FROM orders WHERE status = \$1 AND .* LIMIT 10 OFFSET 10`).
			WillReturnRows(orderRows())

		orders, total, err := repo.List(ctx, Filter{Status: StatusShipped, Search: " ana ", Limit: 10, Offset: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, orders)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SearchMatchesWildcardsLiterally", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		want := `%50\%\_off\\%`
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE \(order_number ILIKE \$1`).
			WithArgs(want, want, want, want, want).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT id, .* FROM orders WHERE`).
			WithArgs(want, want, want, want, want).
			WillReturnRows(orderRows())

		_, _, err = repo.List(ctx, Filter{Search: `50%_off\`, Limit: 20})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CountError", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		mock.ExpectQuery(`SELECT COUNT`).WillReturnError(errors.New("db down"))

		_, _, err = repo.List(ctx, Filter{Limit: 20})
		assert.Error(t, err)
	})
}

func TestRepository_StatusStats(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	repo := NewRepository(conn)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\), COALESCE\(SUM\(total\), 0\) FROM orders GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count", "sum"}).
			AddRow("pending", 3, "300.00").
			AddRow("confirmed", 2, "150.50").
			AddRow("delivered", 1, "99.50").
			AddRow("cancelled", 4, "1000.00"))

	stats, err := repo.StatusStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 3, stats.ByStatus[StatusPending])
	assert.Equal(t, 0, stats.ByStatus[StatusShipped])
	assert.True(t, decimal.RequireFromString("250").Equal(stats.Revenue), stats.Revenue.String())
}

func TestRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("DeliveredStampsAndMarksPaid", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		mock.ExpectQuery(`UPDATE orders SET status = \$1, updated_at = \$2, delivered_at = \$3, payment_status = \$4 WHERE order_number = \$5 AND status = \$6 RETURNING id`).
			WithArgs("delivered", now, now, "paid", "AR1", "shipped").
			WillReturnRows(addOrderRow(orderRows(), uuid.New(), "AR1", "user-1", StatusDelivered, now))

		o, err := repo.UpdateStatus(ctx, "AR1", StatusChange{From: StatusShipped, To: StatusDelivered, PaymentStatus: PaymentPaid, At: now})
		require.NoError(t, err)
		assert.Equal(t, StatusDelivered, o.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoTimestampColumn", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		mock.ExpectQuery(`UPDATE orders SET status = \$1, updated_at = \$2 WHERE order_number = \$3 AND status = \$4`).
			WithArgs("processing", now, "AR1", "confirmed").
			WillReturnRows(addOrderRow(orderRows(), uuid.New(), "AR1", "user-1", StatusProcessing, now))

		_, err = repo.UpdateStatus(ctx, "AR1", StatusChange{From: StatusConfirmed, To: StatusProcessing, At: now})
		require.NoError(t, err)
	})

	t.Run("ChangedConcurrently", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		repo := NewRepository(conn)

		mock.ExpectQuery(`UPDATE orders`).WillReturnRows(orderRows())

		_, err = repo.UpdateStatus(ctx, "AR1", StatusChange{From: StatusPending, To: StatusConfirmed, At: now})
		assert.ErrorIs(t, err, ErrStatusChanged)
	})
}
