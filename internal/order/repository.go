package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"antiromantic-be/internal/db"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

type Repository interface {
	NextOrderSequence(ctx context.Context) (int64, error)
	Create(ctx context.Context, o *Order) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, int, error)
	StatusStats(ctx context.Context) (*Stats, error)
	UpdateStatus(ctx context.Context, orderNumber string, change StatusChange) (*Order, error)
}

// StatusChange moves an order from From to To; it only applies while the
// stored status is still From.
type StatusChange struct {
	From          Status
	To            Status
	PaymentStatus PaymentStatus
	At            time.Time
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var orderColumns = []string{
	"id", "order_number", "customer_id", "items", "shipping_address", "billing_address",
	"subtotal", "discount", "tax", "shipping", "total",
	"status", "payment_status", "payment_method", "coupon",
	"created_at", "updated_at", "confirmed_at", "shipped_at", "delivered_at", "cancelled_at",
}

// statusTimestamps names the column stamped when an order enters a status.
var statusTimestamps = map[Status]string{
	StatusConfirmed: "confirmed_at",
	StatusShipped:   "shipped_at",
	StatusDelivered: "delivered_at",
	StatusCancelled: "cancelled_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o          Order
		items      []byte
		shipping   []byte
		billing    []byte
		couponJSON []byte
		confirmed  sql.NullTime
		shipped    sql.NullTime
		delivered  sql.NullTime
		cancelled  sql.NullTime
	)

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &items, &shipping, &billing,
		&o.Subtotal, &o.Discount, &o.Tax, &o.Shipping, &o.Total,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &couponJSON,
		&o.CreatedAt, &o.UpdatedAt, &confirmed, &shipped, &delivered, &cancelled,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(shipping, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(billing, &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("decode billing address: %w", err)
	}
	if len(couponJSON) > 0 {
		o.Coupon = &AppliedCoupon{}
		if err := json.Unmarshal(couponJSON, o.Coupon); err != nil {
			return nil, fmt.Errorf("decode coupon: %w", err)
		}
	}

	o.ConfirmedAt = nullTimePtr(confirmed)
	o.ShippedAt = nullTimePtr(shipped)
	o.DeliveredAt = nullTimePtr(delivered)
	o.CancelledAt = nullTimePtr(cancelled)

	return &o, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (r *repository) NextOrderSequence(ctx context.Context) (int64, error) {
	var n int64
	err := db.RunnerFrom(ctx, r.db).
		QueryRowContext(ctx, `SELECT nextval('order_number_seq')`).
		Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next order sequence: %w", err)
	}
	return n, nil
}

// jsonb encodes v as text; lib/pq sends []byte as bytea.
func jsonb(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	items, err := jsonb(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	shipping, err := jsonb(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}
	billing, err := jsonb(o.BillingAddress)
	if err != nil {
		return fmt.Errorf("encode billing address: %w", err)
	}

	var couponJSON any
	if o.Coupon != nil {
		c, err := jsonb(o.Coupon)
		if err != nil {
			return fmt.Errorf("encode coupon: %w", err)
		}
		couponJSON = c
	}

	query, args, err := psql.Insert("orders").
		SetMap(map[string]any{
			"id":               o.ID,
			"order_number":     o.OrderNumber,
			"customer_id":      o.CustomerID,
			"items":            items,
			"shipping_address": shipping,
			"billing_address":  billing,
			"subtotal":         o.Subtotal,
			"discount":         o.Discount,
			"tax":              o.Tax,
			"shipping":         o.Shipping,
			"total":            o.Total,
			"status":           o.Status,
			"payment_status":   o.PaymentStatus,
			"payment_method":   o.PaymentMethod,
			"coupon":           couponJSON,
			"created_at":       o.CreatedAt,
			"updated_at":       o.UpdatedAt,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert order: %w", err)
	}

	_, err = db.RunnerFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateOrderNumber
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *repository) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	query, args, err := psql.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"order_number": orderNumber}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get order: %w", err)
	}

	o, err := scanOrder(db.RunnerFrom(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// likeEscaper makes user input match literally in ILIKE; backslash is the
// default escape character in Postgres.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func applyFilter(b sq.SelectBuilder, f Filter) sq.SelectBuilder {
	if f.CustomerID != "" {
		b = b.Where(sq.Eq{"customer_id": f.CustomerID})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(search) + "%"
		b = b.Where(sq.Or{
			sq.ILike{"order_number": pattern},
			sq.Expr("shipping_address->>'firstName' ILIKE ?", pattern),
			sq.Expr("shipping_address->>'lastName' ILIKE ?", pattern),
			sq.Expr("shipping_address->>'email' ILIKE ?", pattern),
			sq.Expr("shipping_address->>'city' ILIKE ?", pattern),
		})
	}
	return b
}

// List returns one page of orders, newest first, and the filtered count.
func (r *repository) List(ctx context.Context, f Filter) ([]Order, int, error) {
	run := db.RunnerFrom(ctx, r.db)

	countQuery, countArgs, err := applyFilter(psql.Select("COUNT(*)").From("orders"), f).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count orders: %w", err)
	}

	var total int
	if err := run.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query, args, err := applyFilter(psql.Select(orderColumns...).From("orders"), f).
		OrderBy("created_at DESC", "order_number DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list orders: %w", err)
	}

	rows, err := run.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, total, nil
}

// StatusStats aggregates over every order, not a filtered page.
func (r *repository) StatusStats(ctx context.Context) (*Stats, error) {
	rows, err := db.RunnerFrom(ctx, r.db).QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{ByStatus: map[Status]int{}, Revenue: decimal.Zero}
	for _, st := range Statuses {
		stats.ByStatus[st] = 0
	}

	for rows.Next() {
		var (
			status Status
			count  int
			sum    decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}

		stats.ByStatus[status] = count
		stats.Total += count
		if status.countsAsRevenue() {
			stats.Revenue = stats.Revenue.Add(sum)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order stats: %w", err)
	}

	return stats, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderNumber string, change StatusChange) (*Order, error) {
	b := psql.Update("orders").
		Set("status", change.To).
		Set("updated_at", change.At).
		Where(sq.Eq{"order_number": orderNumber, "status": change.From}).
		Suffix("RETURNING " + strings.Join(orderColumns, ", "))

	if col, ok := statusTimestamps[change.To]; ok {
		b = b.Set(col, change.At)
	}
	if change.PaymentStatus != "" {
		b = b.Set("payment_status", change.PaymentStatus)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update order status: %w", err)
	}

	o, err := scanOrder(db.RunnerFrom(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return o, nil
}
