package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"antiromantic-be/internal/db"

	"github.com/google/uuid"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	InsertUsage(ctx context.Context, in UsageInput) error
	Create(ctx context.Context, c *Coupon) error
	List(ctx context.Context) ([]Coupon, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

const couponColumns = `
	id, code, description, discount_type, discount_value, active,
	start_date, end_date, usage_limit, per_user_limit, used_count,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (*Coupon, error) {
	var (
		c            Coupon
		usageLimit   sql.NullInt64
		perUserLimit sql.NullInt64
	)

	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue, &c.Active,
		&c.StartDate, &c.EndDate, &usageLimit, &perUserLimit, &c.UsedCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if usageLimit.Valid {
		v := int(usageLimit.Int64)
		c.UsageLimit = &v
	}
	if perUserLimit.Valid {
		v := int(perUserLimit.Int64)
		c.PerUserLimit = &v
	}

	return &c, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	row := db.RunnerFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = UPPER($1)`, code)

	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon by code: %w", err)
	}
	return c, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	row := db.RunnerFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)

	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon by id: %w", err)
	}
	return c, nil
}

// IncrementUsage bumps used_count by one iff the cap allows it.
func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	run := db.RunnerFrom(ctx, r.db)

	res, err := run.ExecContext(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1,
			updated_at = NOW()
		WHERE id = $1
			AND (usage_limit IS NULL OR used_count < usage_limit)
	`, id)
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := run.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupons WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check coupon exists: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrLimitExceeded
}

func (r *repository) InsertUsage(ctx context.Context, in UsageInput) error {
	userID := sql.NullString{String: in.UserID, Valid: in.UserID != ""}

	_, err := db.RunnerFrom(ctx, r.db).ExecContext(ctx, `
		INSERT INTO coupon_usages (coupon_id, user_id, order_id)
		VALUES ($1, $2, $3)
	`, in.CouponID, userID, in.OrderID)
	if db.IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert coupon usage: %w", err)
	}
	return nil
}

func (r *repository) Create(ctx context.Context, c *Coupon) error {
	err := db.RunnerFrom(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO coupons (
			id, code, description, discount_type, discount_value, active,
			start_date, end_date, usage_limit, per_user_limit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING used_count, created_at, updated_at
	`,
		c.ID, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.Active,
		c.StartDate, c.EndDate, c.UsageLimit, c.PerUserLimit,
	).Scan(&c.UsedCount, &c.CreatedAt, &c.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context) ([]Coupon, error) {
	rows, err := db.RunnerFrom(ctx, r.db).QueryContext(ctx,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupons: %w", err)
	}

	return coupons, nil
}
