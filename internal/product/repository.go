package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"antiromantic-be/internal/db"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, size Size, qty int) error
	IncrementStock(ctx context.Context, id uuid.UUID, size Size, qty int) error
}

type repository struct {
	db *sql.DB
	tx db.Transactor
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn, tx: db.NewTxManager(conn)}
}

// statusAfter mirrors NextStatus for the row being updated; $2 is the signed
// stock delta.
const statusAfter = `
	CASE
		WHEN status = 'active' AND total_stock + $2 <= 0 THEN 'out_of_stock'
		WHEN status = 'out_of_stock' AND total_stock + $2 > 0 THEN 'active'
		ELSE status
	END`

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	run := db.RunnerFrom(ctx, r.db)

	var p Product
	err := run.QueryRowContext(ctx, `
		SELECT id, name, sku, color, image, price, total_stock, status, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Name, &p.SKU, &p.Color, &p.Image, &p.Price,
		&p.TotalStock, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	rows, err := run.QueryContext(ctx, `
		SELECT size, stock
		FROM product_sizes
		WHERE product_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get product sizes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SizeStock
		if err := rows.Scan(&s.Size, &s.Stock); err != nil {
			return nil, fmt.Errorf("scan product size: %w", err)
		}
		p.Sizes = append(p.Sizes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product sizes: %w", err)
	}

	sort.Slice(p.Sizes, func(i, j int) bool {
		return p.Sizes[i].Size.Rank() < p.Sizes[j].Size.Rank()
	})

	return &p, nil
}

// DecrementStock takes qty units of size from the product. Both counters are
// conditional updates, so two buyers racing for the last unit cannot both
// win. The product row is locked before the size row; callers decrementing
// several products must do so in a stable product order.
func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, size Size, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		run := db.RunnerFrom(ctx, r.db)

		res, err := run.ExecContext(ctx, `
			UPDATE products
			SET total_stock = total_stock + $2,
				status = `+statusAfter+`,
				updated_at = NOW()
			WHERE id = $1 AND total_stock >= $3
		`, id, -qty, qty)
		if err != nil {
			return fmt.Errorf("decrement total stock: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("decrement total stock: %w", err)
		} else if n == 0 {
			return ErrInsufficientStock
		}

		res, err = run.ExecContext(ctx, `
			UPDATE product_sizes
			SET stock = stock - $3
			WHERE product_id = $1 AND size = $2 AND stock >= $3
		`, id, size, qty)
		if err != nil {
			return fmt.Errorf("decrement size stock: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("decrement size stock: %w", err)
		} else if n == 0 {
			return ErrInsufficientStock
		}

		return nil
	})
}

// IncrementStock adds qty units of size, creating the size row when the
// product did not carry that size yet.
func (r *repository) IncrementStock(ctx context.Context, id uuid.UUID, size Size, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		run := db.RunnerFrom(ctx, r.db)

		res, err := run.ExecContext(ctx, `
			UPDATE products
			SET total_stock = total_stock + $2,
				status = `+statusAfter+`,
				updated_at = NOW()
			WHERE id = $1
		`, id, qty)
		if err != nil {
			return fmt.Errorf("increment total stock: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("increment total stock: %w", err)
		} else if n == 0 {
			return ErrNotFound
		}

		_, err = run.ExecContext(ctx, `
			INSERT INTO product_sizes (product_id, size, stock)
			VALUES ($1, $2, $3)
			ON CONFLICT (product_id, size)
			DO UPDATE SET stock = product_sizes.stock + EXCLUDED.stock
		`, id, size, qty)
		if db.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("increment size stock: %w", err)
		}

		return nil
	})
}
