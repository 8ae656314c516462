package product

import (
	"context"

	"antiromantic-be/internal/db"
	"antiromantic-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Restock(ctx context.Context, id uuid.UUID, size string, qty int) (*Product, error)
}

type service struct {
	repo Repository
	tx   db.Transactor
}

func NewService(repo Repository, tx db.Transactor) Service {
	return &service{repo: repo, tx: tx}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Restock is the only path that increases stock.
func (s *service) Restock(ctx context.Context, id uuid.UUID, size string, qty int) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Restock"),
		zap.String("product_id", id.String()),
		zap.String("size", size),
		zap.Int("qty", qty),
	)

	parsed, ok := ParseSize(size)
	if !ok {
		log.Warn("invalid size")
		return nil, ErrInvalidSize
	}
	if qty <= 0 {
		log.Warn("invalid quantity")
		return nil, ErrInvalidQuantity
	}

	var p *Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.IncrementStock(ctx, id, parsed, qty); err != nil {
			return err
		}

		var err error
		p, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		log.Error("restock failed", zap.Error(err))
		return nil, err
	}

	log.Info("product restocked",
		zap.Int("total_stock", p.TotalStock),
		zap.String("status", string(p.Status)),
	)

	return p, nil
}
