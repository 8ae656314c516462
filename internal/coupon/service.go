package coupon

import (
	"context"
	"time"

	"antiromantic-be/internal/db"
	"antiromantic-be/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time) (*Quote, error)
	RecordUsage(ctx context.Context, in UsageInput) error
	Create(ctx context.Context, in CreateInput) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
}

type service struct {
	repo Repository
	tx   db.Transactor
}

func NewService(repo Repository, tx db.Transactor) Service {
	return &service{repo: repo, tx: tx}
}

// Validate checks code against the live coupon state and prices the
// discount for subtotal. It has no side effects.
func (s *service) Validate(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time) (*Quote, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ValidateCoupon"),
	)

	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrCodeRequired
	}
	if subtotal.IsNegative() {
		return nil, ErrInvalidTotal
	}

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		log.Debug("coupon lookup failed", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	if err := c.CheckUsable(now); err != nil {
		log.Debug("coupon not usable", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	return &Quote{Coupon: c, Discount: c.DiscountFor(subtotal)}, nil
}

// RecordUsage consumes one use of the coupon. Calling it twice consumes two.
func (s *service) RecordUsage(ctx context.Context, in UsageInput) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RecordUsage"),
		zap.String("coupon_id", in.CouponID.String()),
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.IncrementUsage(ctx, in.CouponID); err != nil {
			return err
		}
		return s.repo.InsertUsage(ctx, in)
	})
	if err != nil {
		log.Warn("record coupon usage failed", zap.Error(err))
		return err
	}

	log.Info("coupon usage recorded")
	return nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Coupon, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCoupon"),
	)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	c := &Coupon{
		ID:            uuid.New(),
		Code:          NormalizeCode(in.Code),
		Description:   in.Description,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		Active:        active,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate.UTC(),
		UsageLimit:    in.UsageLimit,
		PerUserLimit:  in.PerUserLimit,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		log.Warn("create coupon failed", zap.String("code", c.Code), zap.Error(err))
		return nil, err
	}

	log.Info("coupon created", zap.String("code", c.Code))
	return c, nil
}

func (s *service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}
