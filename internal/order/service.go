package order

import (
	"context"
	"fmt"
	"time"

	"antiromantic-be/internal/logger"
	"antiromantic-be/internal/utils"

	"go.uber.org/zap"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type Service interface {
	GetByOrderNumber(ctx context.Context, orderNumber, customerID string, isAdmin bool) (*Order, error)
	ListForCustomer(ctx context.Context, customerID string, page, limit int) (*ListResult, error)
	ListForAdmin(ctx context.Context, q AdminQuery) (*AdminListResult, error)
	UpdateStatus(ctx context.Context, orderNumber string, next Status) (*Order, error)
}

type AdminQuery struct {
	Page   int
	Limit  int
	Status string
	Search string
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

// GetByOrderNumber hides orders owned by someone else behind ErrNotFound so
// order numbers cannot be enumerated.
func (s *service) GetByOrderNumber(ctx context.Context, orderNumber, customerID string, isAdmin bool) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetByOrderNumber"),
		zap.String("order_number", orderNumber),
	)

	if !isAdmin && customerID == "" {
		return nil, ErrNotFound
	}

	o, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if !isAdmin && o.CustomerID != customerID {
		log.Warn("order requested by non-owner")
		return nil, ErrNotFound
	}

	return o, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID string, page, limit int) (*ListResult, error) {
	if customerID == "" {
		return nil, ErrNotFound
	}

	page, limit, offset := utils.Pagination(page, limit, defaultPageLimit, maxPageLimit)

	orders, total, err := s.repo.List(ctx, Filter{
		CustomerID: customerID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Orders:     ToSummaries(orders),
		Pagination: paginate(page, limit, total),
	}, nil
}

func (s *service) ListForAdmin(ctx context.Context, q AdminQuery) (*AdminListResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListForAdmin"),
	)

	f := Filter{Search: q.Search}
	if q.Status != "" && q.Status != "all" {
		st, ok := ParseStatus(q.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		f.Status = st
	}

	page, limit, offset := utils.Pagination(q.Page, q.Limit, defaultPageLimit, maxPageLimit)
	f.Limit = limit
	f.Offset = offset

	orders, total, err := s.repo.List(ctx, f)
	if err != nil {
		log.Error("failed to list orders", zap.Error(err))
		return nil, err
	}

	stats, err := s.repo.StatusStats(ctx)
	if err != nil {
		log.Error("failed to aggregate order stats", zap.Error(err))
		return nil, err
	}

	log.Debug("admin orders listed",
		zap.Int("page", page),
		zap.Int("limit", limit),
		zap.Int("total", total),
	)

	return &AdminListResult{
		Orders:     ToSummaries(orders),
		Pagination: paginate(page, limit, total),
		Stats:      stats,
	}, nil
}

// UpdateStatus applies one step of the order state machine. Delivering a
// cash on delivery order marks it paid; refunding marks the payment refunded.
func (s *service) UpdateStatus(ctx context.Context, orderNumber string, next Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.String("order_number", orderNumber),
		zap.String("next_status", string(next)),
	)

	o, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(next) {
		log.Warn("rejected status transition", zap.String("status", string(o.Status)))
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, next)
	}

	change := StatusChange{From: o.Status, To: next, At: s.now().UTC()}
	switch {
	case next == StatusDelivered && o.PaymentMethod == PaymentCOD:
		change.PaymentStatus = PaymentPaid
	case next == StatusRefunded:
		change.PaymentStatus = PaymentRefunded
	}

	updated, err := s.repo.UpdateStatus(ctx, orderNumber, change)
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return nil, err
	}

	log.Info("order status updated", zap.String("previous_status", string(o.Status)))
	return updated, nil
}

func paginate(page, limit, total int) Pagination {
	totalPages := utils.TotalPages(total, limit)
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
