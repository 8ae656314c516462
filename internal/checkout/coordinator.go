package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"antiromantic-be/internal/apperr"
	"antiromantic-be/internal/coupon"
	"antiromantic-be/internal/db"
	"antiromantic-be/internal/idempotency"
	"antiromantic-be/internal/logger"
	"antiromantic-be/internal/metrics"
	"antiromantic-be/internal/order"
	"antiromantic-be/internal/outbox"
	"antiromantic-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Assembler interface {
	Assemble(ctx context.Context, in order.AssembleInput) (*order.Draft, error)
}

type Coupons interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time) (*coupon.Quote, error)
	RecordUsage(ctx context.Context, in coupon.UsageInput) error
}

type Stock interface {
	DecrementStock(ctx context.Context, id uuid.UUID, size product.Size, qty int) error
}

type Orders interface {
	Create(ctx context.Context, o *order.Order) error
}

type OrderNumbers interface {
	Next(ctx context.Context) (string, error)
}

type Events interface {
	Enqueue(ctx context.Context, e *outbox.Event) error
}

type Deps struct {
	Tx          db.Transactor
	Assembler   Assembler
	Coupons     Coupons
	Stock       Stock
	Orders      Orders
	Numbers     OrderNumbers
	Events      Events
	Idempotency idempotency.Store
	Metrics     *metrics.Checkout
}

// Coordinator turns a cart into a persisted order. Order insert, stock
// decrements, coupon consumption and the order.created event commit or roll
// back together.
// storeTimeout bounds idempotency bookkeeping that runs after the request
// context may already be gone.
const storeTimeout = 2 * time.Second

type Coordinator struct {
	Deps
	now func() time.Time
}

func NewCoordinator(d Deps) *Coordinator {
	if d.Metrics == nil {
		d.Metrics = &metrics.Checkout{}
	}
	return &Coordinator{Deps: d, now: time.Now}
}

// Checkout places an order for customerID. A non-empty idempotencyKey makes
// retries of the same request return the first result.
func (c *Coordinator) Checkout(ctx context.Context, customerID, idempotencyKey string, req Request) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
	)

	c.Metrics.Attempts.Inc()
	timer := metrics.StartTimer()

	if customerID == "" {
		c.Metrics.Rejected.Inc()
		return nil, ErrUnauthenticated
	}

	scope := "checkout:" + customerID
	fingerprint := req.fingerprint()
	useIdempotency := idempotencyKey != "" && c.Idempotency != nil
	if useIdempotency {
		stored, err := c.Idempotency.Reserve(ctx, scope, idempotencyKey, fingerprint)
		switch {
		case err != nil && apperr.KindOf(err) != apperr.KindInternal:
			c.Metrics.Rejected.Inc()
			return nil, err
		case err != nil:
			// store unreachable: serve the request without replay protection
			log.Warn("idempotency store unavailable", zap.Error(err))
			useIdempotency = false
		case stored != nil:
			var res Result
			if err := json.Unmarshal(stored, &res); err != nil {
				return nil, fmt.Errorf("decode stored checkout result: %w", err)
			}
			c.Metrics.Replayed.Inc()
			log.Info("checkout replayed", zap.String("order_number", res.OrderNumber))
			return &res, nil
		}
	}

	res, err := c.place(ctx, customerID, req)
	c.Metrics.Observe(timer)

	if err != nil {
		if useIdempotency {
			storeCtx, cancel := detached(ctx)
			if relErr := c.Idempotency.Release(storeCtx, scope, idempotencyKey); relErr != nil {
				log.Warn("failed to release idempotency key", zap.Error(relErr))
			}
			cancel()
		}

		if apperr.KindOf(err) == apperr.KindInternal {
			c.Metrics.Failed.Inc()
			log.Error("checkout failed", zap.Error(err))
		} else {
			c.Metrics.Rejected.Inc()
			log.Info("checkout rejected", zap.Error(err))
		}
		return nil, err
	}

	c.Metrics.Succeeded.Inc()

	if useIdempotency {
		storeCtx, cancel := detached(ctx)
		if body, mErr := json.Marshal(res); mErr != nil {
			log.Warn("failed to encode checkout result", zap.Error(mErr))
		} else if cErr := c.Idempotency.Complete(storeCtx, scope, idempotencyKey, fingerprint, body); cErr != nil {
			log.Warn("failed to store checkout result", zap.Error(cErr))
		}
		cancel()
	}

	log.Info("checkout completed",
		zap.String("order_number", res.OrderNumber),
		zap.String("total", res.Total.StringFixed(2)),
		zap.Strings("warnings", res.Warnings),
	)
	return res, nil
}

// detached keeps ctx values (request id, user id) but not its cancellation,
// so a client disconnect cannot leave a key stuck in the pending state.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}

func (c *Coordinator) place(ctx context.Context, customerID string, req Request) (*Result, error) {
	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var (
		placed   *order.Order
		warnings []string
	)

	err = c.Tx.WithinTx(ctx, func(ctx context.Context) error {
		draft, err := c.Assembler.Assemble(ctx, order.AssembleInput{
			Items:           req.Items,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  req.BillingAddress,
			CustomerID:      customerID,
			PaymentMethod:   method,
		})
		if err != nil {
			return err
		}

		now := c.now().UTC()

		if code := req.couponCode(); code != "" {
			quote, err := c.Coupons.Validate(ctx, code, draft.Totals.Subtotal, now)
			if err != nil {
				return err
			}
			draft.ApplyCoupon(quote.Coupon)
		}

		number, err := c.Numbers.Next(ctx)
		if err != nil {
			return err
		}

		placed = draft.NewOrder(uuid.New(), number, now)
		if err := c.Orders.Create(ctx, placed); err != nil {
			return err
		}

		for _, d := range draft.Demand() {
			if err := c.Stock.DecrementStock(ctx, d.ProductID, d.Size, d.Quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					return fmt.Errorf("%w: %s size %s", err, itemName(placed, d.ProductID), d.Size)
				}
				return err
			}
		}

		if placed.Coupon != nil {
			warning, err := c.recordCouponUsage(ctx, placed)
			if err != nil {
				return err
			}
			if warning != "" {
				warnings = append(warnings, warning)
			}
		}

		event, err := outbox.NewEvent(outbox.AggregateOrder, placed.OrderNumber, outbox.EventOrderPlaced, newOrderPlaced(placed, warnings))
		if err != nil {
			return err
		}
		return c.Events.Enqueue(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		OrderNumber: placed.OrderNumber,
		OrderID:     placed.ID,
		Total:       placed.Total,
		Warnings:    warnings,
	}, nil
}

// recordCouponUsage consumes the coupon behind a savepoint. Hitting the cap
// aborts the checkout; any other failure is rolled back to the savepoint and
// reported as a warning.
func (c *Coordinator) recordCouponUsage(ctx context.Context, o *order.Order) (string, error) {
	err := db.Savepoint(ctx, "coupon_usage", func(ctx context.Context) error {
		return c.Coupons.RecordUsage(ctx, coupon.UsageInput{
			CouponID: o.Coupon.ID,
			UserID:   o.CustomerID,
			OrderID:  uuid.NullUUID{UUID: o.ID, Valid: true},
		})
	})
	if err == nil {
		return "", nil
	}
	if errors.Is(err, coupon.ErrLimitExceeded) {
		return "", err
	}

	c.Metrics.CouponSoftFailed.Inc()
	logger.FromCtx(ctx).Warn("coupon usage not recorded",
		zap.String("order_number", o.OrderNumber),
		zap.String("coupon_code", o.Coupon.Code),
		zap.Error(err),
	)
	return WarningCouponUsageNotRecorded, nil
}

func itemName(o *order.Order, productID uuid.UUID) string {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return item.Name
		}
	}
	return productID.String()
}
