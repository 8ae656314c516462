package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"antiromantic-be/internal/checkout"
	"antiromantic-be/internal/config"
	"antiromantic-be/internal/coupon"
	"antiromantic-be/internal/db"
	"antiromantic-be/internal/handler"
	"antiromantic-be/internal/idempotency"
	"antiromantic-be/internal/logger"
	"antiromantic-be/internal/metrics"
	"antiromantic-be/internal/middleware"
	"antiromantic-be/internal/order"
	"antiromantic-be/internal/outbox"
	"antiromantic-be/internal/product"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
	shutdownTimeout         = 15 * time.Second
	requestTimeout          = 30 * time.Second
	limiterIdleTTL          = 10 * time.Minute
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.L().Fatal("server stopped with error", zap.Error(err))
	}
}

type infra struct {
	db        *sql.DB
	redis     *redis.Client
	publisher outbox.Publisher
}

type server struct {
	handler http.Handler
	poller  *outbox.Poller
	limiter *middleware.RateLimiter
}

func newServer(cfg *config.Config, in infra) *server {
	tx := db.NewTxManager(in.db)

	productRepo := product.NewRepository(in.db)
	productSvc := product.NewService(productRepo, tx)

	couponRepo := coupon.NewRepository(in.db)
	couponSvc := coupon.NewService(couponRepo, tx)

	orderRepo := order.NewRepository(in.db)
	orderSvc := order.NewService(orderRepo)

	outboxRepo := outbox.NewRepository(in.db)
	checkoutMetrics := &metrics.Checkout{}

	deps := checkout.Deps{
		Tx:        tx,
		Assembler: order.NewAssembler(productRepo),
		Coupons:   couponSvc,
		Stock:     productRepo,
		Orders:    orderRepo,
		Numbers:   order.NewNumberGenerator(orderRepo, cfg.OrderNumberPrefix),
		Events:    outboxRepo,
		Metrics:   checkoutMetrics,
	}
	if in.redis != nil {
		deps.Idempotency = idempotency.NewRedisStore(in.redis, cfg.IdempotencyTTL, cfg.IdempotencyLockTTL)
	}
	coordinator := checkout.NewCoordinator(deps)

	limiter := middleware.NewRateLimiter(limiterIdleTTL)

	h := handler.NewRouter(handler.Handlers{
		Checkout: handler.NewCheckoutHandler(coordinator),
		Coupons:  handler.NewCouponHandler(couponSvc),
		Orders:   handler.NewOrderHandler(orderSvc),
		Products: handler.NewProductHandler(productSvc),
		Health:   handler.NewHealthHandler(in.db),
		Metrics:  handler.NewMetricsHandler(checkoutMetrics),
	}, handler.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Limiter:        limiter,
		RequestTimeout: requestTimeout,
	})

	return &server{
		handler: h,
		poller:  outbox.NewPoller(outboxRepo, in.publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize),
		limiter: limiter,
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	// money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	conn := initDBFunc(cfg)
	defer conn.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	writer := outbox.NewKafkaWriter(cfg.KafkaOrderTopic, cfg.KafkaBrokers...)
	defer writer.Close()

	srv := newServer(cfg, infra{
		db:        conn,
		redis:     rdb,
		publisher: outbox.NewKafkaPublisher(writer, breakerFailureThreshold, breakerOpenTimeout),
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", httpSrv.Addr), zap.String("env", cfg.AppEnv))
		if err := startServerFunc(httpSrv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return srv.poller.Run(gctx)
	})

	g.Go(func() error {
		srv.limiter.Run(time.Minute, gctx.Done())
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
