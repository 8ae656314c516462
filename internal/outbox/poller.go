package outbox

import (
	"context"
	"time"

	"antiromantic-be/internal/logger"

	"go.uber.org/zap"
)

// Poller relays unpublished events to the publisher until ctx is done.
type Poller struct {
	repo      Repository
	publisher Publisher
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewPoller(repo Repository, publisher Publisher, interval time.Duration, batchSize int) *Poller {
	return &Poller{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.ProcessBatch(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// ProcessBatch publishes one batch and returns how many events were marked.
// Publishing stops at the first failure so events keep their order.
func (p *Poller) ProcessBatch(ctx context.Context) int {
	log := logger.FromCtx(ctx).With(zap.String("layer", "outbox"))

	events, err := p.repo.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		log.Error("failed to fetch outbox events", zap.Error(err))
		return 0
	}

	published := 0
	for _, e := range events {
		if err := p.publisher.Publish(ctx, e); err != nil {
			log.Warn("failed to publish outbox event",
				zap.String("event_id", e.ID),
				zap.String("event_type", e.EventType),
				zap.Error(err),
			)
			break
		}

		if err := p.repo.MarkPublished(ctx, e.ID, p.now().UTC()); err != nil {
			log.Error("failed to mark outbox event published",
				zap.String("event_id", e.ID),
				zap.Error(err),
			)
			break
		}
		published++
	}

	if published > 0 {
		log.Debug("outbox events published", zap.Int("count", published))
	}
	return published
}
