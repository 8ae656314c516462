package order

import (
	"context"
	"fmt"
	"time"

	"antiromantic-be/internal/utils"
)

// SequenceSource hands out monotonically increasing values from storage.
type SequenceSource interface {
	NextOrderSequence(ctx context.Context) (int64, error)
}

// NumberGenerator issues human readable order numbers:
// prefix + epoch millis + 4-digit sequence.
type NumberGenerator struct {
	seq    SequenceSource
	prefix string
	now    func() time.Time
}

func NewNumberGenerator(seq SequenceSource, prefix string) *NumberGenerator {
	return &NumberGenerator{seq: seq, prefix: prefix, now: time.Now}
}

func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	n, err := g.seq.NextOrderSequence(ctx)
	if err != nil {
		return "", fmt.Errorf("next order sequence: %w", err)
	}
	return utils.FormatOrderNumber(g.prefix, g.now(), n), nil
}
