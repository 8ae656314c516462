package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Checkout counts checkout outcomes for the admin metrics endpoint.
type Checkout struct {
	Attempts         Counter
	Succeeded        Counter
	Rejected         Counter
	Failed           Counter
	Replayed         Counter
	CouponSoftFailed Counter
	totalNanos       Counter
}

// Observe records the latency of a finished checkout.
func (c *Checkout) Observe(t *Timer) {
	c.totalNanos.Add(uint64(t.Duration().Nanoseconds()))
}

type CheckoutSnapshot struct {
	Attempts         uint64  `json:"attempts"`
	Succeeded        uint64  `json:"succeeded"`
	Rejected         uint64  `json:"rejected"`
	Failed           uint64  `json:"failed"`
	Replayed         uint64  `json:"replayed"`
	CouponSoftFailed uint64  `json:"couponUsageNotRecorded"`
	AvgLatencyMillis float64 `json:"avgLatencyMs"`
}

func (c *Checkout) Snapshot() CheckoutSnapshot {
	s := CheckoutSnapshot{
		Attempts:         c.Attempts.Load(),
		Succeeded:        c.Succeeded.Load(),
		Rejected:         c.Rejected.Load(),
		Failed:           c.Failed.Load(),
		Replayed:         c.Replayed.Load(),
		CouponSoftFailed: c.CouponSoftFailed.Load(),
	}

	if finished := s.Succeeded + s.Rejected + s.Failed; finished > 0 {
		s.AvgLatencyMillis = float64(c.totalNanos.Load()) / float64(finished) / float64(time.Millisecond)
	}
	return s
}
