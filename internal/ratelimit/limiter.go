package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limit is a budget of Count units per Period. A zero Limit disables metering.
type Limit struct {
	Count  int
	Period time.Duration
}

func (l Limit) enabled() bool {
	return l.Count > 0 && l.Period > 0
}

func (l Limit) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(l.Count)/l.Period.Seconds()), l.Count)
}

// Limiter meters request weight against a global budget and counts calls
// against named buckets that carry their own budget (e.g. orders).
// Buckets are fixed at construction, so lookups need no locking.
type Limiter struct {
	weight  *rate.Limiter
	buckets map[string]*rate.Limiter
	metrics *Metrics
}

// Metrics tracks statistics about limiter usage.
type Metrics struct {
	totalRequests  atomic.Int64
	deniedRequests atomic.Int64
	weightUsed     atomic.Int64
	delayed        atomic.Int64
}

// New creates a Limiter. Disabled limits are skipped entirely.
func New(weight Limit, buckets map[string]Limit) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*rate.Limiter, len(buckets)),
		metrics: &Metrics{},
	}
	if weight.enabled() {
		l.weight = weight.limiter()
	}
	for name, b := range buckets {
		if b.enabled() {
			l.buckets[name] = b.limiter()
		}
	}
	return l
}

// Wait blocks until weight units of the global budget and one unit of bucket
// are available, or ctx is done. An empty or unknown bucket only spends weight.
func (l *Limiter) Wait(ctx context.Context, weight int, bucket string) error {
	l.metrics.totalRequests.Add(1)
	if !l.allowNow(weight, bucket) {
		l.metrics.delayed.Add(1)
	}

	if l.weight != nil && weight > 0 {
		if err := l.weight.WaitN(ctx, weight); err != nil {
			l.metrics.deniedRequests.Add(1)
			return fmt.Errorf("wait for weight %d: %w", weight, err)
		}
	}
	if b, ok := l.buckets[bucket]; ok {
		if err := b.Wait(ctx); err != nil {
			l.metrics.deniedRequests.Add(1)
			return fmt.Errorf("wait for %s bucket: %w", bucket, err)
		}
	}
	l.metrics.weightUsed.Add(int64(weight))
	return nil
}

// allowNow reports whether Wait would return without sleeping. It reserves nothing.
func (l *Limiter) allowNow(weight int, bucket string) bool {
	now := time.Now()
	if l.weight != nil && weight > 0 && l.weight.TokensAt(now) < float64(weight) {
		return false
	}
	if b, ok := l.buckets[bucket]; ok && b.TokensAt(now) < 1 {
		return false
	}
	return true
}

// Metrics returns a snapshot of the current limiter statistics.
func (l *Limiter) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   l.metrics.totalRequests.Load(),
		DeniedRequests:  l.metrics.deniedRequests.Load(),
		DelayedRequests: l.metrics.delayed.Load(),
		WeightUsed:      l.metrics.weightUsed.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of limiter statistics.
type MetricsSnapshot struct {
	// TotalRequests is the number of Wait calls.
	TotalRequests int64
	// DeniedRequests failed because ctx ended or the weight exceeded the budget.
	DeniedRequests int64
	// DelayedRequests found the budget exhausted on arrival.
	DelayedRequests int64
	// WeightUsed is the total weight granted.
	WeightUsed int64
}
