package bayesgo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/bayesgo/operators"
)

// MetricsCollector defines an interface for collecting operational metrics
// of a structure search. Implement this interface to integrate with
// monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordCacheScores is called after the pool seeds its delta stores.
	RecordCacheScores(duration time.Duration)

	// RecordStep is called after each applied move.
	RecordStep(kind operators.Kind, delta float64, duration time.Duration)

	// RecordCheckpoint is called after each checkpoint write.
	// err is nil if successful.
	RecordCheckpoint(duration time.Duration, err error)

	// RecordSearch is called once when a search finishes.
	RecordSearch(iterations int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCacheScores(time.Duration)                   {}
func (NoopMetricsCollector) RecordStep(operators.Kind, float64, time.Duration) {}
func (NoopMetricsCollector) RecordCheckpoint(time.Duration, error)             {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CacheScoresCount      atomic.Int64
	CacheScoresTotalNanos atomic.Int64
	StepCount             atomic.Int64
	StepTotalNanos        atomic.Int64
	CheckpointCount       atomic.Int64
	CheckpointErrors      atomic.Int64
	SearchCount           atomic.Int64
	SearchErrors          atomic.Int64
	SearchTotalNanos      atomic.Int64
	IterationsTotal       atomic.Int64
}

// RecordCacheScores implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheScores(duration time.Duration) {
	b.CacheScoresCount.Add(1)
	b.CacheScoresTotalNanos.Add(duration.Nanoseconds())
}

// RecordStep implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStep(_ operators.Kind, _ float64, duration time.Duration) {
	b.StepCount.Add(1)
	b.StepTotalNanos.Add(duration.Nanoseconds())
}

// RecordCheckpoint implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCheckpoint(_ time.Duration, err error) {
	b.CheckpointCount.Add(1)
	if err != nil {
		b.CheckpointErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(iterations int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.IterationsTotal.Add(int64(iterations))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}
