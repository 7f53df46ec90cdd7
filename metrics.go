package linescan

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting scanner metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordRecord is called for every completed record. zeroCopy reports
	// whether the view pointed into the caller's chunk.
	RecordRecord(length int, zeroCopy bool)

	// RecordPartial is called whenever a call ends without a record.
	// staged is the number of elements appended to the buffer.
	RecordPartial(staged int)

	// RecordGrow is called after the staging buffer is reallocated.
	RecordGrow(oldCap, newCap int)

	// RecordAllocFailure is called when a record is abandoned.
	RecordAllocFailure(err error)

	// RecordStream is called when a Reader reaches the end of its input.
	RecordStream(records, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRecord(int, bool)                            {}
func (NoopMetricsCollector) RecordPartial(int)                                 {}
func (NoopMetricsCollector) RecordGrow(int, int)                               {}
func (NoopMetricsCollector) RecordAllocFailure(error)                          {}
func (NoopMetricsCollector) RecordStream(int64, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	Records        atomic.Int64
	ZeroCopy       atomic.Int64
	RecordElements atomic.Int64
	Partials       atomic.Int64
	StagedElements atomic.Int64
	Grows          atomic.Int64
	MaxCapacity    atomic.Int64
	AllocFailures  atomic.Int64
	Streams        atomic.Int64
	StreamErrors   atomic.Int64
	StreamBytes    atomic.Int64
	StreamNanos    atomic.Int64
}

// RecordRecord implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecord(length int, zeroCopy bool) {
	b.Records.Add(1)
	b.RecordElements.Add(int64(length))
	if zeroCopy {
		b.ZeroCopy.Add(1)
	}
}

// RecordPartial implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartial(staged int) {
	b.Partials.Add(1)
	b.StagedElements.Add(int64(staged))
}

// RecordGrow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGrow(_, newCap int) {
	b.Grows.Add(1)
	for {
		cur := b.MaxCapacity.Load()
		if int64(newCap) <= cur || b.MaxCapacity.CompareAndSwap(cur, int64(newCap)) {
			return
		}
	}
}

// RecordAllocFailure implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAllocFailure(error) {
	b.AllocFailures.Add(1)
}

// RecordStream implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStream(_, bytes int64, duration time.Duration, err error) {
	b.Streams.Add(1)
	b.StreamBytes.Add(bytes)
	b.StreamNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.StreamErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		Records:        b.Records.Load(),
		ZeroCopy:       b.ZeroCopy.Load(),
		RecordElements: b.RecordElements.Load(),
		Partials:       b.Partials.Load(),
		StagedElements: b.StagedElements.Load(),
		Grows:          b.Grows.Load(),
		MaxCapacity:    b.MaxCapacity.Load(),
		AllocFailures:  b.AllocFailures.Load(),
		Streams:        b.Streams.Load(),
		StreamErrors:   b.StreamErrors.Load(),
		StreamBytes:    b.StreamBytes.Load(),
	}
	if s.Records > 0 {
		s.ZeroCopyRatio = float64(s.ZeroCopy) / float64(s.Records)
	}
	if nanos := b.StreamNanos.Load(); nanos > 0 {
		s.BytesPerSec = float64(s.StreamBytes) / (float64(nanos) / float64(time.Second))
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Records        int64
	ZeroCopy       int64
	ZeroCopyRatio  float64
	RecordElements int64
	Partials       int64
	StagedElements int64
	Grows          int64
	MaxCapacity    int64
	AllocFailures  int64
	Streams        int64
	StreamErrors   int64
	StreamBytes    int64
	BytesPerSec    float64
}
