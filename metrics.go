package proxigraph

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement it to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordRequest is called after each insertion request. results is the
	// number of search candidates retained, skippedEdges the number of
	// backward links dropped to lock contention.
	RecordRequest(duration time.Duration, results, skippedEdges int)

	// RecordPass is called after each completed build pass.
	RecordPass(requests int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRequest(time.Duration, int, int) {}
func (NoopMetricsCollector) RecordPass(int, time.Duration)         {}

// BasicMetricsCollector provides simple in-memory metrics collection, useful
// for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	RequestCount      atomic.Int64
	RequestTotalNanos atomic.Int64
	ResultsTotal      atomic.Int64
	SkippedEdges      atomic.Int64
	PassCount         atomic.Int64
	PassTotalNanos    atomic.Int64
}

func (c *BasicMetricsCollector) RecordRequest(d time.Duration, results, skippedEdges int) {
	c.RequestCount.Add(1)
	c.RequestTotalNanos.Add(int64(d))
	c.ResultsTotal.Add(int64(results))
	c.SkippedEdges.Add(int64(skippedEdges))
}

func (c *BasicMetricsCollector) RecordPass(requests int, d time.Duration) {
	c.PassCount.Add(1)
	c.PassTotalNanos.Add(int64(d))
}
