package proxigraph

import (
	"golang.org/x/time/rate"
)

const (
	// minimumM is the minimum valid value for M.
	minimumM = 2

	// DefaultM is the default maximum out-degree per point.
	DefaultM = 16

	// DefaultEF is the default search breadth during construction.
	DefaultEF = 128

	// DefaultLanes is the default lane-group size. One lane runs the whole
	// request inline; larger groups spread neighbor scoring across a
	// goroutine team.
	DefaultLanes = 1
)

// Options configures a Builder. All knobs are fixed at construction; nothing
// here is mutable once a Builder exists.
type Options struct {
	// M is the maximum out-degree permitted per point's link record.
	M int

	// EF is the capacity of the retained candidate set during a search.
	EF int

	// Lanes is the lane-group size: the number of cooperating execution
	// lanes working one request in lockstep.
	Lanes int

	// Workers is the number of concurrent requests processed per pass.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// RateLimit throttles request admission during a pass, in requests per
	// second. Zero disables throttling. Useful when builds share a host
	// with a serving path.
	RateLimit rate.Limit

	// Logger receives structured pass-level logs. Nil discards them.
	Logger *Logger

	// Metrics receives per-request and per-pass measurements. Nil disables
	// collection.
	Metrics MetricsCollector
}

// DefaultOptions are the options used by New before option functions run.
var DefaultOptions = Options{
	M:     DefaultM,
	EF:    DefaultEF,
	Lanes: DefaultLanes,
}
