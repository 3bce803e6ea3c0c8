package proxigraph

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/proxigraph/codec"
	"github.com/hupe1980/proxigraph/internal/build"
	"github.com/hupe1980/proxigraph/internal/graph"
	"github.com/hupe1980/proxigraph/internal/lanes"
	"github.com/hupe1980/proxigraph/internal/searcher"
)

// Similarity scores any ordered pair of point ids. Higher is more similar.
// Implementations must be safe for concurrent use; every valid id pair must
// yield a total (non-NaN) score.
type Similarity interface {
	Score(a, b uint32) float32
}

// SimilarityFunc adapts a plain function to the Similarity interface.
type SimilarityFunc func(a, b uint32) float32

func (f SimilarityFunc) Score(a, b uint32) float32 { return f(a, b) }

// Request asks for one point to be inserted into the graph, starting the
// neighbor search at Entry. Each request is consumed exactly once per pass.
type Request struct {
	ID    uint32
	Entry uint32
}

// PassResult reports the outcome of one build pass.
type PassResult struct {
	// Entries holds one next entry point per request, in request order: the
	// best search result, or the request's own entry when the search found
	// nothing. Feed these to whatever layer orchestrates subsequent passes.
	Entries []uint32

	// Touched is the set of points whose link records were mutated during
	// the pass, for the storage engine to flush.
	Touched *roaring.Bitmap

	// SkippedEdges counts backward links dropped to lock contention.
	SkippedEdges int

	// Reprunes counts saturated backward targets that were re-selected.
	Reprunes int
}

// Builder owns the shared state of a proximity-graph build: the link table,
// the lock table and the wiring around them. A Builder is safe for one
// running pass at a time; reads between passes are safe concurrently.
type Builder struct {
	opts    Options
	links   *graph.Links
	locks   *graph.Locks
	oracle  Similarity
	logger  *Logger
	metrics MetricsCollector
	limiter *rate.Limiter

	scratchPool sync.Pool
}

// New creates a Builder over numPoints points scored by sim.
//
// All ids handed to BuildPass must be < numPoints with vectors preloaded in
// the oracle; violating that precondition is undefined behavior, deliberately
// not defended at runtime cost.
func New(numPoints int, sim Similarity, optFns ...func(o *Options)) (*Builder, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if numPoints <= 0 {
		return nil, &ErrInvalidNumPoints{NumPoints: numPoints}
	}
	if sim == nil {
		return nil, ErrNilSimilarity
	}
	if opts.M < minimumM {
		return nil, &ErrInvalidM{M: opts.M}
	}
	if opts.EF < 1 {
		return nil, &ErrInvalidEF{EF: opts.EF}
	}
	if opts.Lanes < 1 {
		return nil, &ErrInvalidLanes{Lanes: opts.Lanes}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = NopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}

	b := &Builder{
		opts:    opts,
		links:   graph.NewLinks(numPoints, opts.M),
		locks:   graph.NewLocks(numPoints),
		oracle:  sim,
		logger:  opts.Logger.WithComponent("builder"),
		metrics: opts.Metrics,
	}
	if opts.RateLimit > 0 {
		b.limiter = rate.NewLimiter(opts.RateLimit, 1)
	}
	b.scratchPool.New = func() any {
		return searcher.NewScratch(numPoints, opts.M, opts.EF)
	}
	return b, nil
}

// NumPoints returns the number of points the graph covers.
func (b *Builder) NumPoints() int { return b.links.Len() }

// M returns the maximum out-degree per point.
func (b *Builder) M() int { return b.opts.M }

// EF returns the construction search breadth.
func (b *Builder) EF() int { return b.opts.EF }

// Degree returns the live neighbor count of p.
func (b *Builder) Degree(p uint32) int { return b.links.Size(p) }

// Neighbors returns a copy of p's neighbor list.
func (b *Builder) Neighbors(p uint32) []uint32 {
	return b.links.Neighbors(p, nil)
}

// BuildPass runs one batch of insertion requests to completion and returns
// the per-request next entry points.
//
// Requests are processed concurrently by independent execution groups.
// Ordering between requests touching the same point is unspecified beyond
// mutual exclusion of the commit sections, so the final topology may differ
// across runs of the same batch.
//
// ctx is honored at request admission only: once a request has started it
// always runs to completion, which keeps every lock released and the graph
// valid even when the pass returns early with ctx's error.
func (b *Builder) BuildPass(ctx context.Context, reqs []Request) (*PassResult, error) {
	start := time.Now()

	// The lock table is shared, process-wide state with an explicit
	// once-per-pass reset.
	b.locks.Reset()

	workers := b.opts.Workers
	if workers > len(reqs) {
		workers = len(reqs)
	}
	if workers < 1 {
		workers = 1
	}

	entries := make([]uint32, len(reqs))
	touched := make([]*roaring.Bitmap, workers)
	var cursor atomic.Int64
	var skipped, reprunes atomic.Int64

	g := new(errgroup.Group)
	for w := 0; w < workers; w++ {
		w := w
		touched[w] = roaring.New()
		g.Go(func() error {
			team := lanes.NewTeam(b.opts.Lanes)
			defer team.Close()

			ins := build.NewInserter(b.links, b.locks, b.oracle, team, b.opts.EF)
			s := b.scratchPool.Get().(*searcher.Scratch)
			defer b.scratchPool.Put(s)

			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(reqs) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				if b.limiter != nil {
					if err := b.limiter.Wait(ctx); err != nil {
						return err
					}
				}

				reqStart := time.Now()
				next, st := ins.Insert(s, reqs[i].ID, reqs[i].Entry, touched[w])
				entries[i] = next

				skipped.Add(int64(st.SkippedEdges))
				reprunes.Add(int64(st.Reprunes))
				b.metrics.RecordRequest(time.Since(reqStart), st.Results, st.SkippedEdges)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &PassResult{
		Entries:      entries,
		Touched:      roaring.FastOr(touched...),
		SkippedEdges: int(skipped.Load()),
		Reprunes:     int(reprunes.Load()),
	}

	elapsed := time.Since(start)
	b.metrics.RecordPass(len(reqs), elapsed)
	b.logger.Info("build pass complete",
		"requests", len(reqs),
		"touched", res.Touched.GetCardinality(),
		"skipped_edges", res.SkippedEdges,
		"reprunes", res.Reprunes,
		"duration", elapsed,
	)
	return res, nil
}

// Validate checks the structural invariants of the graph: the degree cap,
// the no-self-link rule and link target range. Intended for tests and for
// callers auditing a completed pass; not safe during a running pass.
func (b *Builder) Validate() error {
	n := b.links.Len()
	for p := 0; p < n; p++ {
		size := b.links.Size(uint32(p))
		if size > b.opts.M {
			return fmt.Errorf("%w: point %d has degree %d > M=%d", ErrInvalidGraph, p, size, b.opts.M)
		}
		for i := 0; i < size; i++ {
			q := b.links.Get(uint32(p), i)
			if int(q) >= n {
				return fmt.Errorf("%w: point %d links to out-of-range id %d", ErrInvalidGraph, p, q)
			}
			if q == uint32(p) {
				return fmt.Errorf("%w: point %d links to itself", ErrInvalidGraph, p)
			}
		}
	}
	return nil
}

// ExportGraph writes the adjacency table as one codec frame for the external
// storage engine. Call it between passes, not during one.
func (b *Builder) ExportGraph(w io.Writer, c codec.Compression) error {
	n := b.links.Len()
	m := b.opts.M
	dump := &codec.Graph{
		M:     m,
		Sizes: make([]uint32, n),
		Links: make([]uint32, n*m),
	}
	for p := 0; p < n; p++ {
		size := b.links.Size(uint32(p))
		dump.Sizes[p] = uint32(size)
		for i := 0; i < size; i++ {
			dump.Links[p*m+i] = b.links.Get(uint32(p), i)
		}
	}
	return codec.Encode(w, dump, c)
}

// ImportGraph replaces the adjacency table with a previously exported frame,
// seeding the builder for an incremental pass. The frame must match the
// builder's point count and M.
func (b *Builder) ImportGraph(r io.Reader) error {
	dump, err := codec.Decode(r)
	if err != nil {
		return err
	}
	if dump.NumPoints() != b.links.Len() {
		return &ErrGraphMismatch{Field: "point count", Expected: b.links.Len(), Actual: dump.NumPoints()}
	}
	if dump.M != b.opts.M {
		return &ErrGraphMismatch{Field: "M", Expected: b.opts.M, Actual: dump.M}
	}

	m := b.opts.M
	row := make([]uint32, 0, m)
	for p := 0; p < dump.NumPoints(); p++ {
		size := int(dump.Sizes[p])
		if size > m {
			return fmt.Errorf("%w: point %d has degree %d > M=%d", ErrInvalidGraph, p, size, m)
		}
		row = append(row[:0], dump.Links[p*m:p*m+size]...)
		b.links.Commit(uint32(p), row)
	}
	return nil
}
