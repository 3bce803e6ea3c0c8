package proxigraph

import (
	"bytes"
	"context"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/proxigraph/codec"
	"github.com/hupe1980/proxigraph/similarity"
	"github.com/hupe1980/proxigraph/vectorstore"
)

func newRandomScorer(t testing.TB, n, dim int, seed int64) *vectorstore.Scorer {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	store, err := vectorstore.NewFlat(n, dim)
	require.NoError(t, err)

	v := make([]float32, dim)
	for id := 0; id < n; id++ {
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		require.NoError(t, store.SetVector(uint32(id), v))
	}
	return vectorstore.NewScorer(store, similarity.NegSquaredL2)
}

func TestNewValidation(t *testing.T) {
	sim := SimilarityFunc(func(a, b uint32) float32 { return 0 })

	testCases := []struct {
		name      string
		numPoints int
		sim       Similarity
		optFns    []func(o *Options)
		wantErr   string
	}{
		{
			name:      "zero points",
			numPoints: 0,
			sim:       sim,
			wantErr:   "invalid number of points",
		},
		{
			name:      "nil similarity",
			numPoints: 10,
			wantErr:   "similarity oracle is nil",
		},
		{
			name:      "m too small",
			numPoints: 10,
			sim:       sim,
			optFns:    []func(o *Options){func(o *Options) { o.M = 1 }},
			wantErr:   "invalid M",
		},
		{
			name:      "bad ef",
			numPoints: 10,
			sim:       sim,
			optFns:    []func(o *Options){func(o *Options) { o.EF = 0 }},
			wantErr:   "invalid ef",
		},
		{
			name:      "bad lanes",
			numPoints: 10,
			sim:       sim,
			optFns:    []func(o *Options){func(o *Options) { o.Lanes = -1 }},
			wantErr:   "invalid lane count",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.numPoints, tc.sim, tc.optFns...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestBuildPassSequential(t *testing.T) {
	store, err := vectorstore.NewFlat(3, 2)
	require.NoError(t, err)
	require.NoError(t, store.SetVector(0, []float32{0, 1}))
	require.NoError(t, store.SetVector(1, []float32{1, 0}))
	require.NoError(t, store.SetVector(2, []float32{1, 1}))

	b, err := New(3, vectorstore.NewScorer(store, similarity.NegSquaredL2), func(o *Options) {
		o.M = 2
		o.EF = 4
		o.Workers = 1
	})
	require.NoError(t, err)

	res, err := b.BuildPass(context.Background(), []Request{
		{ID: 0, Entry: 0},
		{ID: 1, Entry: 0},
		{ID: 2, Entry: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, []uint32{0, 0, 0}, res.Entries)
	assert.Equal(t, []uint32{1, 2}, b.Neighbors(0))
	assert.Equal(t, []uint32{0, 2}, b.Neighbors(1))

	got := b.Neighbors(2)
	slices.Sort(got)
	assert.Equal(t, []uint32{0, 1}, got)

	assert.EqualValues(t, 3, res.Touched.GetCardinality())
	require.NoError(t, b.Validate())
}

func TestBuildPassConcurrent(t *testing.T) {
	const n = 500

	b, err := New(n, newRandomScorer(t, n, 8, 1), func(o *Options) {
		o.M = 8
		o.EF = 32
		o.Workers = 8
		o.Lanes = 2
	})
	require.NoError(t, err)

	reqs := make([]Request, 0, n)
	for id := uint32(0); id < n; id++ {
		reqs = append(reqs, Request{ID: id, Entry: 0})
	}

	res, err := b.BuildPass(context.Background(), reqs)
	require.NoError(t, err)
	require.NoError(t, b.Validate())

	require.Len(t, res.Entries, n)
	for i, e := range res.Entries {
		assert.Less(t, int(e), n, "request %d produced out-of-range entry", i)
	}

	// Every point past the seed gains at least one forward neighbor, and its
	// mutated record shows up in the touched set.
	for id := uint32(1); id < n; id++ {
		assert.GreaterOrEqual(t, b.Degree(id), 1, "point %d is isolated", id)
		assert.True(t, res.Touched.Contains(id), "point %d missing from touched set", id)
	}
}

func TestBuildPassMetrics(t *testing.T) {
	const n = 64

	metrics := &BasicMetricsCollector{}
	b, err := New(n, newRandomScorer(t, n, 4, 2), func(o *Options) {
		o.M = 4
		o.EF = 16
		o.Workers = 4
		o.Metrics = metrics
	})
	require.NoError(t, err)

	reqs := make([]Request, 0, n)
	for id := uint32(0); id < n; id++ {
		reqs = append(reqs, Request{ID: id, Entry: 0})
	}

	_, err = b.BuildPass(context.Background(), reqs)
	require.NoError(t, err)

	assert.EqualValues(t, n, metrics.RequestCount.Load())
	assert.EqualValues(t, 1, metrics.PassCount.Load())
	assert.Positive(t, metrics.ResultsTotal.Load())
}

func TestBuildPassRateLimited(t *testing.T) {
	const n = 16

	b, err := New(n, newRandomScorer(t, n, 4, 3), func(o *Options) {
		o.M = 4
		o.EF = 8
		o.Workers = 2
		o.RateLimit = 100000
	})
	require.NoError(t, err)

	reqs := make([]Request, 0, n)
	for id := uint32(0); id < n; id++ {
		reqs = append(reqs, Request{ID: id, Entry: 0})
	}

	_, err = b.BuildPass(context.Background(), reqs)
	require.NoError(t, err)
	require.NoError(t, b.Validate())
}

func TestBuildPassCanceled(t *testing.T) {
	b, err := New(8, newRandomScorer(t, 8, 4, 4))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.BuildPass(ctx, []Request{{ID: 0, Entry: 0}, {ID: 1, Entry: 0}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExportImportRoundTrip(t *testing.T) {
	const n = 128

	scorer := newRandomScorer(t, n, 4, 5)
	b, err := New(n, scorer, func(o *Options) {
		o.M = 6
		o.EF = 24
		o.Workers = 4
	})
	require.NoError(t, err)

	reqs := make([]Request, 0, n)
	for id := uint32(0); id < n; id++ {
		reqs = append(reqs, Request{ID: id, Entry: 0})
	}
	_, err = b.BuildPass(context.Background(), reqs)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.ExportGraph(&buf, codec.CompressionZSTD))

	restored, err := New(n, scorer, func(o *Options) {
		o.M = 6
		o.EF = 24
	})
	require.NoError(t, err)
	require.NoError(t, restored.ImportGraph(&buf))
	require.NoError(t, restored.Validate())

	for p := uint32(0); p < n; p++ {
		assert.Equal(t, b.Neighbors(p), restored.Neighbors(p), "point %d", p)
	}
}

func TestImportGraphMismatch(t *testing.T) {
	scorer := newRandomScorer(t, 16, 4, 6)

	src, err := New(16, scorer, func(o *Options) { o.M = 4 })
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.ExportGraph(&buf, codec.CompressionNone))

	dst, err := New(8, newRandomScorer(t, 8, 4, 6), func(o *Options) { o.M = 4 })
	require.NoError(t, err)

	var mismatch *ErrGraphMismatch
	require.ErrorAs(t, dst.ImportGraph(&buf), &mismatch)
	assert.Equal(t, "point count", mismatch.Field)
}

func BenchmarkBuildPass(b *testing.B) {
	const n = 2000

	builder, err := New(n, newRandomScorer(b, n, 16, 7), func(o *Options) {
		o.M = 16
		o.EF = 64
	})
	require.NoError(b, err)

	reqs := make([]Request, 0, n)
	for id := uint32(0); id < n; id++ {
		reqs = append(reqs, Request{ID: id, Entry: 0})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := builder.BuildPass(context.Background(), reqs)
		if err != nil {
			b.Fatal(err)
		}
	}
}
