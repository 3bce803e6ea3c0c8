package searcher

import (
	"github.com/bits-and-blooms/bitset"
)

// Scratch owns all per-request scratch memory: the visited set, the two
// traversal heaps, the sort workspace used by pruning, and small reusable
// buffers for neighbor ids and lane scores.
//
// A Scratch is not safe for concurrent use. Pool it and hand it to one
// execution group at a time.
type Scratch struct {
	// Visited tracks expanded points, mark-once per request.
	Visited *bitset.BitSet

	// Explore is the frontier: best candidate on top.
	Explore *CandidateHeap

	// Results is the bounded retained set: worst candidate on top so it can
	// be evicted on overflow.
	Results *CandidateHeap

	// Sorted is the descending-order workspace shared by forward pruning and
	// backward re-pruning. Capacity ef+M+1 covers both uses.
	Sorted []ScoredPoint

	// Neighbors is a snapshot buffer for one link record.
	Neighbors []uint32

	// Forward holds the accepted forward links of the request across the
	// backward pass, which reuses the other buffers.
	Forward []uint32

	// Scores receives per-lane similarity results, one slot per neighbor.
	Scores []float32
}

// NewScratch sizes scratch state for searches of breadth ef over a graph of
// numPoints points with maximum out-degree m.
func NewScratch(numPoints, m, ef int) *Scratch {
	return &Scratch{
		Visited:   bitset.New(uint(numPoints)),
		Explore:   NewCandidateHeap(ef+m, false),
		Results:   NewCandidateHeap(ef, true),
		Sorted:    make([]ScoredPoint, 0, ef+m+1),
		Neighbors: make([]uint32, 0, m),
		Forward:   make([]uint32, 0, m),
		Scores:    make([]float32, m+1),
	}
}

// Reset prepares the scratch for a new request.
func (s *Scratch) Reset() {
	s.Visited.ClearAll()
	s.Explore.Reset()
	s.Results.Reset()
	s.Sorted = s.Sorted[:0]
	s.Neighbors = s.Neighbors[:0]
	s.Forward = s.Forward[:0]
}
