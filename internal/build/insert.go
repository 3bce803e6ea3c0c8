package build

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/proxigraph/internal/graph"
	"github.com/hupe1980/proxigraph/internal/lanes"
	"github.com/hupe1980/proxigraph/internal/searcher"
)

// Oracle scores any ordered pair of point ids. Higher is more similar.
//
// The diversity pruning rule assumes the metric is symmetric; under an
// asymmetric oracle the pruned sets are well-defined but unverified. Pairs
// are always scored candidate-first.
type Oracle interface {
	Score(a, b uint32) float32
}

// LockTable is the per-point mutual exclusion surface the backward pass runs
// against. Satisfied by graph.Locks; tests substitute instrumented
// implementations.
type LockTable interface {
	TryLock(p uint32) bool
	Unlock(p uint32)
}

// Stats describes what a single insertion did.
type Stats struct {
	// Results is the number of candidates the search retained.
	Results int

	// SkippedEdges counts backward links dropped because the target's lock
	// was held by a sibling request.
	SkippedEdges int

	// Reprunes counts saturated backward targets whose neighbor set was
	// re-selected.
	Reprunes int
}

// Inserter drives insertion requests against one shared link table. It is
// stateless apart from its wiring and may be shared, but each concurrent
// request needs its own Scratch and lane Team.
type Inserter struct {
	links  *graph.Links
	locks  LockTable
	oracle Oracle
	team   *lanes.Team
	ef     int
}

// NewInserter wires a kernel instance. ef bounds the search breadth.
func NewInserter(links *graph.Links, locks LockTable, oracle Oracle, team *lanes.Team, ef int) *Inserter {
	return &Inserter{
		links:  links,
		locks:  locks,
		oracle: oracle,
		team:   team,
		ef:     ef,
	}
}

// Insert runs one request end to end: search, forward commit, backward pass.
// It returns the next entry point for the request — the best search result,
// or entry itself when the search found nothing — so the graph stays
// navigable for later insertions.
//
// Every point whose link record was mutated — id itself plus each backward
// target that was locked successfully — is added to touched, which may be
// nil. The bitmap is owned by the calling worker and must not be shared with
// concurrent requests.
//
// id and entry must be valid point ids with vectors already loaded; that
// precondition is the caller's, not defended here.
func (in *Inserter) Insert(s *searcher.Scratch, id, entry uint32, touched *roaring.Bitmap) (uint32, Stats) {
	var st Stats

	s.Reset()
	k := in.Search(s, id, entry)
	st.Results = k

	next := entry
	s.Sorted = s.Results.ExtractDesc(s.Sorted[:0])
	if k > 0 {
		next = s.Sorted[0].ID
	}

	accepted := in.Prune(s.Sorted[:k], id)

	s.Forward = s.Forward[:0]
	for i := 0; i < accepted; i++ {
		s.Forward = append(s.Forward, s.Sorted[i].ID)
	}
	// The point is not yet reachable as a search target, so its own record
	// needs no lock. Commit stores the size last with release semantics,
	// publishing the record before any sibling can pick id as a backward
	// candidate below.
	in.links.Commit(id, s.Forward)
	if touched != nil {
		touched.Add(id)
	}

	for _, other := range s.Forward {
		if !in.locks.TryLock(other) {
			st.SkippedEdges++
			continue
		}
		if in.links.Size(other) < in.links.M() {
			in.links.Append(other, id)
		} else {
			st.Reprunes++
			in.repruneLocked(s, other, id)
		}
		in.locks.Unlock(other)
		if touched != nil {
			touched.Add(other)
		}
	}

	return next, st
}

// repruneLocked re-selects the neighbor set of a saturated point after adding
// id as a candidate. Caller holds other's lock.
func (in *Inserter) repruneLocked(s *searcher.Scratch, other, id uint32) {
	s.Neighbors = in.links.Neighbors(other, s.Neighbors[:0])

	cand := s.Sorted[:0]
	for _, nid := range s.Neighbors {
		cand = append(cand, searcher.ScoredPoint{ID: nid})
	}
	cand = append(cand, searcher.ScoredPoint{ID: id})

	width := in.team.Lanes()
	in.team.Do(func(lane int) {
		for i := lane; i < len(cand); i += width {
			cand[i].Score = in.oracle.Score(cand[i].ID, other)
		}
	})

	// Descending by score; stable keeps encounter order (stored order, new
	// candidate last) on ties.
	slices.SortStableFunc(cand, func(a, b searcher.ScoredPoint) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	accepted := in.Prune(cand, other)

	ids := s.Neighbors[:0]
	for i := 0; i < accepted; i++ {
		ids = append(ids, cand[i].ID)
	}
	in.links.Commit(other, ids)
}
