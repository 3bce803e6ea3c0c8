package graph

import (
	"fmt"
	"sync/atomic"
)

// Links is a fixed-capacity adjacency table: every point owns up to M neighbor
// slots plus a live size counter.
//
// Writers must hold the point's lock (see Locks), with one exception: the
// initial forward-link commit of a freshly inserted point, which happens
// before the point is reachable as a search target.
//
// Readers never lock. They load the size first and then the slots, both with
// atomic loads. A reader racing a commit may observe a mix of old and new
// neighbor ids; every observed id is still a valid, fully written point id,
// which is all approximate search needs.
type Links struct {
	m     int
	slots []atomic.Uint32 // numPoints * m, row-major
	sizes []atomic.Uint32
}

// NewLinks allocates an empty link table for numPoints points with a maximum
// out-degree of m.
func NewLinks(numPoints, m int) *Links {
	return &Links{
		m:     m,
		slots: make([]atomic.Uint32, numPoints*m),
		sizes: make([]atomic.Uint32, numPoints),
	}
}

// M returns the maximum out-degree per point.
func (l *Links) M() int { return l.m }

// Len returns the number of points the table covers.
func (l *Links) Len() int { return len(l.sizes) }

// Size returns the live neighbor count of p.
func (l *Links) Size(p uint32) int {
	return int(l.sizes[p].Load())
}

// Get returns the i-th neighbor of p. The caller is responsible for i < Size(p).
func (l *Links) Get(p uint32, i int) uint32 {
	return l.slots[int(p)*l.m+i].Load()
}

// Neighbors appends a snapshot of p's neighbor list to buf and returns it.
func (l *Links) Neighbors(p uint32, buf []uint32) []uint32 {
	n := int(l.sizes[p].Load())
	base := int(p) * l.m
	for i := 0; i < n; i++ {
		buf = append(buf, l.slots[base+i].Load())
	}
	return buf
}

// Append adds id as a new neighbor of p and increments the size.
// The caller must hold p's lock and must have checked Size(p) < M; a full
// record is a broken invariant and panics rather than truncating.
func (l *Links) Append(p, id uint32) {
	n := int(l.sizes[p].Load())
	if n >= l.m {
		panic(fmt.Sprintf("graph: link record overflow for point %d (cap %d)", p, l.m))
	}
	l.slots[int(p)*l.m+n].Store(id)
	l.sizes[p].Store(uint32(n + 1))
}

// Commit replaces p's link record with ids. Slots are written before the size
// so a concurrent reader never sees a size covering unwritten slots. The
// caller must hold p's lock unless p is a freshly inserted point committing
// its own forward links. Panics if len(ids) exceeds M.
func (l *Links) Commit(p uint32, ids []uint32) {
	if len(ids) > l.m {
		panic(fmt.Sprintf("graph: link record overflow for point %d (%d > cap %d)", p, len(ids), l.m))
	}
	base := int(p) * l.m
	for i, id := range ids {
		l.slots[base+i].Store(id)
	}
	l.sizes[p].Store(uint32(len(ids)))
}

// Reset clears every link record. Not safe to call during a running pass.
func (l *Links) Reset() {
	for i := range l.sizes {
		l.sizes[i].Store(0)
	}
}
