package searcher

// ScoredPoint is a point id paired with its similarity score to the current
// target. Higher scores are better. seq records encounter order and breaks
// score ties so that ordering stays stable regardless of heap shape.
type ScoredPoint struct {
	ID    uint32
	Score float32

	seq uint32
}

// Better reports whether a ranks strictly ahead of b: higher score first,
// earlier encounter first on equal scores.
func Better(a, b ScoredPoint) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.seq < b.seq
}

// CandidateHeap is a binary heap of ScoredPoint. With worstOnTop the top
// element is the eviction candidate, which is what a bounded result buffer
// needs; without it the top element is the best, which is what the
// exploration frontier needs.
type CandidateHeap struct {
	items      []ScoredPoint
	worstOnTop bool
	seq        uint32
}

// NewCandidateHeap creates a heap with the given initial capacity.
func NewCandidateHeap(capacity int, worstOnTop bool) *CandidateHeap {
	return &CandidateHeap{
		items:      make([]ScoredPoint, 0, capacity),
		worstOnTop: worstOnTop,
	}
}

// Reset clears the heap and restarts encounter numbering.
func (h *CandidateHeap) Reset() {
	h.items = h.items[:0]
	h.seq = 0
}

func (h *CandidateHeap) Len() int { return len(h.items) }

// Push inserts a new candidate, assigning it the next encounter sequence.
func (h *CandidateHeap) Push(id uint32, score float32) {
	h.PushItem(ScoredPoint{ID: id, Score: score, seq: h.nextSeq()})
}

// PushItem inserts an already-sequenced candidate. Used when moving items
// between heaps of the same Scratch without disturbing encounter order.
func (h *CandidateHeap) PushItem(p ScoredPoint) {
	h.items = append(h.items, p)
	h.up(len(h.items) - 1)
}

// PushBounded inserts a candidate into a heap capped at limit elements,
// evicting the current worst if the newcomer beats it. Only valid on a
// worstOnTop heap. Reports whether the candidate was retained.
func (h *CandidateHeap) PushBounded(id uint32, score float32, limit int) bool {
	p := ScoredPoint{ID: id, Score: score, seq: h.nextSeq()}
	if len(h.items) < limit {
		h.PushItem(p)
		return true
	}
	if !Better(p, h.items[0]) {
		return false
	}
	h.items[0] = p
	h.down(0)
	return true
}

// Pop removes and returns the top element.
func (h *CandidateHeap) Pop() (ScoredPoint, bool) {
	if len(h.items) == 0 {
		return ScoredPoint{}, false
	}
	top := h.items[0]
	n := len(h.items) - 1
	h.items[0] = h.items[n]
	h.items = h.items[:n]
	if n > 0 {
		h.down(0)
	}
	return top, true
}

// Peek returns the top element without removing it.
func (h *CandidateHeap) Peek() (ScoredPoint, bool) {
	if len(h.items) == 0 {
		return ScoredPoint{}, false
	}
	return h.items[0], true
}

// ExtractDesc drains the heap into buf, best first. Only valid on a
// worstOnTop heap: elements pop worst-to-best and are reversed in place.
func (h *CandidateHeap) ExtractDesc(buf []ScoredPoint) []ScoredPoint {
	start := len(buf)
	for {
		p, ok := h.Pop()
		if !ok {
			break
		}
		buf = append(buf, p)
	}
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

func (h *CandidateHeap) nextSeq() uint32 {
	s := h.seq
	h.seq++
	return s
}

// atTop reports whether a belongs above b in this heap's ordering.
func (h *CandidateHeap) atTop(a, b ScoredPoint) bool {
	if h.worstOnTop {
		return Better(b, a)
	}
	return Better(a, b)
}

func (h *CandidateHeap) up(j int) {
	item := h.items[j]
	for j > 0 {
		i := (j - 1) / 2
		if !h.atTop(item, h.items[i]) {
			break
		}
		h.items[j] = h.items[i]
		j = i
	}
	h.items[j] = item
}

func (h *CandidateHeap) down(i0 int) {
	n := len(h.items)
	i := i0
	item := h.items[i]
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		best := left
		if right := left + 1; right < n && h.atTop(h.items[right], h.items[left]) {
			best = right
		}
		if !h.atTop(h.items[best], item) {
			break
		}
		h.items[i] = h.items[best]
		i = best
	}
	h.items[i] = item
}
