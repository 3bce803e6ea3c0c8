// Package lanes emulates lockstep lane-group cooperation on general-purpose
// hardware: a fixed-size team of goroutines executes phases in lockstep behind
// a reusable barrier, with the calling goroutine acting as lane 0, the elected
// leader. Group-wide any-true reduction is a logical OR across the team.
package lanes

import "sync"

// Barrier is a reusable cyclic barrier for a fixed number of parties.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	waiting int
	gen     uint64
}

// NewBarrier creates a barrier that releases once parties goroutines wait.
func NewBarrier(parties int) *Barrier {
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until all parties have arrived, then releases the generation.
func (b *Barrier) Wait() {
	b.mu.Lock()
	gen := b.gen
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.gen++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	for gen == b.gen {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// Team is a group of n lanes working one request in lockstep. The goroutine
// that owns the Team is lane 0 and runs every scalar (leader-only) section;
// lanes 1..n-1 are background workers that exist only between phases.
//
// A Team of one lane runs phases inline with no goroutines or barriers.
type Team struct {
	n     int
	fn    func(lane int)
	start *Barrier
	done  *Barrier
	votes []bool
	stop  bool
}

// NewTeam starts a team of n lanes. n must be >= 1.
func NewTeam(n int) *Team {
	if n < 1 {
		n = 1
	}
	t := &Team{n: n}
	if n == 1 {
		return t
	}
	t.start = NewBarrier(n)
	t.done = NewBarrier(n)
	t.votes = make([]bool, n)
	for lane := 1; lane < n; lane++ {
		go t.run(lane)
	}
	return t
}

func (t *Team) run(lane int) {
	for {
		t.start.Wait()
		if t.stop {
			return
		}
		t.fn(lane)
		t.done.Wait()
	}
}

// Lanes returns the team size.
func (t *Team) Lanes() int { return t.n }

// Do executes one data-parallel phase: fn runs once per lane, concurrently,
// and Do returns only after every lane has finished. The barrier on entry and
// exit separates the phase from surrounding leader-only code, so fn may write
// lane-disjoint slots of shared scratch without further synchronization.
func (t *Team) Do(fn func(lane int)) {
	if t.n == 1 {
		fn(0)
		return
	}
	t.fn = fn
	t.start.Wait()
	fn(0)
	t.done.Wait()
}

// Any runs pred on every lane and ORs the results.
func (t *Team) Any(pred func(lane int) bool) bool {
	if t.n == 1 {
		return pred(0)
	}
	votes := t.votes
	t.Do(func(lane int) {
		votes[lane] = pred(lane)
	})
	for _, v := range votes {
		if v {
			return true
		}
	}
	return false
}

// Close releases the worker lanes. The Team must not be used afterwards.
func (t *Team) Close() {
	if t.n == 1 {
		return
	}
	t.stop = true
	t.start.Wait()
}
