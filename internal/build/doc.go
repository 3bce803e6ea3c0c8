// Package build implements the concurrent graph-construction kernel: for each
// insertion request it searches the existing proximity graph for neighbor
// candidates, prunes them for diversity, commits the new point's forward
// links, and propagates backward links under per-point try-once locking.
//
// The kernel never blocks on contention. A backward edge whose target is
// locked by a sibling request is skipped for the pass; approximate search
// quality tolerates the small fraction of missed back-edges. As a direct
// consequence the final topology is a valid function of arrival order but is
// not deterministic across runs.
package build
