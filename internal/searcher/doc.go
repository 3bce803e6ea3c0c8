// Package searcher provides the ephemeral per-request state used while
// traversing a proximity graph: a bounded candidate heap, an exploration heap
// and a visited set. None of it is safe for sharing across requests; a
// Scratch is owned by exactly one execution group at a time.
package searcher
