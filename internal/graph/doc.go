// Package graph holds the shared adjacency state of a proximity graph build:
// a fixed-capacity link table and the per-point lock table that gates its
// mutation.
//
// Link slots and sizes are read with atomic loads so that concurrent searchers
// can traverse the graph while writers commit new records under a held lock.
package graph
