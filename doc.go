// Package proxigraph builds approximate-nearest-neighbor proximity graphs
// over high-dimensional vectors. Its core is a concurrent graph-construction
// kernel: batches of independent insertion requests search the existing graph
// for neighbor candidates and mutate one shared, degree-bounded adjacency
// table in parallel, guarded by per-point try-once locks.
//
// The package deliberately owns only the construction kernel. Vector storage,
// persistence of the produced adjacency lists, and query serving are external
// collaborators: the vectorstore package supplies a default in-process
// similarity oracle, and the codec package frames the adjacency for whatever
// storage engine sits behind it.
//
// Final graph topology under concurrent execution is a valid function of
// request arrival order but is not deterministic across runs; that is an
// accepted property of the try-once locking policy, not a defect.
package proxigraph
