package proxigraph

import (
	"errors"
	"fmt"
)

var (
	// ErrNilSimilarity is returned when no similarity oracle is supplied.
	ErrNilSimilarity = errors.New("proxigraph: similarity oracle is nil")

	// ErrInvalidGraph is wrapped by Validate failures.
	ErrInvalidGraph = errors.New("proxigraph: invalid graph")
)

// ErrInvalidNumPoints indicates a non-positive point count.
type ErrInvalidNumPoints struct {
	NumPoints int
}

func (e *ErrInvalidNumPoints) Error() string {
	return fmt.Sprintf("proxigraph: invalid number of points: %d", e.NumPoints)
}

// ErrInvalidM indicates an out-of-range maximum degree.
type ErrInvalidM struct {
	M int
}

func (e *ErrInvalidM) Error() string {
	return fmt.Sprintf("proxigraph: invalid M: %d (minimum %d)", e.M, minimumM)
}

// ErrInvalidEF indicates a non-positive search breadth.
type ErrInvalidEF struct {
	EF int
}

func (e *ErrInvalidEF) Error() string {
	return fmt.Sprintf("proxigraph: invalid ef: %d", e.EF)
}

// ErrInvalidLanes indicates a non-positive lane-group size.
type ErrInvalidLanes struct {
	Lanes int
}

func (e *ErrInvalidLanes) Error() string {
	return fmt.Sprintf("proxigraph: invalid lane count: %d", e.Lanes)
}

// ErrGraphMismatch indicates that an imported adjacency dump was produced
// for a differently shaped graph.
type ErrGraphMismatch struct {
	Field            string
	Expected, Actual int
}

func (e *ErrGraphMismatch) Error() string {
	return fmt.Sprintf("proxigraph: graph %s mismatch: expected %d, got %d", e.Field, e.Expected, e.Actual)
}
