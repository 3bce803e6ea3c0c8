package build

import (
	"github.com/hupe1980/proxigraph/internal/searcher"
)

// Prune greedily reduces cands — already sorted by descending score to target
// — to at most M diverse neighbors. A candidate is rejected when it is at
// least as similar to an already-accepted neighbor as to the target itself:
// such an edge is redundant for navigability. Accepted entries are compacted
// to the front of cands and their count returned.
//
// The redundancy check against the accepted set is an any-true reduction
// across the lane team.
func (in *Inserter) Prune(cands []searcher.ScoredPoint, target uint32) int {
	m := in.links.M()
	width := in.team.Lanes()

	accepted := 0
	for i := range cands {
		if accepted == m {
			break
		}
		c := cands[i]
		n := accepted
		redundant := n > 0 && in.team.Any(func(lane int) bool {
			for j := lane; j < n; j += width {
				if in.oracle.Score(c.ID, cands[j].ID) >= c.Score {
					return true
				}
			}
			return false
		})
		if redundant {
			continue
		}
		cands[accepted] = c
		accepted++
	}
	return accepted
}
