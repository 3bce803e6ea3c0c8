package build

import (
	"github.com/hupe1980/proxigraph/internal/searcher"
)

// Search runs a bounded best-first traversal from entry toward target and
// returns the number of results retained (<= ef) in s.Results.
//
// Expansion of a single candidate is data-parallel: the neighbor list is read
// in a leader-only phase, then scored across the lanes of the team, each lane
// covering a disjoint stride. The phase barriers in Team.Do keep the two
// steps from tearing shared scratch.
func (in *Inserter) Search(s *searcher.Scratch, target, entry uint32) int {
	s.Visited.Set(uint(entry))
	if entry != target {
		score := in.oracle.Score(entry, target)
		s.Explore.Push(entry, score)
		s.Results.PushBounded(entry, score, in.ef)
	}

	for {
		cur, ok := s.Explore.Pop()
		if !ok {
			break
		}
		if s.Results.Len() >= in.ef {
			worst, _ := s.Results.Peek()
			if cur.Score <= worst.Score {
				// Nothing left on the frontier can beat the retained set.
				break
			}
		}

		s.Neighbors = in.links.Neighbors(cur.ID, s.Neighbors[:0])
		if len(s.Neighbors) == 0 {
			continue
		}
		scores := s.Scores[:len(s.Neighbors)]
		in.scoreUnvisited(s, target, s.Neighbors, scores)

		for i, nid := range s.Neighbors {
			if nid == target || s.Visited.Test(uint(nid)) {
				continue
			}
			s.Visited.Set(uint(nid))
			score := scores[i]
			if s.Results.Len() >= in.ef {
				worst, _ := s.Results.Peek()
				if score <= worst.Score {
					continue
				}
			}
			s.Results.PushBounded(nid, score, in.ef)
			s.Explore.Push(nid, score)
		}
	}

	return s.Results.Len()
}

// scoreUnvisited fills out[i] with the similarity of ids[i] to target for
// every unvisited, non-target neighbor. Lanes read the visited set and write
// disjoint slots only; no lane mutates shared state during the phase.
func (in *Inserter) scoreUnvisited(s *searcher.Scratch, target uint32, ids []uint32, out []float32) {
	width := in.team.Lanes()
	in.team.Do(func(lane int) {
		for i := lane; i < len(ids); i += width {
			nid := ids[i]
			if nid == target || s.Visited.Test(uint(nid)) {
				continue
			}
			out[i] = in.oracle.Score(nid, target)
		}
	})
}
