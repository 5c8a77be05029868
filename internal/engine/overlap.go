package engine

import (
	"sort"

	"github.com/orbitforge/hablayout/internal/geometry"
	"github.com/orbitforge/hablayout/internal/model"
)

// FindOverlaps scans accepted placements pairwise in plan view and returns
// every overlapping pair. The report is advisory: the packer is a
// heuristic and manually positioned modules can overlap, so acceptance is
// never blocked on this. Pairs are ordered (low id, high id) and the list
// is sorted, so the output is deterministic regardless of map iteration.
func FindOverlaps(placements map[string]model.Placement) [][2]string {
	ids := make([]string, 0, len(placements))
	for id := range placements {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var pairs [][2]string
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if geometry.PlanOverlap(placements[ids[i]], placements[ids[j]]) {
				pairs = append(pairs, [2]string{ids[i], ids[j]})
			}
		}
	}
	return pairs
}
