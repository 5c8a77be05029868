package engine

import (
	"math"
	"sort"

	"github.com/orbitforge/hablayout/internal/geometry"
	"github.com/orbitforge/hablayout/internal/model"
)

// verticalIterations bounds the curved-ceiling z search.
const verticalIterations = 24

// Candidate is a placeable module with its effective (minimum-inflated)
// dimensions.
type Candidate struct {
	Module model.Module
	W      float64
	D      float64
	H      float64
}

// NewCandidate builds a candidate from a module and an optional size
// lookup.
func NewCandidate(m model.Module, lookup SizeLookup) Candidate {
	w, d, h := EffectiveSize(m, lookup)
	return Candidate{Module: m, W: w, D: d, H: h}
}

func (c Candidate) volume() float64 {
	return c.W * c.D * c.H
}

func (c Candidate) footprintArea() float64 {
	return c.W * c.D
}

// typeGroup is one cluster of same-type candidates packed contiguously.
type typeGroup struct {
	key     string
	volume  float64
	members []Candidate
}

// Pack lays out candidates under a single strategy using type-clustered
// shelf packing. Candidates must already have passed feasibility; modules
// that still cannot be placed come back as overflow with reason
// space-exhausted.
func Pack(b geometry.Bounds, candidates []Candidate, strat model.Strategy) model.PackResult {
	res := model.PackResult{
		Strategy:   strat.Name,
		Placements: make(map[string]model.Placement, len(candidates)),
	}
	if len(candidates) == 0 {
		return res
	}
	if b.Degenerate {
		for _, c := range candidates {
			res.Overflow = append(res.Overflow, model.Overflow{Module: c.Module, Reason: model.ReasonInvalidHabitat})
			res.OverflowVolume += c.volume()
		}
		return res
	}

	span := math.Min(b.Width, b.Depth)
	margin := math.Max(strat.MarginFloor, span*strat.MarginFraction)
	gap := math.Max(strat.GapFloor, span*strat.GapFraction)

	usableW := b.Width - 2*margin
	usableD := b.Depth - 2*margin
	if usableW <= 0 || usableD <= 0 {
		for _, c := range candidates {
			res.Overflow = append(res.Overflow, model.Overflow{Module: c.Module, Reason: model.ReasonSpaceExhausted})
			res.OverflowVolume += c.volume()
		}
		return res
	}
	res.UsableArea = usableW * usableD

	sh := &shelf{
		bounds:  b,
		gap:     gap,
		halfW:   usableW / 2,
		halfD:   usableD / 2,
		cursorX: -usableW / 2,
		rowY:    -usableD / 2,
	}

	// Once any group runs out of plan-view room, everything after it is
	// overflow without further attempts, bounding runtime.
	exhausted := false
	for _, g := range orderGroups(candidates, strat) {
		for _, c := range g.members {
			if exhausted {
				res.Overflow = append(res.Overflow, model.Overflow{Module: c.Module, Reason: model.ReasonSpaceExhausted})
				res.OverflowVolume += c.volume()
				continue
			}
			p, ok, rowFull := sh.place(c, strat.AllowRotation)
			if !ok {
				res.Overflow = append(res.Overflow, model.Overflow{Module: c.Module, Reason: model.ReasonSpaceExhausted})
				res.OverflowVolume += c.volume()
				if rowFull {
					exhausted = true
				}
				continue
			}
			res.Placements[c.Module.ID] = p
			res.PlacedVolume += c.volume()
		}
	}
	return res
}

// orderGroups clusters candidates by normalized type key and applies the
// strategy's group and module orders. Ties break on key and module ID so
// packing is fully deterministic.
func orderGroups(candidates []Candidate, strat model.Strategy) []typeGroup {
	byKey := make(map[string]*typeGroup)
	var keys []string
	for _, c := range candidates {
		key := c.Module.TypeKey()
		g, ok := byKey[key]
		if !ok {
			g = &typeGroup{key: key}
			byKey[key] = g
			keys = append(keys, key)
		}
		g.members = append(g.members, c)
		g.volume += c.volume()
	}

	groups := make([]typeGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, *byKey[key])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].volume != groups[j].volume {
			if strat.GroupOrder == model.SmallestFirst {
				return groups[i].volume < groups[j].volume
			}
			return groups[i].volume > groups[j].volume
		}
		return groups[i].key < groups[j].key
	})

	for gi := range groups {
		members := groups[gi].members
		sort.SliceStable(members, func(i, j int) bool {
			ai, aj := members[i].footprintArea(), members[j].footprintArea()
			if ai != aj {
				if strat.ModuleOrder == model.SmallestFirst {
					return ai < aj
				}
				return ai > aj
			}
			return members[i].Module.ID < members[j].Module.ID
		})
	}
	return groups
}

// shelf tracks the row cursor inside the margin-inset usable rectangle.
// Coordinates are habitat-centered: rows advance from -halfD toward +halfD,
// modules from -halfW toward +halfW.
type shelf struct {
	bounds   geometry.Bounds
	gap      float64
	halfW    float64
	halfD    float64
	cursorX  float64
	rowY     float64
	rowDepth float64 // deepest module in the current row
}

// footprint is one rotation candidate for a module.
type footprint struct {
	w, d    float64
	rotated bool
	newRow  bool
	waste   float64
}

// place tries to put one candidate at the cursor, preferring the rotation
// that leaves the least unused row width. rowFull reports that the usable
// rectangle has no vertical room left, which cascades to every later
// module.
func (s *shelf) place(c Candidate, allowRotation bool) (model.Placement, bool, bool) {
	options := []footprint{{w: c.W, d: c.D}}
	if allowRotation && c.W != c.D {
		options = append(options, footprint{w: c.D, d: c.W, rotated: true})
	}

	nextRowY := s.rowY
	if s.rowDepth > 0 {
		nextRowY = s.rowY + s.rowDepth + s.gap
	}

	var fits []footprint
	for _, f := range options {
		if s.cursorX+f.w <= s.halfW+geometry.Tolerance && s.rowY+f.d <= s.halfD+geometry.Tolerance {
			f.waste = s.halfW - (s.cursorX + f.w)
			fits = append(fits, f)
			continue
		}
		if -s.halfW+f.w <= s.halfW+geometry.Tolerance && nextRowY+f.d <= s.halfD+geometry.Tolerance {
			f.newRow = true
			f.waste = 2*s.halfW - f.w
			fits = append(fits, f)
		}
	}
	if len(fits) == 0 {
		// Nothing fits this row or a fresh one: the rectangle is out of
		// room for this group.
		return model.Placement{}, false, true
	}
	// Prefer staying in the current row, then least unused row width.
	sort.SliceStable(fits, func(i, j int) bool {
		if fits[i].newRow != fits[j].newRow {
			return !fits[i].newRow
		}
		return fits[i].waste < fits[j].waste
	})

	for _, f := range fits {
		x := s.cursorX + f.w/2
		y := s.rowY + f.d/2
		if f.newRow {
			x = -s.halfW + f.w/2
			y = nextRowY + f.d/2
		}
		z, ok := verticalZ(s.bounds, x, y, f.w, f.d, c.H)
		if !ok {
			continue
		}
		if f.newRow {
			s.rowY = nextRowY
			s.cursorX = -s.halfW
			s.rowDepth = 0
		}
		s.cursorX += f.w + s.gap
		if f.d > s.rowDepth {
			s.rowDepth = f.d
		}
		return model.Placement{
			ModuleID: c.Module.ID,
			X:        x,
			Y:        y,
			Z:        z,
			W:        f.w,
			D:        f.d,
			H:        c.H,
			Rotated:  f.rotated,
		}, true, false
	}
	// Plan-view room existed but no elevation satisfies the curved
	// boundary at this spot; only this module overflows.
	return model.Placement{}, false, false
}

// verticalZ finds the lowest elevation for a module footprint: floor
// height when the shell allows it, otherwise a binary search upward along
// [floor, center] for the lowest contained z.
func verticalZ(b geometry.Bounds, x, y, w, d, h float64) (float64, bool) {
	half := geometry.Vec3{X: w / 2, Y: d / 2, Z: h / 2}
	base := b.Floor + h/2
	if geometry.Contains(b, geometry.Vec3{X: x, Y: y, Z: base}, half) {
		return base, true
	}
	// Curved shells are widest at the mid elevation; if the box does not
	// fit there it fits nowhere.
	if !geometry.Contains(b, geometry.Vec3{X: x, Y: y, Z: 0}, half) {
		return 0, false
	}
	lo, hi := base, 0.0
	for i := 0; i < verticalIterations; i++ {
		mid := 0.5 * (lo + hi)
		if geometry.Contains(b, geometry.Vec3{X: x, Y: y, Z: mid}, half) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, true
}
