// Package geometry decides whether module boxes are contained in a habitat
// shell and clamps them back inside when they are not.
package geometry

import (
	"math"

	"github.com/orbitforge/hablayout/internal/model"
)

// Tolerance is the slack applied to every containment comparison.
const Tolerance = 1e-6

// clampIterations bounds the directional binary search. The search
// converges well below Tolerance for habitat-scale dimensions.
const clampIterations = 40

// Vec3 is a point or extent in habitat coordinates: x/y horizontal
// (y along a cylinder's axis), z vertical.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Bounds is the canonical envelope derived from a habitat descriptor.
type Bounds struct {
	Shape      model.HabitatType
	Width      float64 // x extent
	Depth      float64 // y extent
	Height     float64 // z extent
	HalfW      float64
	HalfD      float64
	HalfH      float64
	Radius     float64 // curved shapes, 0 for cube
	Floor      float64 // lowest z
	Ceiling    float64 // highest z
	Degenerate bool    // any dimension <= 0; every module is infeasible
}

// ResolveBounds derives canonical bounds from a habitat. Degenerate
// habitats are flagged rather than rejected: feasibility reporting handles
// them downstream.
func ResolveBounds(h model.Habitat) Bounds {
	w, d, ht := h.CanonicalDims()
	b := Bounds{
		Shape:   h.Type,
		Width:   w,
		Depth:   d,
		Height:  ht,
		HalfW:   w / 2,
		HalfD:   d / 2,
		HalfH:   ht / 2,
		Floor:   -ht / 2,
		Ceiling: ht / 2,
	}
	switch h.Type {
	case model.HabitatSphere, model.HabitatCylinder:
		b.Radius = h.Radius
	}
	b.Degenerate = w <= 0 || d <= 0 || ht <= 0
	return b
}

// cornerRadius2D is the farthest corner distance of a box from the origin
// in the cylinder cross-section plane (x, z).
func cornerRadius2D(x, z, hx, hz float64) float64 {
	return math.Hypot(math.Abs(x)+hx, math.Abs(z)+hz)
}

// cornerRadius3D is the farthest corner distance of a box from the sphere
// center.
func cornerRadius3D(c, half Vec3) float64 {
	dx := math.Abs(c.X) + half.X
	dy := math.Abs(c.Y) + half.Y
	dz := math.Abs(c.Z) + half.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Contains reports whether a box (center c, half extents half) lies fully
// inside the bounds. Cube containment is per-axis; curved shapes use the
// conservative corner-radius test.
func Contains(b Bounds, c, half Vec3) bool {
	if b.Degenerate {
		return false
	}
	switch b.Shape {
	case model.HabitatCube:
		return math.Abs(c.X)+half.X <= b.HalfW+Tolerance &&
			math.Abs(c.Y)+half.Y <= b.HalfD+Tolerance &&
			math.Abs(c.Z)+half.Z <= b.HalfH+Tolerance
	case model.HabitatSphere:
		return cornerRadius3D(c, half) <= b.Radius+Tolerance
	default: // cylinder
		return cornerRadius2D(c.X, c.Z, half.X, half.Z) <= b.Radius+Tolerance &&
			math.Abs(c.Y)+half.Y <= b.HalfD+Tolerance
	}
}

// originFitScale returns the largest uniform scale s in [0, 1] such that
// the box with half extents half*s is contained when centered at the
// origin.
func originFitScale(b Bounds, half Vec3) float64 {
	s := 1.0
	switch b.Shape {
	case model.HabitatCube:
		s = minScale(s, b.HalfW, half.X)
		s = minScale(s, b.HalfD, half.Y)
		s = minScale(s, b.HalfH, half.Z)
	case model.HabitatSphere:
		n := math.Sqrt(half.X*half.X + half.Y*half.Y + half.Z*half.Z)
		s = minScale(s, b.Radius, n)
	default: // cylinder
		s = minScale(s, b.Radius, math.Hypot(half.X, half.Z))
		s = minScale(s, b.HalfD, half.Y)
	}
	if s < 0 {
		return 0
	}
	return s
}

func minScale(s, limit, extent float64) float64 {
	if extent <= 0 {
		return s
	}
	if r := limit / extent; r < s {
		return r
	}
	return s
}

// ClampToDirection returns a contained box derived from (c, half). A box
// that already satisfies the containment test is returned unchanged. When
// even the origin-centered box violates it, the half extents are shrunk
// uniformly until it fits at the origin. Otherwise the center is pulled
// along the segment origin->c by binary search for the largest t keeping
// the box inside. This preserves direction but is not the exact tangential
// contact point; the over-approximation is intentional and must not be
// tightened to analytic intersection math.
func ClampToDirection(b Bounds, c, half Vec3) (Vec3, Vec3) {
	if b.Degenerate {
		return Vec3{}, Vec3{}
	}
	if Contains(b, c, half) {
		return c, half
	}
	if !Contains(b, Vec3{}, half) {
		half = half.Scale(originFitScale(b, half))
		if Contains(b, c, half) {
			return c, half
		}
	}

	switch b.Shape {
	case model.HabitatCube:
		// Per-axis clamp is exact for boxes in a box.
		return Vec3{
			X: clampAxis(c.X, b.HalfW-half.X),
			Y: clampAxis(c.Y, b.HalfD-half.Y),
			Z: clampAxis(c.Z, b.HalfH-half.Z),
		}, half
	case model.HabitatCylinder:
		// The axial coordinate clamps independently of the circular
		// cross-section.
		c.Y = clampAxis(c.Y, b.HalfD-half.Y)
		if Contains(b, c, half) {
			return c, half
		}
		t := searchScale(func(t float64) bool {
			return cornerRadius2D(c.X*t, c.Z*t, half.X, half.Z) <= b.Radius+Tolerance
		})
		c.X *= t
		c.Z *= t
		return c, half
	default: // sphere
		t := searchScale(func(t float64) bool {
			return Contains(b, c.Scale(t), half)
		})
		return c.Scale(t), half
	}
}

// searchScale binary-searches the largest t in [0, 1] satisfying fits.
// fits(0) is guaranteed by the origin shrink performed beforehand.
func searchScale(fits func(t float64) bool) float64 {
	lo, hi := 0.0, 1.0
	for i := 0; i < clampIterations; i++ {
		mid := 0.5 * (lo + hi)
		if fits(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

func clampAxis(v, limit float64) float64 {
	if !(limit > 0) {
		return 0
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// EnforceBounds clamps every module of a layout in place so that size and
// position stay inside the habitat. Degenerate habitats zero the affected
// modules, matching soft-failure semantics elsewhere.
func EnforceBounds(h model.Habitat, modules []model.Module) {
	b := ResolveBounds(h)
	for i := range modules {
		m := &modules[i]
		m.W, m.D, m.H = math.Abs(m.W), math.Abs(m.D), math.Abs(m.H)
		if b.Degenerate {
			m.X, m.Y, m.Z = 0, 0, 0
			m.W, m.D, m.H = 0, 0, 0
			continue
		}
		c := Vec3{X: m.X, Y: m.Y, Z: m.Z}
		half := Vec3{X: m.W / 2, Y: m.D / 2, Z: m.H / 2}
		c, half = ClampToDirection(b, c, half)
		m.X, m.Y, m.Z = c.X, c.Y, c.Z
		m.W, m.D, m.H = half.X*2, half.Y*2, half.Z*2
	}
}

// PlanOverlap reports whether two placements overlap in plan view (x, y),
// using the axis-aligned half-extent comparison.
func PlanOverlap(a, b model.Placement) bool {
	return math.Abs(a.X-b.X) < (a.W+b.W)/2 && math.Abs(a.Y-b.Y) < (a.D+b.D)/2
}
