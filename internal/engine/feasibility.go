package engine

import (
	"math"

	"github.com/orbitforge/hablayout/internal/geometry"
	"github.com/orbitforge/hablayout/internal/model"
)

// MinSize is a per-type/function minimum module size, in meters. Zero
// fields enforce nothing on that axis.
type MinSize struct {
	W float64
	D float64
	H float64
}

// SizeLookup resolves minimum module sizes by type and function. A miss
// means no minimum is enforced.
type SizeLookup interface {
	MinimumSize(moduleType, function string) (MinSize, bool)
}

// Feasibility classifies whether a module can ever be placed in a habitat,
// independent of position.
type Feasibility struct {
	OK     bool
	Reason model.Reason
}

func infeasible(reason model.Reason) Feasibility {
	return Feasibility{Reason: reason}
}

// EffectiveSize inflates a module's dimensions to its looked-up minimums.
// A nil lookup leaves the size untouched.
func EffectiveSize(m model.Module, lookup SizeLookup) (w, d, h float64) {
	w, d, h = m.W, m.D, m.H
	if lookup == nil {
		return w, d, h
	}
	ms, ok := lookup.MinimumSize(m.Type, m.Function)
	if !ok {
		return w, d, h
	}
	w = math.Max(w, ms.W)
	d = math.Max(d, ms.D)
	h = math.Max(h, ms.H)
	return w, d, h
}

// CheckFeasibility classifies an effective module size against habitat
// bounds. A failing module is excluded from placement entirely and never
// retried under another strategy.
//
// Spheres skip the plain height rule: the bounding-sphere test subsumes it
// and yields the more specific volume-exceeds code.
func CheckFeasibility(b geometry.Bounds, w, d, h float64) Feasibility {
	if w <= 0 || d <= 0 || h <= 0 {
		return infeasible(model.ReasonInvalidDimensions)
	}
	if b.Degenerate {
		return infeasible(model.ReasonInvalidHabitat)
	}

	switch b.Shape {
	case model.HabitatCube:
		if h > b.Height+geometry.Tolerance {
			return infeasible(model.ReasonHeightExceeds)
		}
		if w > b.Width+geometry.Tolerance || d > b.Depth+geometry.Tolerance {
			return infeasible(model.ReasonFootprintExceeds)
		}
	case model.HabitatSphere:
		hx, hy, hz := w/2, d/2, h/2
		if math.Sqrt(hx*hx+hy*hy+hz*hz) > b.Radius+geometry.Tolerance {
			return infeasible(model.ReasonVolumeExceeds)
		}
	default: // cylinder
		if h > b.Height+geometry.Tolerance {
			return infeasible(model.ReasonHeightExceeds)
		}
		if d > b.Depth+geometry.Tolerance {
			return infeasible(model.ReasonLengthExceeds)
		}
		if math.Hypot(w/2, h/2) > b.Radius+geometry.Tolerance {
			return infeasible(model.ReasonCrossSectionExceeds)
		}
	}
	return Feasibility{OK: true}
}

// CheckModuleFeasibility is the ad-hoc entry point for hosts validating a
// single module outside the full optimize path.
func CheckModuleFeasibility(habitat model.Habitat, m model.Module, lookup SizeLookup) Feasibility {
	b := geometry.ResolveBounds(habitat)
	w, d, h := EffectiveSize(m, lookup)
	return CheckFeasibility(b, w, d, h)
}
