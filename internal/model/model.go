package model

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// HabitatType identifies the pressure shell geometry.
type HabitatType string

const (
	HabitatCylinder HabitatType = "cylinder" // axis along y, cross-section in (x, z)
	HabitatSphere   HabitatType = "sphere"
	HabitatCube     HabitatType = "cube"
)

// Habitat describes the pressurized shell that modules are placed into.
// Cylinder uses Radius and Length, Sphere uses Radius, Cube uses
// Width/Depth/Height. All dimensions are meters.
type Habitat struct {
	Type   HabitatType `json:"type"`
	Radius float64     `json:"radius,omitempty"`
	Length float64     `json:"length,omitempty"`
	Width  float64     `json:"width,omitempty"`
	Depth  float64     `json:"depth,omitempty"`
	Height float64     `json:"height,omitempty"`
}

func NewCylinderHabitat(radius, length float64) Habitat {
	return Habitat{Type: HabitatCylinder, Radius: radius, Length: length}
}

func NewSphereHabitat(radius float64) Habitat {
	return Habitat{Type: HabitatSphere, Radius: radius}
}

func NewCubeHabitat(width, depth, height float64) Habitat {
	return Habitat{Type: HabitatCube, Width: width, Depth: depth, Height: height}
}

// CanonicalDims returns the habitat envelope as width x depth x height:
// cylinder is diameter x length x diameter, sphere is diameter on every
// axis, cube is as given.
func (h Habitat) CanonicalDims() (width, depth, height float64) {
	switch h.Type {
	case HabitatSphere:
		d := 2 * h.Radius
		return d, d, d
	case HabitatCube:
		return h.Width, h.Depth, h.Height
	default: // cylinder
		d := 2 * h.Radius
		return d, h.Length, d
	}
}

// Volume returns the enclosed shell volume in cubic meters.
func (h Habitat) Volume() float64 {
	switch h.Type {
	case HabitatSphere:
		return (4.0 / 3.0) * math.Pi * h.Radius * h.Radius * h.Radius
	case HabitatCube:
		return h.Width * h.Depth * h.Height
	default:
		return math.Pi * h.Radius * h.Radius * h.Length
	}
}

// Module is a single piece of equipment to place. Position is the box
// center; W/D/H are the full extents along x/y/z.
type Module struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Function string  `json:"function,omitempty"` // semantic role for requirement lookup
	Shape    string  `json:"shape,omitempty"`    // render hint: box, capsule, cylinder, sphere
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	W        float64 `json:"w"`
	D        float64 `json:"d"`
	H        float64 `json:"h"`
	Color    string  `json:"color,omitempty"`
	Asset    string  `json:"asset,omitempty"`
}

// NewModule creates a module of the given type and size with a fresh ID.
func NewModule(typeName string, w, d, h float64) Module {
	return Module{
		ID:    uuid.New().String()[:8],
		Type:  typeName,
		Shape: "box",
		W:     w,
		D:     d,
		H:     h,
		Color: ColorForType(typeName),
	}
}

// Volume returns the module's bounding-box volume.
func (m Module) Volume() float64 {
	return m.W * m.D * m.H
}

// FootprintArea returns the plan-view area (w x d).
func (m Module) FootprintArea() float64 {
	return m.W * m.D
}

// TypeKey returns the normalized type key used for grouping and lookups.
func (m Module) TypeKey() string {
	return NormalizeKey(m.Type)
}

// NormalizeKey lowercases and collapses non-alphanumeric runs to single
// spaces, so "Life Support", "life_support" and "LIFE-SUPPORT" all share a
// key.
func NormalizeKey(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// CloneModules returns a deep copy of a module slice. Modules are plain
// value types, so an element-wise copy is a full snapshot.
func CloneModules(modules []Module) []Module {
	if modules == nil {
		return nil
	}
	cp := make([]Module, len(modules))
	copy(cp, modules)
	return cp
}

// Reason is a stable, enumerable explanation for why a module could not be
// placed. The set of values is part of the public contract.
type Reason string

const (
	ReasonInvalidDimensions   Reason = "invalid-dimensions"
	ReasonInvalidHabitat      Reason = "invalid-habitat"
	ReasonHeightExceeds       Reason = "height-exceeds"
	ReasonFootprintExceeds    Reason = "footprint-exceeds"
	ReasonLengthExceeds       Reason = "length-exceeds"
	ReasonCrossSectionExceeds Reason = "cross-section-exceeds"
	ReasonVolumeExceeds       Reason = "volume-exceeds"
	ReasonSpaceExhausted      Reason = "space-exhausted"
)

// SortOrder controls visitation order inside the packer.
type SortOrder string

const (
	LargestFirst  SortOrder = "largest-first"
	SmallestFirst SortOrder = "smallest-first"
)

// Strategy is a pure packing parameterization; it is never persisted.
type Strategy struct {
	Name           string    `json:"name"`
	MarginFraction float64   `json:"margin_fraction"` // of min(width, depth)
	MarginFloor    float64   `json:"margin_floor"`    // meters
	GapFraction    float64   `json:"gap_fraction"`
	GapFloor       float64   `json:"gap_floor"`
	AllowRotation  bool      `json:"allow_rotation"`
	ModuleOrder    SortOrder `json:"module_order"` // within a type group, by footprint area
	GroupOrder     SortOrder `json:"group_order"`  // across groups, by total volume
}

// DefaultStrategies returns the built-in ladder, ordered loosest to
// tightest. The selector walks it in order and stops at the first strategy
// with zero overflow.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name:           "roomy",
			MarginFraction: 0.08,
			MarginFloor:    0.5,
			GapFraction:    0.05,
			GapFloor:       0.3,
			AllowRotation:  false,
			ModuleOrder:    LargestFirst,
			GroupOrder:     LargestFirst,
		},
		{
			Name:           "standard",
			MarginFraction: 0.06,
			MarginFloor:    0.4,
			GapFraction:    0.04,
			GapFloor:       0.25,
			AllowRotation:  true,
			ModuleOrder:    LargestFirst,
			GroupOrder:     LargestFirst,
		},
		{
			Name:           "compact",
			MarginFraction: 0.04,
			MarginFloor:    0.25,
			GapFraction:    0.03,
			GapFloor:       0.15,
			AllowRotation:  true,
			ModuleOrder:    LargestFirst,
			GroupOrder:     SmallestFirst,
		},
		{
			Name:           "dense",
			MarginFraction: 0.02,
			MarginFloor:    0.12,
			GapFraction:    0.02,
			GapFloor:       0.08,
			AllowRotation:  true,
			ModuleOrder:    SmallestFirst,
			GroupOrder:     SmallestFirst,
		},
	}
}

// Placement is an accepted position for one module.
type Placement struct {
	ModuleID string  `json:"module_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	W        float64 `json:"w"`
	D        float64 `json:"d"`
	H        float64 `json:"h"`
	Rotated  bool    `json:"rotated"` // w/d swapped relative to the module
}

// Overflow describes a module that could not be placed plus the reason.
type Overflow struct {
	Module Module `json:"module"`
	Reason Reason `json:"reason"`
}

// PackResult is the outcome of a single-strategy packing attempt.
type PackResult struct {
	Strategy       string               `json:"strategy"`
	Placements     map[string]Placement `json:"placements"`
	Overflow       []Overflow           `json:"overflow"`
	UsableArea     float64              `json:"usable_area"`
	PlacedVolume   float64              `json:"placed_volume"`
	OverflowVolume float64              `json:"overflow_volume"`
}

// SessionState is the terminal state of an optimize session.
type SessionState string

const (
	StateAccepted SessionState = "accepted"
	StateCanceled SessionState = "canceled"
)

// OptimizeResult is the finalized outcome of an optimize session.
type OptimizeResult struct {
	Accepted      bool                 `json:"accepted"`
	State         SessionState         `json:"state"`
	Strategy      string               `json:"strategy,omitempty"`
	Placements    map[string]Placement `json:"placements"`
	Removed       []Module             `json:"removed"`
	Infeasible    []Overflow           `json:"infeasible"`
	Overlaps      [][2]string          `json:"overlaps"`
	ReasonSummary map[Reason]int       `json:"reason_summary"`
	Modules       []Module             `json:"modules"` // caller-visible module list after the session
	Attempts      int                  `json:"attempts"`
}

// Layout ties a habitat and its modules together for save/load.
type Layout struct {
	Name    string          `json:"name"`
	Habitat Habitat         `json:"habitat"`
	Modules []Module        `json:"modules"`
	Crew    int             `json:"crew,omitempty"`
	Result  *OptimizeResult `json:"result,omitempty"`
}

// NewLayout returns an empty layout with the default habitat from the
// reference mission profile.
func NewLayout() Layout {
	return Layout{
		Name:    "Untitled",
		Habitat: NewCylinderHabitat(4.0, 14.0),
		Modules: []Module{},
		Crew:    4,
	}
}
