// Package requirements holds the habitability requirements dataset: per
// module type and function, the pressurized volume a crew needs and the
// minimum workable dimensions. The catalog backs feasibility inflation,
// coverage scoring, and auto-provisioning of critical functions.
package requirements

import (
	"math"
	"sort"

	"github.com/orbitforge/hablayout/internal/engine"
	"github.com/orbitforge/hablayout/internal/model"
)

// Entry is one requirement row: a (type, function) pair with its volume
// demands and minimum dimensions. Zero means the dataset left the value
// unset.
type Entry struct {
	Type     string `json:"type"`
	Function string `json:"function"`

	Volume4     float64 `json:"volume_4"`     // m3 for a 4-person crew
	Volume6     float64 `json:"volume_6"`     // m3 for a 6-person crew
	VolumeDelta float64 `json:"volume_delta"` // m3 per additional 2 crew beyond 6

	MinWidth  float64 `json:"min_width,omitempty"`
	MinDepth  float64 `json:"min_depth,omitempty"`
	MinHeight float64 `json:"min_height,omitempty"`

	TypeCriticality     int `json:"type_criticality,omitempty"`
	FunctionCriticality int `json:"function_criticality,omitempty"`
}

func (e Entry) TypeKey() string     { return model.NormalizeKey(e.Type) }
func (e Entry) FunctionKey() string { return model.NormalizeKey(e.Function) }

// Critical reports whether the function must be present in every layout.
func (e Entry) Critical() bool { return e.FunctionCriticality == 1 }

// RequiredVolume returns the pressurized volume for the crew size. Crews
// below four are charged the four-person volume; beyond six the per-pair
// delta extrapolates.
func (e Entry) RequiredVolume(crew int) float64 {
	if crew < 4 {
		crew = 4
	}
	if crew <= 4 {
		return e.Volume4
	}
	if crew <= 6 {
		return e.Volume6
	}
	pairs := (crew - 6 + 1) / 2
	return e.Volume6 + float64(pairs)*e.VolumeDelta
}

// ApproximateDimensions derives a box for the entry: minimum dimensions
// where the dataset has them, the remainder distributed so the box meets
// the required volume, and a uniform scale-up when the minimums alone
// fall short.
func (e Entry) ApproximateDimensions(crew int) (w, d, h float64) {
	volume := math.Max(e.RequiredVolume(crew), 0.1)
	dims := [3]float64{e.MinWidth, e.MinDepth, e.MinHeight}

	var missing []int
	known := 1.0
	for i, v := range dims {
		if v <= 0 {
			missing = append(missing, i)
			continue
		}
		known *= v
	}

	if len(missing) > 0 {
		remaining := volume / math.Max(known, 1e-6)
		fill := math.Max(math.Pow(remaining, 1/float64(len(missing))), 0.5)
		for _, i := range missing {
			dims[i] = fill
		}
	} else if current := dims[0] * dims[1] * dims[2]; current < volume {
		scale := math.Cbrt(volume / math.Max(current, 1e-6))
		for i := range dims {
			dims[i] *= scale
		}
	}

	return round3(dims[0]), round3(dims[1]), round3(dims[2])
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

type entryKey struct {
	typeKey     string
	functionKey string
}

// Catalog is an indexed requirements dataset.
type Catalog struct {
	entries map[entryKey]Entry
	byType  map[string][]Entry
}

// NewCatalog indexes the given entries. Later duplicates of the same
// (type, function) pair win.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		entries: make(map[entryKey]Entry, len(entries)),
		byType:  make(map[string][]Entry),
	}
	for _, e := range entries {
		c.add(e)
	}
	return c
}

func (c *Catalog) add(e Entry) {
	key := entryKey{e.TypeKey(), e.FunctionKey()}
	if _, dup := c.entries[key]; dup {
		funcs := c.byType[key.typeKey]
		for i := range funcs {
			if funcs[i].FunctionKey() == key.functionKey {
				funcs[i] = e
				break
			}
		}
	} else {
		c.byType[key.typeKey] = append(c.byType[key.typeKey], e)
	}
	c.entries[key] = e
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns every entry sorted by type then function.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TypeKey() != out[j].TypeKey() {
			return out[i].TypeKey() < out[j].TypeKey()
		}
		return out[i].FunctionKey() < out[j].FunctionKey()
	})
	return out
}

// Critical returns every entry whose function is mandatory, sorted.
func (c *Catalog) Critical() []Entry {
	var out []Entry
	for _, e := range c.Entries() {
		if e.Critical() {
			out = append(out, e)
		}
	}
	return out
}

// Find resolves a (type, function) pair. An exact pair match wins; a type
// with exactly one function resolves on type alone.
func (c *Catalog) Find(typeName, function string) (Entry, bool) {
	if function != "" {
		key := entryKey{model.NormalizeKey(typeName), model.NormalizeKey(function)}
		if e, ok := c.entries[key]; ok {
			return e, true
		}
	}
	if typeName != "" {
		funcs := c.byType[model.NormalizeKey(typeName)]
		if len(funcs) == 1 {
			return funcs[0], true
		}
	}
	return Entry{}, false
}

// MinimumSize implements engine.SizeLookup: the enforced minimum box for
// a module of the given type and function.
func (c *Catalog) MinimumSize(moduleType, function string) (engine.MinSize, bool) {
	e, ok := c.Find(moduleType, function)
	if !ok {
		return engine.MinSize{}, false
	}
	return engine.MinSize{W: e.MinWidth, D: e.MinDepth, H: e.MinHeight}, true
}
