package requirements

import (
	"math"

	"github.com/orbitforge/hablayout/internal/model"
)

// Report scores a module list against the catalog's critical functions.
type Report struct {
	Score    float64 `json:"score"` // percent of required functions covered
	Covered  int     `json:"covered"`
	Required int     `json:"required"`
	Missing  []Entry `json:"missing,omitempty"`
	Added    []model.Module
}

// matchEntry resolves the catalog entry a module satisfies, if any. The
// module's explicit function wins; a type with a single function matches
// on type alone.
func (c *Catalog) matchEntry(m model.Module) (Entry, bool) {
	return c.Find(m.Type, m.Function)
}

// coveredKeys returns the set of requirement keys satisfied by modules.
func (c *Catalog) coveredKeys(modules []model.Module) map[entryKey]bool {
	covered := make(map[entryKey]bool)
	for _, m := range modules {
		if e, ok := c.matchEntry(m); ok {
			covered[entryKey{e.TypeKey(), e.FunctionKey()}] = true
		}
	}
	return covered
}

// Coverage reports how many critical functions the module list provides
// and which are missing.
func (c *Catalog) Coverage(modules []model.Module) Report {
	critical := c.Critical()
	covered := c.coveredKeys(modules)

	rep := Report{Required: len(critical)}
	for _, e := range critical {
		if covered[entryKey{e.TypeKey(), e.FunctionKey()}] {
			rep.Covered++
			continue
		}
		rep.Missing = append(rep.Missing, e)
	}
	total := rep.Required
	if total == 0 {
		total = 1
	}
	rep.Score = math.Round(float64(rep.Covered)/float64(total)*100*100) / 100
	return rep
}

// EnsureCritical appends a module for every critical function the layout
// does not yet cover, sized from the requirement for the layout's crew.
// New modules queue behind the existing ones along the axis so they never
// bury a hand-placed layout. The report lists what was added.
func (c *Catalog) EnsureCritical(layout *model.Layout) Report {
	crew := layout.Crew
	if crew <= 0 {
		crew = 4
	}

	cursorY := 0.0
	for _, m := range layout.Modules {
		if end := m.Y + m.D + 1.0; end > cursorY {
			cursorY = end
		}
	}

	rep := c.Coverage(layout.Modules)
	for _, e := range rep.Missing {
		w, d, h := e.ApproximateDimensions(crew)
		m := model.NewModule(e.Type, w, d, h)
		m.Function = e.Function
		m.Y = cursorY
		m.Z = h / 2
		layout.Modules = append(layout.Modules, m)
		rep.Added = append(rep.Added, m)
		cursorY += d + 0.75
	}
	if len(rep.Added) > 0 {
		next := c.Coverage(layout.Modules)
		next.Added = rep.Added
		rep = next
	}
	return rep
}
