package engine

import (
	"github.com/orbitforge/hablayout/internal/geometry"
	"github.com/orbitforge/hablayout/internal/model"
)

// StrategyReport holds the packing outcome and computed statistics for a
// single strategy.
type StrategyReport struct {
	Strategy      model.Strategy
	Result        model.PackResult
	PlacedCount   int
	OverflowCount int
	FillPercent   float64 // placed volume over habitat volume
	OverlapCount  int
}

// CompareStrategies packs the same module set under every strategy and
// returns the reports in ladder order. This enables side-by-side
// comparison of margins, rotation, and ordering without committing any
// layout changes.
func CompareStrategies(habitat model.Habitat, modules []model.Module, lookup SizeLookup, strategies []model.Strategy) []StrategyReport {
	if len(strategies) == 0 {
		strategies = model.DefaultStrategies()
	}
	b := geometry.ResolveBounds(habitat)

	var candidates []Candidate
	for _, m := range modules {
		if f := CheckModuleFeasibility(habitat, m, lookup); f.OK {
			candidates = append(candidates, NewCandidate(m, lookup))
		}
	}

	habVol := habitat.Volume()
	reports := make([]StrategyReport, 0, len(strategies))
	for _, strat := range strategies {
		res := Pack(b, candidates, strat)

		fill := 0.0
		if habVol > geometry.Tolerance {
			fill = 100 * res.PlacedVolume / habVol
		}

		reports = append(reports, StrategyReport{
			Strategy:      strat,
			Result:        res,
			PlacedCount:   len(res.Placements),
			OverflowCount: len(res.Overflow),
			FillPercent:   fill,
			OverlapCount:  len(FindOverlaps(res.Placements)),
		})
	}
	return reports
}
