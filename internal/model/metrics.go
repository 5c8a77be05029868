package model

import "math"

// Per-type defaults used for aggregate metrics. Unknown types draw the
// fallback power and house no crew.
var (
	typePowerKW = map[string]float64{
		"sleep":        0.1,
		"storage":      0.05,
		"galley":       0.5,
		"medbay":       0.8,
		"exercise":     0.3,
		"life support": 1.2,
		"power":        0.0,
		"comms":        0.4,
		"waste":        0.3,
	}
	typeCrewCapacity = map[string]int{
		"sleep": 1,
	}
)

const fallbackPowerKW = 0.2

// Metrics summarizes a habitat layout for reporting.
type Metrics struct {
	HabitatVolumeM3 float64 `json:"habitat_volume_m3"`
	ModuleVolumeM3  float64 `json:"module_volume_m3"`
	SpaceUsageRatio float64 `json:"space_usage_ratio"` // clamped to [0, 1]
	CrewCapacity    int     `json:"crew_capacity"`
	PowerUsageKW    float64 `json:"power_usage_kw"`
	FootprintW      float64 `json:"footprint_w"`
	FootprintD      float64 `json:"footprint_d"`
	FootprintH      float64 `json:"footprint_h"`
	ModuleCount     int     `json:"module_count"`
}

// ComputeMetrics aggregates volume, crew and power figures for a layout.
func ComputeMetrics(habitat Habitat, modules []Module) Metrics {
	w, d, h := habitat.CanonicalDims()
	m := Metrics{
		HabitatVolumeM3: habitat.Volume(),
		FootprintW:      w,
		FootprintD:      d,
		FootprintH:      h,
		ModuleCount:     len(modules),
	}

	for _, mod := range modules {
		m.ModuleVolumeM3 += math.Abs(mod.Volume())
		key := CanonicalType(mod.Type)
		m.CrewCapacity += typeCrewCapacity[key]
		if kw, ok := typePowerKW[key]; ok {
			m.PowerUsageKW += kw
		} else {
			m.PowerUsageKW += fallbackPowerKW
		}
	}

	if m.HabitatVolumeM3 > 1e-6 {
		m.SpaceUsageRatio = math.Min(1.0, m.ModuleVolumeM3/m.HabitatVolumeM3)
	}
	return m
}
