package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "life support", NormalizeKey("Life Support"))
	assert.Equal(t, "life support", NormalizeKey("LIFE-SUPPORT"))
	assert.Equal(t, "life support", NormalizeKey("life_support"))
	assert.Equal(t, "crew quarters 2", NormalizeKey("  Crew   Quarters (2) "))
	assert.Equal(t, "", NormalizeKey("---"))
}

func TestHabitat_CanonicalDimsAndVolume(t *testing.T) {
	cyl := NewCylinderHabitat(4, 14)
	w, d, h := cyl.CanonicalDims()
	assert.Equal(t, 8.0, w)
	assert.Equal(t, 14.0, d)
	assert.Equal(t, 8.0, h)
	assert.InDelta(t, math.Pi*16*14, cyl.Volume(), 1e-9)

	sph := NewSphereHabitat(3)
	w, d, h = sph.CanonicalDims()
	assert.Equal(t, 6.0, w)
	assert.Equal(t, 6.0, d)
	assert.Equal(t, 6.0, h)
	assert.InDelta(t, 4.0/3.0*math.Pi*27, sph.Volume(), 1e-9)

	cube := NewCubeHabitat(2, 3, 4)
	assert.Equal(t, 24.0, cube.Volume())
}

func TestNewModule_AssignsIDAndColor(t *testing.T) {
	a := NewModule("galley", 2, 2, 2)
	b := NewModule("galley", 2, 2, 2)

	assert.Len(t, a.ID, 8)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Color, b.Color, "same type, same palette color")
	assert.Equal(t, 8.0, a.Volume())
	assert.Equal(t, 4.0, a.FootprintArea())
}

func TestCloneModules_IsDeepSnapshot(t *testing.T) {
	orig := []Module{NewModule("sleep", 1, 1, 2)}
	cp := CloneModules(orig)

	cp[0].X = 99
	assert.Zero(t, orig[0].X)
	assert.Nil(t, CloneModules(nil))
}

func TestDefaultStrategies_LadderTightens(t *testing.T) {
	strategies := DefaultStrategies()
	require.Len(t, strategies, 4)

	for i := 1; i < len(strategies); i++ {
		prev, cur := strategies[i-1], strategies[i]
		assert.Less(t, cur.MarginFraction, prev.MarginFraction, "%s tighter than %s", cur.Name, prev.Name)
		assert.Less(t, cur.GapFloor, prev.GapFloor)
	}
	assert.False(t, strategies[0].AllowRotation, "the loosest strategy keeps modules upright")
	assert.True(t, strategies[len(strategies)-1].AllowRotation)
}

func TestCanonicalType_Synonyms(t *testing.T) {
	assert.Equal(t, "sleep", CanonicalType("Bunk"))
	assert.Equal(t, "galley", CanonicalType("kitchen"))
	assert.Equal(t, "medbay", CanonicalType("Clinic"))
	assert.Equal(t, "greenhouse", CanonicalType("Greenhouse"))
}

func TestFromTemplate(t *testing.T) {
	m := FromTemplate("bed")
	assert.Equal(t, "sleep", m.Type)
	assert.Equal(t, "capsule", m.Shape)
	assert.Equal(t, 1.5, m.H)

	m = FromTemplate("airlock")
	assert.Equal(t, "airlock", m.Type)
	assert.Equal(t, 1.0, m.W)
}

func TestComputeMetrics(t *testing.T) {
	habitat := NewCubeHabitat(5, 5, 5)
	modules := []Module{
		NewModule("sleep", 1, 1, 2),
		NewModule("sleep", 1, 1, 2),
		NewModule("galley", 2, 2, 2),
		NewModule("mystery", 1, 1, 1),
	}

	m := ComputeMetrics(habitat, modules)

	assert.Equal(t, 4, m.ModuleCount)
	assert.Equal(t, 2, m.CrewCapacity)
	assert.InDelta(t, 0.1+0.1+0.5+0.2, m.PowerUsageKW, 1e-9)
	assert.InDelta(t, (2+2+8+1)/125.0, m.SpaceUsageRatio, 1e-9)
}

func TestComputeMetrics_DegenerateHabitat(t *testing.T) {
	m := ComputeMetrics(NewSphereHabitat(0), []Module{NewModule("sleep", 1, 1, 1)})
	assert.Zero(t, m.SpaceUsageRatio)
}

func TestAppConfig_AddRecentLayout(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.AddRecentLayout("/a.json", 3)
	cfg.AddRecentLayout("/b.json", 3)
	cfg.AddRecentLayout("/a.json", 3)

	assert.Equal(t, []string{"/a.json", "/b.json"}, cfg.RecentLayouts, "re-adding moves to front without duplicating")

	cfg.AddRecentLayout("/c.json", 3)
	cfg.AddRecentLayout("/d.json", 3)
	assert.Len(t, cfg.RecentLayouts, 3, "list is capped")
	assert.Equal(t, "/d.json", cfg.RecentLayouts[0])
}
