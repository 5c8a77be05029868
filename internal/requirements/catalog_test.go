package requirements

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orbitforge/hablayout/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []Entry {
	return []Entry{
		{
			Type: "Crew Quarters", Function: "Sleep Accommodation",
			Volume4: 10, Volume6: 14, VolumeDelta: 4,
			MinWidth: 0.8, MinDepth: 0.8, MinHeight: 2.0,
			FunctionCriticality: 1,
		},
		{
			Type: "Galley", Function: "Food Preparation",
			Volume4: 4, Volume6: 5, VolumeDelta: 1,
			MinWidth: 1.0, MinDepth: 0.7, MinHeight: 1.9,
			FunctionCriticality: 1,
		},
		{
			Type: "Exercise", Function: "Resistive Exercise",
			Volume4: 3.9, Volume6: 3.9,
		},
	}
}

func TestCatalog_FindByPairAndType(t *testing.T) {
	c := NewCatalog(testEntries())

	e, ok := c.Find("crew-quarters", "SLEEP ACCOMMODATION")
	require.True(t, ok, "lookup is case and punctuation insensitive")
	assert.Equal(t, "Crew Quarters", e.Type)

	// single-function types resolve on type alone
	e, ok = c.Find("Galley", "")
	require.True(t, ok)
	assert.Equal(t, "Food Preparation", e.Function)

	_, ok = c.Find("Unknown", "Unknown")
	assert.False(t, ok)
}

func TestEntry_RequiredVolume(t *testing.T) {
	e := testEntries()[0]

	assert.Equal(t, 10.0, e.RequiredVolume(2), "small crews pay the 4-crew volume")
	assert.Equal(t, 10.0, e.RequiredVolume(4))
	assert.Equal(t, 14.0, e.RequiredVolume(6))
	assert.Equal(t, 18.0, e.RequiredVolume(8), "one extra pair beyond six")
	assert.Equal(t, 22.0, e.RequiredVolume(10))
}

func TestEntry_ApproximateDimensions(t *testing.T) {
	// all minimums present but under the required volume: scale up
	e := Entry{MinWidth: 1, MinDepth: 1, MinHeight: 1, Volume4: 8}
	w, d, h := e.ApproximateDimensions(4)
	assert.Equal(t, 2.0, w)
	assert.Equal(t, 2.0, d)
	assert.Equal(t, 2.0, h)

	// a missing dimension absorbs the remaining volume
	e = Entry{MinWidth: 2, MinDepth: 2, Volume4: 8}
	w, d, h = e.ApproximateDimensions(4)
	assert.Equal(t, 2.0, w)
	assert.Equal(t, 2.0, d)
	assert.Equal(t, 2.0, h)

	// filled dimensions never collapse below half a meter
	e = Entry{Volume4: 0.001}
	w, d, h = e.ApproximateDimensions(4)
	assert.GreaterOrEqual(t, w, 0.5)
	assert.GreaterOrEqual(t, d, 0.5)
	assert.GreaterOrEqual(t, h, 0.5)
}

func TestCatalog_MinimumSize(t *testing.T) {
	c := NewCatalog(testEntries())

	min, ok := c.MinimumSize("Crew Quarters", "Sleep Accommodation")
	require.True(t, ok)
	assert.Equal(t, 0.8, min.W)
	assert.Equal(t, 0.8, min.D)
	assert.Equal(t, 2.0, min.H)

	_, ok = c.MinimumSize("Unknown", "")
	assert.False(t, ok)
}

func TestCatalog_Coverage(t *testing.T) {
	c := NewCatalog(testEntries())

	modules := []model.Module{
		model.NewModule("Crew Quarters", 1, 1, 2),
	}
	modules[0].Function = "Sleep Accommodation"

	rep := c.Coverage(modules)

	assert.Equal(t, 2, rep.Required, "only critical functions are required")
	assert.Equal(t, 1, rep.Covered)
	assert.Equal(t, 50.0, rep.Score)
	require.Len(t, rep.Missing, 1)
	assert.Equal(t, "Galley", rep.Missing[0].Type)
}

func TestCatalog_EnsureCritical(t *testing.T) {
	c := NewCatalog(testEntries())
	layout := model.NewLayout()

	rep := c.EnsureCritical(&layout)

	assert.Equal(t, rep.Required, rep.Covered, "every critical function gets a module")
	require.Len(t, rep.Added, 2)
	assert.Len(t, layout.Modules, 2)
	for _, m := range rep.Added {
		assert.NotEmpty(t, m.Function)
		assert.Greater(t, m.W, 0.0)
	}
	// new modules queue along the axis instead of stacking
	assert.NotEqual(t, layout.Modules[0].Y, layout.Modules[1].Y)

	// idempotent once covered
	rep = c.EnsureCritical(&layout)
	assert.Empty(t, rep.Added)
	assert.Len(t, layout.Modules, 2)
}

const sampleCSV = `Type,Type criticality,Function,Function criticality,"VOLUME - 4 CREW
(m3)","VOLUME - 6 CREW
(m3)",increase in 2 crew (m^3),min width (m),min depth (m),min height (m)
Crew Quarters,1,Sleep Accommodation,1,10,14,4,0.8,0.8,2.0
,,Private Work,0,3,4,1,0.6,0.6,1.5
Galley,2,Food Preparation,1,4,5,1,1.0,0.7,1.9
`

func TestLoadCSV_MergedTypeCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	res := LoadCSV(path)

	require.Empty(t, res.Errors)
	assert.Equal(t, 3, res.Catalog.Len())

	// the blank Type cell inherits Crew Quarters
	e, ok := res.Catalog.Find("Crew Quarters", "Private Work")
	require.True(t, ok)
	assert.Equal(t, 3.0, e.Volume4)
	assert.Equal(t, 1, e.TypeCriticality, "inherited from the merged cell")
	assert.Equal(t, 0, e.FunctionCriticality)

	e, ok = res.Catalog.Find("Galley", "Food Preparation")
	require.True(t, ok)
	assert.True(t, e.Critical())
	assert.Equal(t, 2, e.TypeCriticality)
}

func TestLoadCSV_BOMAndMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")
	require.NoError(t, os.WriteFile(path, append([]byte{0xEF, 0xBB, 0xBF}, []byte(sampleCSV)...), 0o644))

	res := LoadCSV(path)
	require.Empty(t, res.Errors)
	assert.Equal(t, 3, res.Catalog.Len())

	res = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.Len(t, res.Errors, 1)
	assert.Zero(t, res.Catalog.Len())
}

func TestLoadCSV_NoHeader(t *testing.T) {
	res := LoadCSVFromReader(strings.NewReader("a,b,c\n1,2,3\n"))
	require.NotEmpty(t, res.Errors)
	assert.Zero(t, res.Catalog.Len())
}
