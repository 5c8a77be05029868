package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/orbitforge/hablayout/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadLayout_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "layout.json")

	layout := model.NewLayout()
	layout.Name = "Transit Hab"
	layout.Crew = 6
	layout.Modules = append(layout.Modules, model.NewModule("galley", 1.2, 0.8, 1.9))

	require.NoError(t, SaveLayout(path, layout))

	loaded, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, layout.Name, loaded.Name)
	assert.Equal(t, layout.Crew, loaded.Crew)
	require.Len(t, loaded.Modules, 1)
	assert.Equal(t, layout.Modules[0].ID, loaded.Modules[0].ID)
	assert.Equal(t, layout.Habitat, loaded.Habitat)
}

func TestLoadLayout_MissingFileReturnsDefault(t *testing.T) {
	loaded, err := LoadLayout(filepath.Join(t.TempDir(), "nope.json"))

	require.NoError(t, err)
	assert.Equal(t, "Untitled", loaded.Name)
	assert.Equal(t, model.HabitatCylinder, loaded.Habitat.Type)
	assert.NotNil(t, loaded.Modules)
}

func TestLoadLayout_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadLayout(path)
	assert.Error(t, err)
}

func TestAppConfig_RoundTripAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultCrew = 6
	cfg.AddRecentLayout("/tmp/a.json", 5)
	require.NoError(t, SaveAppConfig(path, cfg))

	loaded, err := LoadAppConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6, loaded.DefaultCrew)
	assert.Equal(t, []string{"/tmp/a.json"}, loaded.RecentLayouts)

	// missing file falls back to defaults
	loaded, err = LoadAppConfig(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAppConfig().DefaultCrew, loaded.DefaultCrew)
	assert.NotNil(t, loaded.RecentLayouts)
}

func TestBackup_ExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	cfg := model.DefaultAppConfig()
	layout := model.NewLayout()
	layout.Name = "Surface Hab"

	require.NoError(t, ExportAllData(path, cfg, []model.Layout{layout}))

	backup, err := ImportAllData(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", backup.Version)
	assert.NotEmpty(t, backup.CreatedAt)
	require.Len(t, backup.Layouts, 1)
	assert.Equal(t, "Surface Hab", backup.Layouts[0].Name)
}

func TestBackup_ImportRejectsMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"config":{}}`), 0o644))

	_, err := ImportAllData(path)
	assert.ErrorContains(t, err, "missing version")
}

func TestWriteTimestampedBackup_Prunes(t *testing.T) {
	dir := t.TempDir()
	layoutPath := filepath.Join(dir, "hab.json")
	layout := model.NewLayout()

	var last string
	for i := 0; i < 3; i++ {
		p, err := WriteTimestampedBackup(layoutPath, layout, 2)
		require.NoError(t, err)
		last = p
		// distinct names need distinct timestamps only at second
		// resolution; overwriting the same name is fine for pruning
	}
	assert.FileExists(t, last)

	matches, err := filepath.Glob(filepath.Join(dir, "hab-*.bak.json"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 2)
}
