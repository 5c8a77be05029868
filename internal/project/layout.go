// Package project persists layouts and application configuration as JSON
// on disk, plus timestamped backups of the whole workspace.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orbitforge/hablayout/internal/model"
)

// SaveLayout persists a layout to the given path as indented JSON,
// creating any missing parent directories.
func SaveLayout(path string, layout model.Layout) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadLayout reads a layout from the given path. A missing file returns
// the default layout with no error, so a fresh install starts clean.
func LoadLayout(path string) (model.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewLayout(), nil
		}
		return model.Layout{}, err
	}
	var layout model.Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return model.Layout{}, fmt.Errorf("failed to parse layout file: %w", err)
	}
	if layout.Habitat.Type == "" {
		layout.Habitat = model.NewCylinderHabitat(4.0, 14.0)
	}
	if layout.Modules == nil {
		layout.Modules = []model.Module{}
	}
	if layout.Name == "" {
		layout.Name = "Untitled"
	}
	return layout, nil
}
