package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/orbitforge/hablayout/internal/model"
)

// BackupData is the top-level structure for import/export of all
// application data.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Layouts   []model.Layout  `json:"layouts"`
}

// ExportAllData exports the config and every given layout to a single
// JSON file at the specified path.
func ExportAllData(exportPath string, config model.AppConfig, layouts []model.Layout) error {
	backup := BackupData{
		Version:   "1.0.0",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Layouts:   layouts,
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying the imported config and layouts.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Config.RecentLayouts == nil {
		backup.Config.RecentLayouts = []string{}
	}
	return backup, nil
}

// WriteTimestampedBackup writes a layout copy next to the original file
// named <base>-20060102-150405.bak.json and prunes old backups beyond
// keep. It is called before destructive saves.
func WriteTimestampedBackup(layoutPath string, layout model.Layout, keep int) (string, error) {
	dir := filepath.Dir(layoutPath)
	base := filepath.Base(layoutPath)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}

	name := fmt.Sprintf("%s-%s.bak.json", base, time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := SaveLayout(path, layout); err != nil {
		return "", err
	}

	if keep > 0 {
		if err := pruneBackups(dir, base, keep); err != nil {
			return path, err
		}
	}
	return path, nil
}

// pruneBackups deletes the oldest backups of a layout beyond keep. Backup
// names embed a sortable timestamp, so lexical order is age order.
func pruneBackups(dir, base string, keep int) error {
	pattern := filepath.Join(dir, base+"-*.bak.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	if len(matches) <= keep {
		return nil
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-keep] {
		if err := os.Remove(old); err != nil {
			return err
		}
	}
	return nil
}
