package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	DefaultCrew      int      `json:"default_crew"`
	RequirementsPath string   `json:"requirements_path"` // CSV or XLSX catalog, empty = none
	ExportDir        string   `json:"export_dir"`
	LogLevel         string   `json:"log_level"`  // debug, info, warn, error
	LogFormat        string   `json:"log_format"` // text or json
	RecentLayouts    []string `json:"recent_layouts"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DefaultCrew:   4,
		LogLevel:      "info",
		LogFormat:     "text",
		RecentLayouts: []string{},
	}
}

// AddRecentLayout prepends path to the recent-layout list, de-duplicating
// and keeping at most max entries.
func (c *AppConfig) AddRecentLayout(path string, max int) {
	if path == "" {
		return
	}
	recent := []string{path}
	for _, p := range c.RecentLayouts {
		if p != path && len(recent) < max {
			recent = append(recent, p)
		}
	}
	c.RecentLayouts = recent
}
