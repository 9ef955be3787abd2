// Package config loads tool configuration. The selection markers and
// coverage categories live here on purpose: which content categories a
// run prioritizes is dataset knowledge, not pipeline logic, so it ships
// as overridable data.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"

	"github.com/nextlevelbuilder/chatsift/internal/pipeline"
)

// Config is the full tool configuration.
type Config struct {
	Output    OutputConfig    `json:"output" yaml:"output"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Scan      ScanConfig      `json:"scan" yaml:"scan"`
	Selection SelectionConfig `json:"selection" yaml:"selection"`
}

// OutputConfig controls where the rendered transcript goes.
type OutputConfig struct {
	File string `json:"file" yaml:"file"`
}

// StorageConfig points at the storage to read. Empty fields fall back to
// per-OS discovery.
type StorageConfig struct {
	DBPath    string `json:"dbPath" yaml:"dbPath"`
	LogsDir   string `json:"logsDir" yaml:"logsDir"`
	Workspace string `json:"workspace" yaml:"workspace"`
}

// ScanConfig bounds the log scan.
type ScanConfig struct {
	MaxFiles int `json:"maxFiles" yaml:"maxFiles"`
	Workers  int `json:"workers" yaml:"workers"`
}

// SelectionConfig parameterizes the prioritized selector.
type SelectionConfig struct {
	Queries    int                 `json:"queries" yaml:"queries"`
	Markers    []pipeline.Marker   `json:"markers" yaml:"markers"`
	Categories []pipeline.Category `json:"categories" yaml:"categories"`
	ForcedIDs  []string            `json:"forcedIds" yaml:"forcedIds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{File: "chat_history.md"},
		Scan:   ScanConfig{Workers: 4},
		Selection: SelectionConfig{
			Markers: []pipeline.Marker{
				{Name: "algorithm-example", Terms: []string{"binary search tree"}},
				{Name: "special-characters", Terms: []string{"special chars"}},
				{Name: "markdown-structure", Terms: []string{"heading", "subheading"}, MatchAll: true},
				{Name: "code-block", Terms: []string{"```"}},
			},
			Categories: []pipeline.Category{
				{Name: "algorithm-example", Search: "binary search tree"},
				{Name: "special-characters", Search: "special", AltSearch: "!@#$%^&*()", ExactID: "chat:special"},
				{Name: "markdown-structure", Search: "markdown", AltSearch: "heading", ExactID: "chat:markdown"},
			},
			ForcedIDs: []string{"chat:special", "chat:markdown"},
		},
	}
}

// Load reads the config file at path over the defaults. YAML files are
// recognized by extension; everything else parses as JSON5. A missing
// file is not an error — defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json5.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	return ExpandHome("~/.config/chatsift/config.json")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}
