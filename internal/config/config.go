// Package config provides configuration management for the schematic
// server and CLI.
//
// Config file locations (priority order):
//  1. $SCHEMATIC_CONFIG
//  2. ./schematic.yaml
//  3. $XDG_CONFIG_HOME/schematic/config.yaml
//  4. ~/.config/schematic/config.yaml
//  5. /etc/schematic/config.yaml
//
// Relative database and snapshot paths in a config file are taken relative
// to the file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"schematic/internal/domain"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultAddr         = ":3000"
	DefaultDatabasePath = "./schematic.db"
	DefaultWidth        = 1280.0
	DefaultHeight       = 800.0
	DefaultMinZoom      = 0.1
	DefaultMaxZoom      = 8.0
	DefaultGridSpacing  = 20.0
	DefaultColor        = "#8a8f98"
	DefaultDebounce     = 500 * time.Millisecond
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.resolvePaths(path)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Snapshot.Debounce == nil {
		d := Duration(DefaultDebounce)
		c.Snapshot.Debounce = &d
	}
	if c.View.Kind == "" {
		c.View.Kind = string(domain.SchematicKindDeployment)
	}
	if c.Viewport.Width <= 0 {
		c.Viewport.Width = DefaultWidth
	}
	if c.Viewport.Height <= 0 {
		c.Viewport.Height = DefaultHeight
	}
	if c.Viewport.MinZoom <= 0 {
		c.Viewport.MinZoom = DefaultMinZoom
	}
	if c.Viewport.MaxZoom <= 0 {
		c.Viewport.MaxZoom = DefaultMaxZoom
	}
	if c.Grid.Spacing <= 0 {
		c.Grid.Spacing = DefaultGridSpacing
	}
	if c.Render.DefaultColor == "" {
		c.Render.DefaultColor = DefaultColor
	}
}

// Validate checks values defaults cannot fix
func (c *Config) Validate() error {
	switch domain.SchematicKind(c.View.Kind) {
	case domain.SchematicKindDeployment, domain.SchematicKindComponent:
	default:
		return fmt.Errorf("view.kind must be %q or %q, got %q",
			domain.SchematicKindDeployment, domain.SchematicKindComponent, c.View.Kind)
	}
	if c.Viewport.MinZoom > c.Viewport.MaxZoom {
		return fmt.Errorf("viewport.min_zoom %.2f exceeds max_zoom %.2f", c.Viewport.MinZoom, c.Viewport.MaxZoom)
	}
	if c.Snapshot.Watch && c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.watch requires snapshot.path")
	}
	if !strings.HasPrefix(c.Render.DefaultColor, "#") {
		return fmt.Errorf("render.default_color must be a hex color, got %q", c.Render.DefaultColor)
	}
	return nil
}

// ViewingContext returns the configured initial viewing context
func (c *Config) ViewingContext() domain.ViewingContext {
	return domain.NewViewingContext(domain.SchematicKind(c.View.Kind), c.View.Deployment)
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Database: %s\n", c.Server.Addr, c.Database.Path)
	if c.Snapshot.Path != "" {
		summary += fmt.Sprintf("Snapshot: %s (watch: %v, debounce: %s)\n",
			c.Snapshot.Path, c.Snapshot.Watch, c.Snapshot.Debounce.Duration())
	}
	summary += fmt.Sprintf("View: %s, Viewport: %.0fx%.0f, Zoom: %.2f-%.2f",
		c.ViewingContext(), c.Viewport.Width, c.Viewport.Height, c.Viewport.MinZoom, c.Viewport.MaxZoom)
	return summary
}
