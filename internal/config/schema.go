package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	View     ViewConfig     `yaml:"view"`
	Viewport ViewportConfig `yaml:"viewport"`
	Grid     GridConfig     `yaml:"grid"`
	Render   RenderConfig   `yaml:"render"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
	Metrics     bool     `yaml:"metrics"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SnapshotConfig says where scenes are loaded from. With a path the file is
// imported into the database at startup and, when Watch is set, again on
// every change.
type SnapshotConfig struct {
	Path     string    `yaml:"path,omitempty"`
	Watch    bool      `yaml:"watch"`
	Debounce *Duration `yaml:"debounce,omitempty"`
}

// ViewConfig is the viewing context scenes open in
type ViewConfig struct {
	Kind       string `yaml:"kind"`
	Deployment string `yaml:"deployment,omitempty"`
}

// ViewportConfig sizes the render surface and bounds zoom
type ViewportConfig struct {
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	MinZoom float64 `yaml:"min_zoom"`
	MaxZoom float64 `yaml:"max_zoom"`
}

// GridConfig holds background grid settings
type GridConfig struct {
	Spacing float64 `yaml:"spacing"`
}

// RenderConfig holds drawing defaults
type RenderConfig struct {
	DefaultColor string `yaml:"default_color"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
