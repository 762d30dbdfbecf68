package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "SCHEMATIC_CONFIG"
	// ConfigFileName is looked for in the working directory
	ConfigFileName = "schematic.yaml"
	// ConfigDirName is the directory under XDG and /etc
	ConfigDirName = "schematic"
)

// SearchPaths lists the places a config file is looked for, highest
// priority first. Locations whose environment is unset are left out.
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, ConfigFileName)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing file of SearchPaths as an
// absolute path, or "" when there is none
func FindConfigPath() string {
	for _, p := range SearchPaths() {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}

// resolvePaths makes the database and snapshot paths of a config file
// relative to the file's directory, so a config under /etc can name
// "diagram.yaml" next to it
func (c *Config) resolvePaths(configPath string) {
	dir := filepath.Dir(configPath)
	resolve := func(p string) string {
		if p == "" || p == ":memory:" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Database.Path = resolve(c.Database.Path)
	c.Snapshot.Path = resolve(c.Snapshot.Path)
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
