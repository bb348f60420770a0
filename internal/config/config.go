// Package config handles cask project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/caskhq/cask/internal/util"
)

const (
	// Dir is the per-project state directory.
	Dir = ".cask"

	// FileName is the config file inside Dir.
	FileName = "config.yaml"

	// DBFileName is the event store inside Dir.
	DBFileName = "cask.db"
)

// Config is the persisted project configuration.
type Config struct {
	// Version of the config schema.
	Version int `yaml:"version"`

	// ExportDir is where export containers are written. Relative paths are
	// resolved against the project root.
	ExportDir string `yaml:"export_dir"`

	// WorkspaceRoot overrides where staging workspaces are allocated.
	// Empty means the platform cache directory.
	WorkspaceRoot string `yaml:"workspace_root,omitempty"`

	// ExportBatchSize is how many events go into one staged batch file.
	ExportBatchSize int64 `yaml:"export_batch_size"`

	// KeepWorkspace disables staging cleanup after a pipeline run.
	KeepWorkspace bool `yaml:"keep_workspace"`
}

// Default returns the configuration a fresh project starts with.
func Default() *Config {
	return &Config{
		Version:         1,
		ExportDir:       "exports",
		ExportBatchSize: 1000,
	}
}

// Load reads the config from projectRoot. A missing file yields defaults.
func Load(projectRoot string) (*Config, error) {
	path := filepath.Join(projectRoot, Dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config into projectRoot, creating the state directory if
// needed.
func (c *Config) Save(projectRoot string) error {
	dir := filepath.Join(projectRoot, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := util.AtomicWriteFile(filepath.Join(dir, FileName), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DBPath returns the event store location for a project.
func DBPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, DBFileName)
}

// ResolveExportDir turns the configured export directory into an absolute
// path under projectRoot.
func (c *Config) ResolveExportDir(projectRoot string) string {
	if filepath.IsAbs(c.ExportDir) {
		return c.ExportDir
	}
	return filepath.Join(projectRoot, c.ExportDir)
}

// FindProjectRoot walks upward from start looking for a .cask directory.
func FindProjectRoot(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, Dir)); err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
