// Package cli provides CLI-specific logic: configuration loading,
// measurement-document parsing, and weight-override parsing.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gradekit/repograde/pkg/attribute"
	"github.com/gradekit/repograde/pkg/weights"
)

// Config represents the .repograde.yml configuration file.
type Config struct {
	Version string             `yaml:"version"`
	Strict  bool               `yaml:"strict"`
	Weights map[string]float64 `yaml:"weights"`
	Output  OutputConfig       `yaml:"output"`
	History HistoryConfig      `yaml:"history"`
	Server  ServerConfig       `yaml:"server"`
}

// OutputConfig controls report output settings.
type OutputConfig struct {
	Format  string `yaml:"format"`
	Verbose bool   `yaml:"verbose"`
}

// HistoryConfig controls the local assessment history store.
type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
	Keep    int    `yaml:"keep"`
}

// IsEnabled reports whether history recording is on. It defaults to true
// when not explicitly set.
func (h HistoryConfig) IsEnabled() bool {
	if h.Enabled == nil {
		return true
	}
	return *h.Enabled
}

// ServerConfig controls the assessment API server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoadConfig reads and parses a .repograde.yml configuration file.
// If path is empty, it looks for .repograde.yml in the current directory.
// If the default config file is not found, sensible defaults are returned.
// If an explicitly specified config file is not found, an error is returned.
func LoadConfig(path string) (*Config, error) {
	useDefault := path == ""
	if useDefault {
		path = ".repograde.yml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && useDefault {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("cli: reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cli: parsing config %s: %w", path, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults matching the
// documented .repograde.yml schema.
func DefaultConfig() *Config {
	cfg := &Config{Version: "1"}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Output.Format == "" {
		cfg.Output.Format = "table"
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath()
	}
	if cfg.History.Keep == 0 {
		cfg.History.Keep = 100
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8750"
	}
}

// defaultHistoryPath returns the per-user history database location,
// falling back to the working directory when no home is available.
func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "repograde.db"
	}
	return filepath.Join(home, ".repograde", "history.db")
}

// WeightVector converts the config's weights section into a typed
// fragment for resolution. IDs are not checked here; resolution rejects
// unknown attributes with a proper finding.
func (c *Config) WeightVector() weights.Vector {
	if len(c.Weights) == 0 {
		return nil
	}
	v := make(weights.Vector, len(c.Weights))
	for id, w := range c.Weights {
		v[attribute.ID(id)] = w
	}
	return v
}
