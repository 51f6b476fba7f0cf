// Package config loads cyclomet configuration from TOML, YAML or JSON files.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for cyclomet.
type Config struct {
	// Threshold settings for severity classification
	Threshold ThresholdConfig `koanf:"threshold"`

	// External analyzer delegation
	External ExternalConfig `koanf:"external"`

	// Watch mode settings
	Watch WatchConfig `koanf:"watch"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`
}

// ThresholdConfig defines the complexity severity threshold.
type ThresholdConfig struct {
	Complexity int `koanf:"complexity"`
}

// ExternalConfig configures the out-of-process analyzer per language tag.
type ExternalConfig struct {
	// Commands maps a language tag to the analyzer command line; the file
	// path is appended as the final argument.
	Commands map[string][]string `koanf:"commands"`

	TimeoutMS      int   `koanf:"timeout_ms"`
	MaxOutputBytes int64 `koanf:"max_output_bytes"`
}

// Timeout returns the delegation timeout as a duration.
func (e ExternalConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMS) * time.Millisecond
}

// WatchConfig controls the edit-debounce interval.
type WatchConfig struct {
	DebounceMS int `koanf:"debounce_ms"`
}

// Debounce returns the idle interval before re-analysis as a duration.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns"`
	Extensions []string `koanf:"extensions"`
	Dirs       []string `koanf:"dirs"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Threshold: ThresholdConfig{
			Complexity: 10,
		},
		External: ExternalConfig{
			Commands:       map[string][]string{},
			TimeoutMS:      5000,
			MaxOutputBytes: 1 << 20,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*_test.py",
				"*.min.js",
				"*.d.ts",
			},
			Dirs: []string{
				"node_modules",
				".git",
				"__pycache__",
				"venv",
				".venv",
				"dist",
				"build",
			},
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"cyclomet.toml",
		"cyclomet.yaml",
		"cyclomet.yml",
		"cyclomet.json",
		".cyclomet.toml",
		".cyclomet.yaml",
		".cyclomet.yml",
		".cyclomet.json",
	}

	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			cfg, err := Load(name)
			if err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
