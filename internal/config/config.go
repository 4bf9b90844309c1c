// Package config loads the Trunk.toml (or Trunk.yaml) project file and
// resolves it into the runtime configs consumed by the build, watch and
// serve subsystems.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of the project file.
type Config struct {
	Build BuildConfig  `toml:"build" yaml:"build"`
	Watch WatchConfig  `toml:"watch" yaml:"watch"`
	Serve ServeConfig  `toml:"serve" yaml:"serve"`
	Hooks []HookConfig `toml:"hooks" yaml:"hooks"`
}

// BuildConfig configures a single build pass.
type BuildConfig struct {
	// Target is the source HTML document, relative to the project file.
	Target string `toml:"target" yaml:"target"`
	// Dist is the output directory.
	Dist string `toml:"dist" yaml:"dist"`
	// PublicURL is the prefix written into generated asset URLs.
	PublicURL string `toml:"public_url" yaml:"public_url"`
	// Release enables optimized external tool invocations.
	Release bool `toml:"release" yaml:"release"`
	// NoHash disables content hashing of output file names.
	NoHash bool `toml:"no_hash" yaml:"no_hash"`
	// StopOnError cancels the remaining asset builds after the first failure.
	// In-flight workers are never force-terminated either way, so files a
	// worker already wrote into the staging dir stay on disk.
	StopOnError bool `toml:"stop_on_error" yaml:"stop_on_error"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Ignore lists paths (relative to the project file) excluded from
	// change detection.
	Ignore []string `toml:"ignore" yaml:"ignore"`
}

// ServeConfig configures the dev server.
type ServeConfig struct {
	Address string `toml:"address" yaml:"address"`
	Port    int    `toml:"port" yaml:"port"`
	// NoAutoreload disables the reload websocket.
	NoAutoreload bool `toml:"no_autoreload" yaml:"no_autoreload"`
}

// HookConfig declares an external command bound to a pipeline stage.
// The stage value is validated when hooks are materialized.
type HookConfig struct {
	Stage   string   `toml:"stage" yaml:"stage"`
	Command string   `toml:"command" yaml:"command"`
	Args    []string `toml:"command_arguments" yaml:"command_arguments"`
}

// Load reads a project file. The format is chosen by extension: .yaml/.yml
// parse as YAML, everything else as TOML. A missing file yields the default
// config, since every field has a usable zero or default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", path, err)
		}
	}
	return &cfg, nil
}
