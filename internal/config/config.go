// Package config loads warden's project configuration.
//
// warden.yml carries the platform identifier and the materialized rule
// and review definitions handed to the engine. Definitions are decoded
// node by node so that a malformed definition is fatal for that one
// definition only; everything else still loads, and the failures are
// reported alongside the valid set.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tomashenry/warden/internal/rules"
)

// ConfigFile is the project configuration filename.
const ConfigFile = "warden.yml"

// Path returns the absolute path to a project's warden.yml.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, ConfigFile)
}

// FindProjectRoot walks up from the current working directory looking
// for a warden.yml. If none is found, returns cwd. This lets tools work
// from any subdirectory of the project.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		if _, err := os.Stat(Path(current)); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root with no config. Return the
			// original cwd and let the caller decide what to do.
			return dir, nil
		}
		current = parent
	}
}

// Config is the loaded project configuration.
type Config struct {
	// Platform identifies the invoking agent platform, used to resolve
	// per-platform review personas.
	Platform string
	// Rules are the valid detection rules.
	Rules []*rules.Rule
	// Reviews are the valid review rules.
	Reviews []*rules.ReviewRule
	// Errors are per-definition load failures. The corresponding
	// definitions were dropped; everything in Rules/Reviews is valid.
	Errors []error
}

// rawConfig keeps definitions as yaml nodes so each can be decoded and
// validated independently, with its source line preserved.
type rawConfig struct {
	Platform string      `yaml:"platform"`
	Rules    []yaml.Node `yaml:"rules"`
	Reviews  []yaml.Node `yaml:"reviews"`
}

// Load reads and validates a project's configuration. A missing
// warden.yml is not an error: it loads as an empty configuration.
func Load(projectRoot string) (*Config, error) {
	data, err := os.ReadFile(Path(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFile, err)
	}
	return Parse(data)
}

// Parse decodes configuration bytes. Definition-level failures are
// collected in Config.Errors rather than aborting the load.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFile, err)
	}

	cfg := &Config{Platform: raw.Platform}

	for i := range raw.Rules {
		node := &raw.Rules[i]
		r := &rules.Rule{}
		if err := node.Decode(r); err != nil {
			cfg.Errors = append(cfg.Errors, fmt.Errorf("%s:%d: %w", ConfigFile, node.Line, err))
			continue
		}
		r.SourceFile = ConfigFile
		r.SourceLine = node.Line
		if err := r.Validate(); err != nil {
			cfg.Errors = append(cfg.Errors, fmt.Errorf("%s:%d: %w", ConfigFile, node.Line, err))
			continue
		}
		cfg.Rules = append(cfg.Rules, r)
	}

	for i := range raw.Reviews {
		node := &raw.Reviews[i]
		r := &rules.ReviewRule{}
		if err := node.Decode(r); err != nil {
			cfg.Errors = append(cfg.Errors, fmt.Errorf("%s:%d: %w", ConfigFile, node.Line, err))
			continue
		}
		r.SourceFile = ConfigFile
		r.SourceLine = node.Line
		if err := r.Validate(); err != nil {
			cfg.Errors = append(cfg.Errors, fmt.Errorf("%s:%d: %w", ConfigFile, node.Line, err))
			continue
		}
		cfg.Reviews = append(cfg.Reviews, r)
	}

	return cfg, nil
}
