// Package config holds interpreter settings for the lscheme CLI.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"martianoff/lscheme/schemeerr"
)

const (
	VariantBox   = "box"
	VariantSubst = "subst"

	EngineEquations = "equations"
	EngineUnify     = "unify"
)

// Config holds interpreter configuration.
type Config struct {
	// Home is the root directory for lscheme data.
	// Defaults to ~/.lscheme
	Home string `yaml:"-"`

	// Variant selects the evaluator: "box" (environments with mutable
	// bindings) or "subst" (renaming substitution).
	Variant string `yaml:"variant"`

	// MaxDepth bounds nested closure applications. Zero means no limit.
	MaxDepth int `yaml:"max_depth"`

	// Engine selects the type inference engine: "equations" or "unify".
	Engine string `yaml:"engine"`

	// HistoryFile is where the REPL keeps its line history.
	// Defaults to Home/history
	HistoryFile string `yaml:"history_file"`

	Prompt string `yaml:"prompt"`
}

// DefaultConfig returns the default configuration with environment overrides applied.
func DefaultConfig() *Config {
	home := defaultHome()
	cfg := &Config{
		Home:        home,
		Variant:     VariantBox,
		Engine:      EngineEquations,
		HistoryFile: filepath.Join(home, "history"),
		Prompt:      "lscheme> ",
	}
	cfg.applyEnv()
	return cfg
}

// defaultHome uses LSCHEME_HOME if set, otherwise ~/.lscheme
func defaultHome() string {
	if dir := os.Getenv("LSCHEME_HOME"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".lscheme")
	}
	return filepath.Join(homeDir, ".lscheme")
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LSCHEME_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxDepth = n
		}
	}
	if v := os.Getenv("LSCHEME_ENGINE"); v != "" {
		c.Engine = v
	}
}

// DefaultFile returns the config file read when no explicit path is given.
func (c *Config) DefaultFile() string {
	return filepath.Join(c.Home, "config.yaml")
}

// Load reads the defaults, then overlays the YAML file at path. An empty path
// means Home/config.yaml, which may be absent. Environment variables win over
// the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = cfg.DefaultFile()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		return cfg, nil
	case err != nil:
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, schemeerr.NewParseError("config %s: %v", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown variants and engines and negative depths.
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantBox, VariantSubst:
	default:
		return schemeerr.NewShapeError("unknown variant %q (want %s or %s)", c.Variant, VariantBox, VariantSubst)
	}
	switch c.Engine {
	case EngineEquations, EngineUnify:
	default:
		return schemeerr.NewShapeError("unknown engine %q (want %s or %s)", c.Engine, EngineEquations, EngineUnify)
	}
	if c.MaxDepth < 0 {
		return schemeerr.NewShapeError("max depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}

// EnsureDirs creates the home directory.
func (c *Config) EnsureDirs() error {
	return os.MkdirAll(c.Home, 0755)
}
