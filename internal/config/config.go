// Package config resolves compiler settings from defaults, an optional YAML
// file and LCL_* environment variables. Command-line flags are applied last
// by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"github.com/xyproto/env/v2"
)

const (
	DefaultMemCapacity = 262144
	DefaultAssembler   = "as"
	DefaultLinker      = "ld"
	DefaultLogLevel    = "warn"
	DefaultPrompt      = "> "
)

// Config holds every tunable of the compiler and the shell.
type Config struct {
	MemCapacity int
	Assembler   string
	Linker      string
	Timeout     time.Duration
	LogLevel    string
	Prompt      string
	Color       bool
}

// fileConfig mirrors the YAML file. Absent keys leave the current value.
type fileConfig struct {
	MemCapacity *int    `yaml:"mem_capacity"`
	Assembler   *string `yaml:"assembler"`
	Linker      *string `yaml:"linker"`
	Timeout     *string `yaml:"timeout"`
	LogLevel    *string `yaml:"log_level"`
	Prompt      *string `yaml:"prompt"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MemCapacity: DefaultMemCapacity,
		Assembler:   DefaultAssembler,
		Linker:      DefaultLinker,
		LogLevel:    DefaultLogLevel,
		Prompt:      DefaultPrompt,
		Color:       true,
	}
}

// Load layers the file at path (skipped when path is empty) and then the
// environment over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.applyYAML(data); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyYAML(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if fc.MemCapacity != nil {
		c.MemCapacity = *fc.MemCapacity
	}
	if fc.Assembler != nil {
		c.Assembler = *fc.Assembler
	}
	if fc.Linker != nil {
		c.Linker = *fc.Linker
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", *fc.Timeout, err)
		}
		c.Timeout = d
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.Prompt != nil {
		c.Prompt = *fc.Prompt
	}
	return nil
}

func (c *Config) applyEnv() error {
	env.Load()
	c.MemCapacity = env.Int("LCL_MEM_CAPACITY", c.MemCapacity)
	c.Assembler = env.Str("LCL_ASSEMBLER", c.Assembler)
	c.Linker = env.Str("LCL_LINKER", c.Linker)
	c.LogLevel = env.Str("LCL_LOG_LEVEL", c.LogLevel)
	c.Prompt = env.Str("LCL_PROMPT", c.Prompt)
	if env.Has("LCL_TIMEOUT") {
		raw := env.Str("LCL_TIMEOUT")
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid LCL_TIMEOUT %q: %w", raw, err)
		}
		c.Timeout = d
	}
	if env.Has("NO_COLOR") {
		c.Color = false
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.MemCapacity <= 0:
		return fmt.Errorf("mem_capacity must be positive, got %d", c.MemCapacity)
	case c.Assembler == "":
		return errors.New("assembler must not be empty")
	case c.Linker == "":
		return errors.New("linker must not be empty")
	case c.Timeout < 0:
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level is the parsed log level. Call Validate first.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.WarnLevel
	}
	return lvl
}
