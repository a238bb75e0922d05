// Package config loads the optional eventcore.yaml player configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the game directory.
const FileName = "eventcore.yaml"

// Config holds player settings. Zero values are replaced by Default.
type Config struct {
	LogLevel       string `yaml:"log_level"`
	TickRate       int    `yaml:"tick_rate"`
	IterationLimit int    `yaml:"iteration_limit"`
	DepthWarning   int    `yaml:"depth_warning"`
	MoveFrames     int    `yaml:"move_frames"`
	Encoding       string `yaml:"encoding"`
	SaveDir        string `yaml:"save_dir"`
	Seed           int64  `yaml:"seed"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:       "warn",
		TickRate:       60,
		IterationLimit: 10000,
		DepthWarning:   100,
		MoveFrames:     8,
		Encoding:       "utf-8",
		SaveDir:        ".",
		Seed:           1,
	}
}

// ValidationError aggregates configuration failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads path. A missing file yields Default with no error.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// LoadDir reads FileName from a game directory.
func LoadDir(dir string) (Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Decode parses YAML, rejecting unknown keys, and fills unset fields from
// Default before validating.
func Decode(r io.Reader) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	c.fill(Default())
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) fill(d Config) {
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.TickRate == 0 {
		c.TickRate = d.TickRate
	}
	if c.IterationLimit == 0 {
		c.IterationLimit = d.IterationLimit
	}
	if c.DepthWarning == 0 {
		c.DepthWarning = d.DepthWarning
	}
	if c.MoveFrames == 0 {
		c.MoveFrames = d.MoveFrames
	}
	if c.Encoding == "" {
		c.Encoding = d.Encoding
	}
	if c.SaveDir == "" {
		c.SaveDir = d.SaveDir
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
}

func (c *Config) validate() error {
	var errs ValidationError
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("log_level %q must be debug, info, warn or error", c.LogLevel))
	}
	if c.TickRate < 1 || c.TickRate > 240 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("tick_rate %d out of range 1..240", c.TickRate))
	}
	if c.IterationLimit < 1 {
		errs.Issues = append(errs.Issues, "iteration_limit must be positive")
	}
	if c.DepthWarning < 1 {
		errs.Issues = append(errs.Issues, "depth_warning must be positive")
	}
	if c.MoveFrames < 1 {
		errs.Issues = append(errs.Issues, "move_frames must be positive")
	}
	switch c.Encoding {
	case "utf-8", "shift_jis":
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("encoding %q must be utf-8 or shift_jis", c.Encoding))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}
