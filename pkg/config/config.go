// Package config layers jsontest settings: built-in defaults, then a
// .jsontest.yaml file, then JSONTEST_* environment variables. Command-line
// flags are applied last by the caller.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = ".jsontest.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JSONTEST_"

// Config holds run settings.
type Config struct {
	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	NoColor     bool          `yaml:"no_color"`
	Verbose     bool          `yaml:"verbose"`
	Diff        string        `yaml:"diff"`
	// HTML, when set, is the path of an HTML failure report.
	HTML string `yaml:"html"`
}

// Default returns the built-in settings: sequential, no timeout, ndiff.
func Default() Config {
	return Config{Concurrency: 1, Diff: "ndiff"}
}

// Load builds the configuration for a run started in dir.
func Load(dir string) (Config, error) {
	cfg := Default()
	if err := LoadFile(filepath.Join(dir, FileName), &cfg); err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile overlays the YAML file at path onto cfg. A missing file is not an
// error; unknown keys are.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays JSONTEST_* variables found through lookup. NO_COLOR, when
// non-empty, also disables colour.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("NO_COLOR"); ok && v != "" {
		cfg.NoColor = true
	}
	for _, f := range []struct {
		name  string
		apply func(string) error
	}{
		{"TIMEOUT", func(v string) (err error) { cfg.Timeout, err = time.ParseDuration(v); return }},
		{"CONCURRENCY", func(v string) (err error) { cfg.Concurrency, err = strconv.Atoi(v); return }},
		{"NO_COLOR", func(v string) (err error) { cfg.NoColor, err = strconv.ParseBool(v); return }},
		{"VERBOSE", func(v string) (err error) { cfg.Verbose, err = strconv.ParseBool(v); return }},
		{"DIFF", func(v string) error { cfg.Diff = v; return nil }},
		{"HTML", func(v string) error { cfg.HTML = v; return nil }},
	} {
		v, ok := lookup(EnvPrefix + f.name)
		if !ok || v == "" {
			continue
		}
		if err := f.apply(v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, f.name, err)
		}
	}
	return nil
}

// Validate rejects settings no run can use.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	return nil
}

// LoadDotEnv reads KEY=VALUE lines from path and sets the variables that
// are not already set. Blank lines and # comments are skipped, and
// surrounding quotes are removed from values. A missing file is ignored.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
	return scanner.Err()
}
