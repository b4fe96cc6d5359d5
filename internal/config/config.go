// Package config loads census.toml, the optional per-project settings
// file discovered by walking up from the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"census/internal/diag"
)

// FileName is the settings file census looks for.
const FileName = "census.toml"

// Config is the parsed settings file with defaults applied.
type Config struct {
	Report   ReportConfig   `toml:"report"`
	Severity SeverityConfig `toml:"severity"`
	Units    UnitsConfig    `toml:"units"`
	Output   OutputConfig   `toml:"output"`
}

type ReportConfig struct {
	// HeaderRepeat re-inserts the table header every N package rows.
	HeaderRepeat int `toml:"header_repeat"`
}

type SeverityConfig struct {
	// Min is the lowest severity recorded into summaries.
	Min string `toml:"min"`
}

type UnitsConfig struct {
	// SystemSchemes lists the identifier schemes treated as
	// platform-provided.
	SystemSchemes []string `toml:"system_schemes"`
}

type OutputConfig struct {
	// Color is auto, on or off.
	Color string `toml:"color"`
}

// Default returns the configuration used when no census.toml exists.
func Default() Config {
	return Config{
		Severity: SeverityConfig{Min: "info"},
		Units:    UnitsConfig{SystemSchemes: []string{"dart"}},
		Output:   OutputConfig{Color: "auto"},
	}
}

// MinSeverity returns the parsed severity threshold.
func (c Config) MinSeverity() diag.Severity {
	sev, ok := diag.ParseSeverity(c.Severity.Min)
	if !ok {
		return diag.SevInfo
	}
	return sev
}

// Find walks up from startDir looking for census.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses and validates a settings file. Omitted keys keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := validate(path, cfg, meta); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Discover finds, loads and validates the nearest settings file, or
// returns defaults when none exists.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func validate(path string, cfg Config, meta toml.MetaData) error {
	if meta.IsDefined("severity", "min") {
		if _, ok := diag.ParseSeverity(cfg.Severity.Min); !ok {
			return fmt.Errorf("%s: [severity].min %q is not info, warning or error", path, cfg.Severity.Min)
		}
	}
	if meta.IsDefined("output", "color") {
		switch strings.ToLower(strings.TrimSpace(cfg.Output.Color)) {
		case "auto", "on", "off":
		default:
			return fmt.Errorf("%s: [output].color %q is not auto, on or off", path, cfg.Output.Color)
		}
	}
	if cfg.Report.HeaderRepeat < 0 {
		return fmt.Errorf("%s: [report].header_repeat must not be negative", path)
	}
	for _, s := range cfg.Units.SystemSchemes {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s: [units].system_schemes contains an empty scheme", path)
		}
	}
	return nil
}
