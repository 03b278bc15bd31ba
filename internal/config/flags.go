package config

// This file binds CLI flags onto a pflag.FlagSet and folds them into Config.
// Flags are captured into a Flags value first and applied after Parse, and
// only when the user actually set them, so file and environment values hold
// unless overridden on the command line.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Flags holds raw flag values prior to [ApplyFlags].
type Flags struct {
	ConfigPath string
	DryRun     bool
	Verbose    bool
	LogFile    string
	Color      colorModeValue
	forceColor bool
	noColor    bool
	summary    bool
	noSummary  bool
}

// BindFlags registers every multidisc flag on fs.
func BindFlags(fs *pflag.FlagSet, f *Flags) {
	f.Color = colorModeValue{p: new(ColorMode)}

	fs.StringVarP(&f.ConfigPath, "config", "c", "", "TOML configuration file")
	fs.BoolVarP(&f.DryRun, "dry-run", "n", false, "Preview moves and playlists without touching the filesystem")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "Verbose output")
	fs.StringVarP(&f.LogFile, "log", "l", "", "Append logs to file")
	fs.Var(&f.Color, "color-mode", "Color mode: auto | always | never")
	fs.BoolVar(&f.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&f.summary, "summary", false, "Print a per-title summary table (default: on)")
	fs.BoolVar(&f.noSummary, "no-summary", false, "Do not print the summary table")
}

// ApplyFlags copies flags the user set on fs into cfg.
func ApplyFlags(cfg *Config, fs *pflag.FlagSet, f *Flags) {
	if fs.Changed("dry-run") {
		cfg.DryRun = f.DryRun
	}
	if fs.Changed("verbose") {
		cfg.Verbose = f.Verbose
	}
	if fs.Changed("log") {
		cfg.LogFile = f.LogFile
	}
	if fs.Changed("color-mode") {
		cfg.ColorMode = *f.Color.p
	}
	if f.noColor {
		cfg.ColorMode = ColorNever
	} else if f.forceColor {
		cfg.ColorMode = ColorAlways
	}
	if f.noSummary {
		cfg.ShowSummary = false
	} else if f.summary {
		cfg.ShowSummary = true
	}
}

// colorModeValue adapts ColorMode to pflag.Value.
type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string {
	if c.p == nil {
		return ""
	}
	return string(*c.p)
}

func (c *colorModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		*c.p = ColorAuto
	case "always":
		*c.p = ColorAlways
	case "never":
		*c.p = ColorNever
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
	}
	return nil
}

func (c *colorModeValue) Type() string { return "mode" }
