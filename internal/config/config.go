// Package config holds runtime configuration: defaults, an optional TOML
// file, environment overrides, CLI flag binding, and validation.
//
// Precedence, lowest to highest: [DefaultConfig], TOML file, environment
// (including a .env file in the working directory), command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// ErrMissingRoot is returned by [Config.Validate] when no ROM directory was given.
var ErrMissingRoot = errors.New("need exactly one roms_directory argument")

// Environment variable names consulted by [Load].
const (
	EnvColor   = "MULTIDISC_COLOR"
	EnvLogFile = "MULTIDISC_LOG_FILE"
	EnvVerbose = "MULTIDISC_VERBOSE"
	EnvDryRun  = "MULTIDISC_DRY_RUN"
)

// Config holds all runtime settings. Recognized entry extensions are fixed
// in the pipeline package and deliberately absent here.
type Config struct {
	// RootDir is the directory to reorganize (positional argument).
	RootDir string `toml:"-"`

	// ConfigFile is the TOML file that was loaded, if any.
	ConfigFile string `toml:"-"`

	// Behavior.
	DryRun bool `toml:"dry_run"`

	// Display and logging.
	Verbose     bool      `toml:"verbose"`
	ColorMode   ColorMode `toml:"color"`
	LogFile     string    `toml:"log_file"`
	ShowSummary bool      `toml:"summary"` // Default: true.
}

// DefaultConfig returns a Config with built-in defaults.
func DefaultConfig() Config {
	return Config{
		DryRun:      false,
		Verbose:     false,
		ColorMode:   ColorAuto,
		ShowSummary: true,
	}
}

// Load builds a Config from defaults, the TOML file at path (or the default
// search locations when path is empty), and the environment. A missing file
// at an explicit path is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return cfg, err
	}
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return cfg, err
		}
		cfg.ConfigFile = resolved
	}

	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ColorMode = ColorMode(strings.ToLower(strings.TrimSpace(string(cfg.ColorMode))))
	if cfg.LogFile != "" {
		expanded, err := ExpandPath(cfg.LogFile)
		if err != nil {
			return err
		}
		cfg.LogFile = expanded
	}
	return nil
}

// applyEnv overlays MULTIDISC_* variables onto cfg. Empty values are ignored.
func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvColor)); v != "" {
		cfg.ColorMode = ColorMode(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		expanded, err := ExpandPath(v)
		if err != nil {
			return err
		}
		cfg.LogFile = expanded
	}
	if v := strings.TrimSpace(os.Getenv(EnvVerbose)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean (got %q)", EnvVerbose, v)
		}
		cfg.Verbose = b
	}
	if v := strings.TrimSpace(os.Getenv(EnvDryRun)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean (got %q)", EnvDryRun, v)
		}
		cfg.DryRun = b
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	candidates := []string{"multidisc.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append([]string{filepath.Join(home, ".config", "multidisc", "config.toml")}, candidates...)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// ExpandPath expands a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and that a root directory was supplied.
// It does not touch the filesystem; see the check package for that.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}
	if c.RootDir == "" {
		return ErrMissingRoot
	}
	return nil
}
