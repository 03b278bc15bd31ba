// Package term decides whether console output is colored and paints text
// when it is.
//
// The decision is made once at startup by [Configure], from the configured
// mode and the stream the console output goes to. [Paint] returns its input
// unchanged while colors are off.
package term

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/backmassage/multidisc/internal/config"
)

// Color names one of the bright ANSI foreground colors used on the console.
type Color int

const (
	Red Color = iota
	Green
	Yellow
	Blue
	Cyan
	Magenta
)

// sgr holds the select-graphic-rendition sequence for each Color.
var sgr = [...]string{
	Red:     "\033[1;91m",
	Green:   "\033[1;92m",
	Yellow:  "\033[1;93m",
	Blue:    "\033[1;94m",
	Cyan:    "\033[1;96m",
	Magenta: "\033[1;95m",
}

const reset = "\033[0m"

var enabled bool

// Configure turns colors on or off for the rest of the process. In auto mode
// colors need out to be a terminal, NO_COLOR (https://no-color.org) unset,
// and TERM other than "dumb". It returns the resulting state.
func Configure(mode config.ColorMode, out *os.File) bool {
	switch mode {
	case config.ColorAlways:
		enabled = true
	case config.ColorNever:
		enabled = false
	default:
		enabled = IsTerminal(out) &&
			os.Getenv("NO_COLOR") == "" &&
			!strings.EqualFold(os.Getenv("TERM"), "dumb")
	}
	return enabled
}

// Enabled reports whether colors are on.
func Enabled() bool { return enabled }

// Paint wraps s in c and a reset sequence when colors are on.
func Paint(c Color, s string) string {
	if !enabled || s == "" {
		return s
	}
	return sgr[c] + s + reset
}

// IsTerminal reports whether f is attached to a TTY, including Cygwin/MSYS
// pseudo-terminals.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
