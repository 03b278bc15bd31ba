package display

import (
	"fmt"
	"io"

	"github.com/backmassage/multidisc/internal/term"
)

// PrintBanner writes the ASCII art banner in magenta. It prints nothing when
// colors are disabled so piped output stays plain.
func PrintBanner(w io.Writer, version string) {
	if !term.Enabled() {
		return
	}
	art := `                 _ _   _     _ _
 _ __ ___  _   _| | |_(_) __| (_)___  ___
| '_ ` + "`" + ` _ \| | | | | __| |/ _` + "`" + ` | / __|/ __|
| | | | | | |_| | | |_| | (_| | \__ \ (__
|_| |_| |_|\__,_|_|\__|_|\__,_|_|___/\___|`
	fmt.Fprintf(w, "%s\n  %s\n\n", term.Paint(term.Magenta, art), version)
}
