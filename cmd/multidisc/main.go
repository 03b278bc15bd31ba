// Command multidisc groups multi-disc ROM images into per-game directories
// under multi/ and writes one .m3u playlist per title at the library root.
//
// It parses flags, loads configuration, validates the root directory, takes
// the per-root run lock, and runs the two-phase move followed by playlist
// generation.
package main

import (
	"os"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
