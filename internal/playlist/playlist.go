// Package playlist renders and writes the per-title .m3u playlists that
// emulators use to switch discs.
//
// A playlist lives at the root of the library and lists every disc entry of
// one title, relative to the root and sorted by filename:
//
//	multi/Final Fantasy VII/Final Fantasy VII (Disc 1).cue
//	multi/Final Fantasy VII/Final Fantasy VII (Disc 2).cue
package playlist

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/backmassage/multidisc/internal/naming"
)

// Render returns the playlist body for title. names are entry filenames;
// the slice is not modified.
func Render(title string, names []string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	var sb strings.Builder
	for _, name := range sorted {
		sb.WriteString(naming.PlaylistEntry(title, name))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Write creates or truncates <root>/<title>.m3u with the rendered playlist
// and returns its path.
func Write(root, title string, names []string) (string, error) {
	path := naming.PlaylistPath(root, title)
	if err := os.WriteFile(path, []byte(Render(title, names)), 0o644); err != nil {
		return "", fmt.Errorf("write playlist: %w", err)
	}
	return path, nil
}
