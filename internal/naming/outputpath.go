package naming

import "path/filepath"

// MultiDirName is the directory under the root that holds every game directory.
const MultiDirName = "multi"

// PlaylistExt is the extension of per-title playlists.
const PlaylistExt = ".m3u"

// MultiDir returns <root>/multi.
func MultiDir(root string) string {
	return filepath.Join(root, MultiDirName)
}

// GameDir returns <root>/multi/<title>.
func GameDir(root, title string) string {
	return filepath.Join(root, MultiDirName, title)
}

// PlaylistPath returns <root>/<title>.m3u.
func PlaylistPath(root, title string) string {
	return filepath.Join(root, title+PlaylistExt)
}

// PlaylistEntry returns the playlist line for a file, relative to the root:
//
//	multi/<title>/<filename>
//
// The line is built literally with forward slashes and is not cleaned.
func PlaylistEntry(title, filename string) string {
	return MultiDirName + "/" + title + "/" + filename
}
