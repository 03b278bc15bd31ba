// Package naming derives grouping titles from disc filenames and builds the
// paths a title owns under the ROM root.
//
// Types:
//   - DestinationLedger: in-run record of which source claimed which
//     destination path.
//
// Functions:
//   - NormalizeTitle(stem) → title
//     Strips a trailing "disc N" marker, optionally parenthesized,
//     case-insensitive, then trims whitespace.
//   - MultiDir(root), GameDir(root, title), PlaylistPath(root, title),
//     PlaylistEntry(title, filename)
//     Layout: <root>/multi/<title>/<filename> and <root>/<title>.m3u.
package naming
