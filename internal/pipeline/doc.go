// Package pipeline groups multi-disc ROM images by title and relocates them
// into per-game directories.
//
// Types:
//   - Entry: one scanned disc entry file (.chd, .cue, .ccd, .toc)
//   - Catalog: title → entries, keyed in first-discovery order
//   - RunStats / TitleReport: aggregate and per-title counters
//   - Logger: the leveled logger the run reports through
//
// Functions:
//   - Scan(root) → *Catalog
//     Recursive walk, regular files only, grouped by normalized title.
//   - Run(ctx, cfg, log) → RunStats
//     Scan → phase 1 (entry files) for every title → phase 2 (.cue
//     data files) for every title → one playlist per title.
//
// Phase 2 never starts before phase 1 has finished for all titles, so a
// descriptor is always read from its post-move location.
package pipeline
