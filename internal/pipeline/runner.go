package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/backmassage/multidisc/internal/config"
	"github.com/backmassage/multidisc/internal/display"
	"github.com/backmassage/multidisc/internal/naming"
	"github.com/backmassage/multidisc/internal/playlist"
)

// Logger is the subset of logging.Logger a run reports through.
type Logger interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Debug(verbose bool, format string, args ...interface{})
}

// Run is the top-level entry point. It scans cfg.RootDir, moves every entry
// file (phase 1) for all titles, then every file referenced by a moved cue
// sheet (phase 2) for all titles, and finally writes one playlist per title.
//
// I/O failures stop the run and are returned; the stats gathered so far are
// returned alongside. A canceled ctx stops the run before the next rename.
func Run(ctx context.Context, cfg *config.Config, log Logger) (RunStats, error) {
	var stats RunStats

	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return stats, fmt.Errorf("resolve root: %w", err)
	}

	cat, err := Scan(root)
	if err != nil {
		return stats, err
	}

	for _, dir := range cat.Unreadable {
		log.Warn("skipping unreadable directory: %s", dir)
	}

	titles := cat.Titles()
	stats.Titles = cat.Len()
	stats.Entries = cat.TotalEntries()
	stats.Reports = make([]TitleReport, len(titles))
	for i, title := range titles {
		stats.Reports[i] = TitleReport{Title: title, Discs: len(cat.Entries(title))}
	}
	logRunHeader(cfg, log, root, &stats)

	m := &mover{
		root:    root,
		dryRun:  cfg.DryRun,
		verbose: cfg.Verbose,
		log:     log,
		ledger:  naming.NewDestinationLedger(),
		stats:   &stats,
	}
	if err := m.ensureDir(naming.MultiDir(root)); err != nil {
		return stats, err
	}

	for i, title := range titles {
		if err := m.moveEntries(ctx, title, cat.Entries(title), &stats.Reports[i]); err != nil {
			return stats, interrupted(log, err)
		}
	}

	for i, title := range titles {
		if err := m.moveReferences(ctx, title, cat.Entries(title), &stats.Reports[i]); err != nil {
			return stats, interrupted(log, err)
		}
	}

	for i, title := range titles {
		if err := writePlaylist(cfg, log, root, title, cat.Entries(title), &stats.Reports[i]); err != nil {
			return stats, err
		}
		stats.Playlists++
	}

	logSummary(cfg, log, &stats)
	return stats, nil
}

func writePlaylist(cfg *config.Config, log Logger, root, title string, entries []Entry, rep *TitleReport) error {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	path := naming.PlaylistPath(root, title)
	rep.Playlist = filepath.Base(path)
	if cfg.DryRun {
		log.Debug(cfg.Verbose, "[DRY] Would write %s", path)
		return nil
	}
	if _, err := playlist.Write(root, title, names); err != nil {
		return err
	}
	log.Debug(cfg.Verbose, "Wrote %s (%d entries)", path, len(names))
	return nil
}

func interrupted(log Logger, err error) error {
	if isCanceled(err) {
		log.Warn("Interrupted; already moved files stay in place, rerun to resume")
	}
	return err
}

// --- Logging helpers ---

func logRunHeader(cfg *config.Config, log Logger, root string, stats *RunStats) {
	log.Info("Root: %s", root)
	log.Info("Found %d disc entries across %d titles", stats.Entries, stats.Titles)
	if cfg.DryRun {
		log.Info("Dry run: nothing will be moved or written")
	}
}

func logSummary(cfg *config.Config, log Logger, stats *RunStats) {
	prefix := ""
	if cfg.DryRun {
		prefix = "[DRY] "
	}
	log.Info("==============================")
	log.Success("%sDone: %d entries moved, %d already in place, %d skipped",
		prefix, stats.Moved, stats.InPlace, stats.Skipped)
	log.Info("  Referenced files moved: %d", stats.RefsMoved)
	if stats.RefsMissing > 0 {
		log.Warn("  Referenced files missing: %d", stats.RefsMissing)
	}
	log.Info("  Playlists: %d", stats.Playlists)
	log.Info("  Data relocated: %s", display.FormatBytes(stats.BytesMoved))
	if stats.Titles > 0 && !stats.Changed() {
		log.Info("  Library already organized")
	}
}
