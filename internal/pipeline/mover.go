package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/backmassage/multidisc/internal/cue"
	"github.com/backmassage/multidisc/internal/naming"
)

type moveOutcome int

const (
	outcomeMoved moveOutcome = iota
	outcomeInPlace
	outcomeOccupied
)

// mover relocates files with os.Rename only. In dry-run mode it touches
// nothing on disk and replays every move into the ledger instead.
type mover struct {
	root    string
	dryRun  bool
	verbose bool
	log     Logger
	ledger  *naming.DestinationLedger
	stats   *RunStats
}

func (m *mover) ensureDir(dir string) error {
	if m.dryRun {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return nil
}

// moveEntries is phase 1 for one title: every entry file goes into the
// title's game directory.
func (m *mover) moveEntries(ctx context.Context, title string, entries []Entry, rep *TitleReport) error {
	gameDir := naming.GameDir(m.root, title)
	if err := m.ensureDir(gameDir); err != nil {
		return err
	}

	for _, e := range entries {
		dst := filepath.Join(gameDir, e.Name)
		size := m.size(e.Path)
		outcome, err := m.relocate(ctx, e.Path, dst)
		if err != nil {
			return err
		}
		switch outcome {
		case outcomeMoved:
			m.stats.Moved++
			m.stats.BytesMoved += size
			rep.Moved++
			m.log.Debug(m.verbose, "Moved %s -> %s", e.Path, dst)
		case outcomeInPlace:
			m.stats.InPlace++
			m.log.Debug(m.verbose, "Already in place: %s", dst)
		case outcomeOccupied:
			m.stats.Skipped++
			m.log.Debug(m.verbose, "Skip (exists): %s", dst)
		}
	}
	return nil
}

// moveReferences is phase 2 for one title: every file a .cue entry
// references follows the cue sheet from its original directory.
func (m *mover) moveReferences(ctx context.Context, title string, entries []Entry, rep *TitleReport) error {
	gameDir := naming.GameDir(m.root, title)

	for _, e := range entries {
		if !e.IsCue() {
			continue
		}
		sheet := m.descriptorPath(filepath.Join(gameDir, e.Name))
		refs, err := cue.ReferencedFiles(sheet)
		if err != nil {
			return err
		}

		for _, ref := range refs {
			src := joinRef(e.Dir, ref)
			dst := joinRef(gameDir, ref)
			if !m.exists(src) {
				m.stats.RefsMissing++
				rep.RefsMissing++
				m.log.Warn("missing referenced file: %s", src)
				continue
			}
			size := m.size(src)
			outcome, err := m.relocate(ctx, src, dst)
			if err != nil {
				return err
			}
			if outcome == outcomeMoved {
				m.stats.RefsMoved++
				m.stats.BytesMoved += size
				rep.RefsMoved++
				m.log.Debug(m.verbose, "Moved %s -> %s", src, dst)
			}
		}
	}
	return nil
}

// relocate renames src to dst unless both already name the same file or
// dst is occupied. The context is checked before every rename.
func (m *mover) relocate(ctx context.Context, src, dst string) (moveOutcome, error) {
	if samePath(src, dst) {
		return outcomeInPlace, nil
	}
	if m.exists(dst) {
		return outcomeOccupied, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !m.dryRun {
		if err := os.Rename(src, dst); err != nil {
			return 0, fmt.Errorf("move %s: %w", src, err)
		}
	}
	m.ledger.Claim(src, dst)
	return outcomeMoved, nil
}

// exists reports whether path holds a file. A real run asks the disk; a dry
// run overlays the moves it has simulated so far.
func (m *mover) exists(path string) bool {
	if m.dryRun {
		if m.ledger.Vacated(path) {
			return false
		}
		if _, ok := m.ledger.Owner(path); ok {
			return true
		}
	}
	_, err := os.Stat(path)
	return err == nil
}

// descriptorPath returns where a cue sheet expected at dst can be read. In a
// dry run a simulated move left the sheet at its source.
func (m *mover) descriptorPath(dst string) string {
	if !m.dryRun {
		return dst
	}
	if src, ok := m.ledger.Owner(dst); ok {
		return src
	}
	return dst
}

func (m *mover) size(path string) int64 {
	if m.dryRun {
		if origin, ok := m.ledger.Owner(path); ok {
			path = origin
		}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// joinRef resolves a cue reference against dir. An absolute reference is
// used as written, so its source and destination coincide.
func joinRef(dir, ref string) string {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	return filepath.Join(dir, ref)
}

// samePath reports whether a and b resolve to the same location. Paths that
// do not exist yet resolve through their parent directory.
func samePath(a, b string) bool {
	return resolvePath(a) == resolvePath(b)
}

func resolvePath(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(p)); err == nil {
		return filepath.Join(dir, filepath.Base(p))
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// isCanceled reports whether err came from a canceled or expired run context.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
