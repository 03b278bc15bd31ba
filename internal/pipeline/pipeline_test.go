package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/multidisc/internal/config"
)

// --- Scan tests ---

func TestScan_GroupsByTitle(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "FF7 (Disc 1).cue", "")
	touch(t, root, "FF7 (Disc 2).cue", "")
	touch(t, root, "FF7 (Disc 1).bin", "")
	touch(t, root, "Crash.chd", "")
	touch(t, root, "X.CUE", "")
	touch(t, root, "readme.txt", "")
	touch(t, root, "Crash.m3u", "")
	touch(t, root, ".cue", "")
	touch(t, filepath.Join(root, "sub"), "Other (Disc 1).ccd", "")
	touch(t, filepath.Join(root, "sub"), "Other (Disc 2).toc", "")

	cat, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	wantTitles := []string{"Crash", "FF7", "X", "Other"}
	if got := cat.Titles(); !sliceEqual(got, wantTitles) {
		t.Errorf("Titles = %v, want %v", got, wantTitles)
	}
	if got := cat.TotalEntries(); got != 6 {
		t.Errorf("TotalEntries = %d, want 6", got)
	}
	if got := basenames(cat.Entries("FF7")); !sliceEqual(got, []string{"FF7 (Disc 1).cue", "FF7 (Disc 2).cue"}) {
		t.Errorf("FF7 entries = %v", got)
	}
	x := cat.Entries("X")
	if len(x) != 1 || x[0].Ext != ".cue" || !x[0].IsCue() {
		t.Errorf("X entries = %+v, want one .cue entry", x)
	}
	other := cat.Entries("Other")
	if len(other) != 2 || other[0].Dir != filepath.Join(root, "sub") {
		t.Errorf("Other entries = %+v", other)
	}
}

func TestScan_GroupingIsComplete(t *testing.T) {
	root := t.TempDir()
	names := []string{
		"A (Disc 1).chd", "A (Disc 2).chd", "A disc3.chd",
		"B.cue", "B (DISC 2).cue", "Disc 1.ccd", "C (Disc 1) (Disc 2).toc",
	}
	for _, n := range names {
		touch(t, root, n, "")
	}

	cat, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	seen := make(map[string]int)
	for _, title := range cat.Titles() {
		for _, e := range cat.Entries(title) {
			seen[e.Name]++
		}
	}
	for _, n := range names {
		if seen[n] != 1 {
			t.Errorf("%s grouped %d times, want exactly once", n, seen[n])
		}
	}
	if got := len(cat.Entries("A")); got != 3 {
		t.Errorf("A has %d entries, want 3", got)
	}
	if got := len(cat.Entries("")); got != 1 {
		t.Errorf("empty title has %d entries, want 1", got)
	}
}

func TestScan_SymlinkedFile(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	touch(t, elsewhere, "Game.chd", "data")
	if err := os.Symlink(filepath.Join(elsewhere, "Game.chd"), filepath.Join(root, "Game.chd")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(elsewhere, "absent.chd"), filepath.Join(root, "Broken.chd")); err != nil {
		t.Fatal(err)
	}

	cat, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := cat.Titles(); !sliceEqual(got, []string{"Game"}) {
		t.Errorf("Titles = %v, want [Game] (broken links are not files)", got)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Scan should fail on a missing root")
	}
}

// --- Run scenarios ---

func TestRun_TwoDiscScenario(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Final Fantasy VII (Disc 1).cue", cueSheet("Final Fantasy VII (Disc 1).bin"))
	touch(t, root, "Final Fantasy VII (Disc 1).bin", "disc one")
	touch(t, root, "Final Fantasy VII (Disc 2).cue", cueSheet("Final Fantasy VII (Disc 2).bin"))
	touch(t, root, "Final Fantasy VII (Disc 2).bin", "disc two")

	log := &recordLogger{}
	stats, err := Run(context.Background(), testConfig(root), log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := map[string]string{
		"Final Fantasy VII.m3u": "multi/Final Fantasy VII/Final Fantasy VII (Disc 1).cue\n" +
			"multi/Final Fantasy VII/Final Fantasy VII (Disc 2).cue\n",
		"multi/Final Fantasy VII/Final Fantasy VII (Disc 1).cue": cueSheet("Final Fantasy VII (Disc 1).bin"),
		"multi/Final Fantasy VII/Final Fantasy VII (Disc 1).bin": "disc one",
		"multi/Final Fantasy VII/Final Fantasy VII (Disc 2).cue": cueSheet("Final Fantasy VII (Disc 2).bin"),
		"multi/Final Fantasy VII/Final Fantasy VII (Disc 2).bin": "disc two",
	}
	assertTree(t, root, want)

	if stats.Titles != 1 || stats.Moved != 2 || stats.RefsMoved != 2 || stats.Playlists != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.BytesMoved <= int64(len("disc one")+len("disc two")) {
		t.Errorf("BytesMoved = %d, want cue and bin sizes", stats.BytesMoved)
	}
	if w := log.warnings(); len(w) != 0 {
		t.Errorf("unexpected warnings: %v", w)
	}
	if !stats.Changed() {
		t.Error("Changed() = false after moving files")
	}
	if len(stats.Reports) != 1 || stats.Reports[0].Discs != 2 || stats.Reports[0].Playlist != "Final Fantasy VII.m3u" {
		t.Errorf("Reports = %+v", stats.Reports)
	}
}

func TestRun_MissingDependent(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Game.cue", cueSheet("Game.bin"))

	log := &recordLogger{}
	stats, err := Run(context.Background(), testConfig(root), log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	assertTree(t, root, map[string]string{
		"Game.m3u":            "multi/Game/Game.cue\n",
		"multi/Game/Game.cue": cueSheet("Game.bin"),
	})
	want := "missing referenced file: " + filepath.Join(root, "Game.bin")
	if w := log.warnings(); len(w) != 1 || w[0] != want {
		t.Errorf("warnings = %v, want [%q]", w, want)
	}
	if stats.RefsMissing != 1 {
		t.Errorf("RefsMissing = %d, want 1", stats.RefsMissing)
	}
}

func TestRun_SingleDisc(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Crash Bandicoot.chd", "chd")

	if _, err := Run(context.Background(), testConfig(root), &recordLogger{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertTree(t, root, map[string]string{
		"Crash Bandicoot.m3u":                       "multi/Crash Bandicoot/Crash Bandicoot.chd\n",
		"multi/Crash Bandicoot/Crash Bandicoot.chd": "chd",
	})
}

func TestRun_NestedSourceDirectory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "psx", "rpg")
	touch(t, sub, "Xenogears (Disc 1).cue", cueSheet("Xenogears (Disc 1).bin"))
	touch(t, sub, "Xenogears (Disc 1).bin", "one")
	touch(t, sub, "Xenogears (Disc 2).chd", "two")

	if _, err := Run(context.Background(), testConfig(root), &recordLogger{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertTree(t, root, map[string]string{
		"Xenogears.m3u": "multi/Xenogears/Xenogears (Disc 1).cue\n" +
			"multi/Xenogears/Xenogears (Disc 2).chd\n",
		"multi/Xenogears/Xenogears (Disc 1).cue": cueSheet("Xenogears (Disc 1).bin"),
		"multi/Xenogears/Xenogears (Disc 1).bin": "one",
		"multi/Xenogears/Xenogears (Disc 2).chd": "two",
	})
}

func TestRun_MultiTrackCue(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Wipeout.cue", cueSheet("Wipeout (Track 1).bin", "Wipeout (Track 2).bin"))
	touch(t, root, "Wipeout (Track 1).bin", "data")
	touch(t, root, "Wipeout (Track 2).bin", "audio")

	stats, err := Run(context.Background(), testConfig(root), &recordLogger{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RefsMoved != 2 {
		t.Errorf("RefsMoved = %d, want 2", stats.RefsMoved)
	}
	assertTree(t, root, map[string]string{
		"Wipeout.m3u":                         "multi/Wipeout/Wipeout.cue\n",
		"multi/Wipeout/Wipeout.cue":           cueSheet("Wipeout (Track 1).bin", "Wipeout (Track 2).bin"),
		"multi/Wipeout/Wipeout (Track 1).bin": "data",
		"multi/Wipeout/Wipeout (Track 2).bin": "audio",
	})
}

func TestRun_Idempotent(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Final Fantasy VII (Disc 1).cue", cueSheet("Final Fantasy VII (Disc 1).bin"))
	touch(t, root, "Final Fantasy VII (Disc 1).bin", "one")
	touch(t, root, "Final Fantasy VII (Disc 2).cue", cueSheet("Final Fantasy VII (Disc 2).bin"))
	touch(t, root, "Final Fantasy VII (Disc 2).bin", "two")
	touch(t, root, "Crash.chd", "crash")

	if _, err := Run(context.Background(), testConfig(root), &recordLogger{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := snapshot(t, root)

	log := &recordLogger{}
	stats, err := Run(context.Background(), testConfig(root), log)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second := snapshot(t, root)

	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Errorf("tree changed on second run:\nfirst:  %v\nsecond: %v", first, second)
	}
	if stats.Moved != 0 || stats.RefsMoved != 0 || stats.InPlace != 3 {
		t.Errorf("second run stats = %+v, want everything in place", stats)
	}
	if w := log.warnings(); len(w) != 0 {
		t.Errorf("second run warnings: %v", w)
	}
	if stats.Changed() || !log.has("INFO   Library already organized") {
		t.Errorf("second run should report an organized library: %v", log.lines)
	}
}

func TestRun_OccupiedDestination(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Game.chd", "new")
	touch(t, filepath.Join(root, "multi", "Game"), "Game.chd", "old")

	stats, err := Run(context.Background(), testConfig(root), &recordLogger{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Skipped != 1 || stats.Moved != 0 {
		t.Errorf("stats = %+v, want one skipped entry", stats)
	}
	tree := snapshot(t, root)
	if tree["Game.chd"] != "new" || tree["multi/Game/Game.chd"] != "old" {
		t.Errorf("occupied destination was overwritten: %v", tree)
	}
}

func TestRun_SharedReferenceWarnsOnce(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Game (Disc 1).cue", cueSheet("Game.bin"))
	touch(t, root, "Game (Disc 2).cue", cueSheet("Game.bin"))
	touch(t, root, "Game.bin", "shared")

	log := &recordLogger{}
	stats, err := Run(context.Background(), testConfig(root), log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RefsMoved != 1 || stats.RefsMissing != 1 {
		t.Errorf("stats = %+v, want one moved and one missing reference", stats)
	}
	if w := log.warnings(); len(w) != 1 {
		t.Errorf("warnings = %v, want one", w)
	}
	if got := snapshot(t, root)["multi/Game/Game.bin"]; got != "shared" {
		t.Errorf("multi/Game/Game.bin = %q", got)
	}
}

func TestRun_ReferenceAlreadyMovedOnWarns(t *testing.T) {
	// T.chd lands in multi/T in phase 1, the first cue sheet from multi/T
	// takes it onward in phase 2, and the second finds it gone.
	layout := func(t *testing.T) string {
		root := t.TempDir()
		touch(t, root, "T.chd", "disc")
		touch(t, filepath.Join(root, "multi", "T"), "Q.cue", cueSheet("T.chd"))
		touch(t, filepath.Join(root, "multi", "T"), "R.cue", cueSheet("T.chd"))
		return root
	}

	for _, dryRun := range []bool{false, true} {
		t.Run(fmt.Sprintf("dry=%v", dryRun), func(t *testing.T) {
			root := layout(t)
			cfg := testConfig(root)
			cfg.DryRun = dryRun
			log := &recordLogger{}

			stats, err := Run(context.Background(), cfg, log)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if stats.RefsMoved != 1 || stats.RefsMissing != 1 || stats.Playlists != 3 {
				t.Errorf("stats = %+v, want one moved and one missing reference, three playlists", stats)
			}
			if stats.BytesMoved != int64(len("disc")+2*len(cueSheet("T.chd"))+len("disc")) {
				t.Errorf("BytesMoved = %d", stats.BytesMoved)
			}
			want := "missing referenced file: " + filepath.Join(root, "multi", "T", "T.chd")
			if w := log.warnings(); len(w) != 1 || w[0] != want {
				t.Errorf("warnings = %v, want [%q]", w, want)
			}
			if !dryRun {
				if got := snapshot(t, root)["multi/Q/T.chd"]; got != "disc" {
					t.Errorf("multi/Q/T.chd = %q, want the disc image", got)
				}
			}
		})
	}
}

func TestRun_AbsoluteReferenceStaysPut(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	abs := filepath.Join(outside, "abs.bin")
	touch(t, outside, "abs.bin", "data")
	touch(t, root, "Game.cue", cueSheet(abs, filepath.Join(outside, "gone.bin")))

	log := &recordLogger{}
	stats, err := Run(context.Background(), testConfig(root), log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RefsMoved != 0 {
		t.Errorf("RefsMoved = %d, want 0", stats.RefsMoved)
	}
	if _, err := os.Stat(abs); err != nil {
		t.Errorf("absolute reference moved: %v", err)
	}
	want := "missing referenced file: " + filepath.Join(outside, "gone.bin")
	if w := log.warnings(); len(w) != 1 || w[0] != want {
		t.Errorf("warnings = %v, want [%q]", w, want)
	}
}

func TestRun_SkipsUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	touch(t, root, "Crash.chd", "crash")
	locked := filepath.Join(root, "locked")
	touch(t, locked, "Hidden.chd", "hidden")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	cat, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := cat.Titles(); !sliceEqual(got, []string{"Crash"}) {
		t.Errorf("Titles = %v, want [Crash]", got)
	}
	if !sliceEqual(cat.Unreadable, []string{locked}) {
		t.Errorf("Unreadable = %v, want [%s]", cat.Unreadable, locked)
	}

	log := &recordLogger{}
	if _, err := Run(context.Background(), testConfig(root), log); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "skipping unreadable directory: " + locked
	if w := log.warnings(); len(w) != 1 || w[0] != want {
		t.Errorf("warnings = %v, want [%q]", w, want)
	}
}

func TestRun_EmptyRoot(t *testing.T) {
	root := t.TempDir()
	stats, err := Run(context.Background(), testConfig(root), &recordLogger{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Titles != 0 || stats.Playlists != 0 {
		t.Errorf("stats = %+v", stats)
	}
	fi, err := os.Stat(filepath.Join(root, "multi"))
	if err != nil || !fi.IsDir() {
		t.Errorf("multi directory not created: %v", err)
	}
}

// --- Dry run ---

func TestRun_DryRunLeavesTreeUntouched(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Game (Disc 1).cue", cueSheet("Game (Disc 1).bin"))
	touch(t, root, "Game (Disc 1).bin", "one")
	touch(t, root, "Game (Disc 2).cue", cueSheet("Game.bin"))
	touch(t, root, "Game (Disc 3).cue", cueSheet("Game.bin"))
	touch(t, root, "Game.bin", "shared")
	touch(t, root, "Crash.chd", "crash")
	before := snapshot(t, root)

	cfg := testConfig(root)
	cfg.DryRun = true
	dryLog := &recordLogger{}
	dry, err := Run(context.Background(), cfg, dryLog)
	if err != nil {
		t.Fatalf("dry Run: %v", err)
	}
	if after := snapshot(t, root); fmt.Sprint(before) != fmt.Sprint(after) {
		t.Fatalf("dry run changed the tree:\nbefore: %v\nafter:  %v", before, after)
	}
	if _, err := os.Stat(filepath.Join(root, "multi")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("dry run created multi/: %v", err)
	}

	actualLog := &recordLogger{}
	actual, err := Run(context.Background(), testConfig(root), actualLog)
	if err != nil {
		t.Fatalf("real Run: %v", err)
	}

	if dry.Moved != actual.Moved || dry.RefsMoved != actual.RefsMoved ||
		dry.RefsMissing != actual.RefsMissing || dry.Skipped != actual.Skipped ||
		dry.Playlists != actual.Playlists || dry.BytesMoved != actual.BytesMoved {
		t.Errorf("dry run predicted %+v, real run did %+v", dry, actual)
	}
	if fmt.Sprint(dryLog.warnings()) != fmt.Sprint(actualLog.warnings()) {
		t.Errorf("warnings differ:\ndry:  %v\nreal: %v", dryLog.warnings(), actualLog.warnings())
	}
}

// --- Cancellation ---

func TestRun_CanceledBeforeFirstMove(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Game.chd", "data")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := &recordLogger{}
	_, err := Run(ctx, testConfig(root), log)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(root, "Game.chd")); err != nil {
		t.Errorf("source moved despite cancellation: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "Game.m3u")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("playlist written despite cancellation: %v", err)
	}
	if len(log.warnings()) != 1 {
		t.Errorf("want one interruption warning, got %v", log.warnings())
	}
}

// --- samePath ---

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.chd", "")
	link := filepath.Join(dir, "link")
	if err := os.Symlink(dir, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tests := []struct {
		a, b string
		want bool
	}{
		{filepath.Join(dir, "a.chd"), filepath.Join(dir, "a.chd"), true},
		{filepath.Join(dir, "a.chd"), filepath.Join(link, "a.chd"), true},
		{filepath.Join(dir, "a.chd"), filepath.Join(dir, "b.chd"), false},
		{filepath.Join(dir, "x", "..", "a.chd"), filepath.Join(dir, "a.chd"), true},
		{filepath.Join(dir, "absent", "a.chd"), filepath.Join(dir, "absent", "a.chd"), true},
	}
	for _, tt := range tests {
		if got := samePath(tt.a, tt.b); got != tt.want {
			t.Errorf("samePath(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

// --- Helpers ---

type recordLogger struct {
	lines []string
}

func (r *recordLogger) add(level, format string, args []interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}

func (r *recordLogger) Info(format string, args ...interface{})    { r.add("INFO", format, args) }
func (r *recordLogger) Success(format string, args ...interface{}) { r.add("SUCCESS", format, args) }
func (r *recordLogger) Warn(format string, args ...interface{})    { r.add("WARN", format, args) }
func (r *recordLogger) Debug(verbose bool, format string, args ...interface{}) {
	if verbose {
		r.add("DEBUG", format, args)
	}
}

func (r *recordLogger) has(line string) bool {
	for _, l := range r.lines {
		if l == line {
			return true
		}
	}
	return false
}

// warnings returns WARN messages without the level prefix, skipping the
// summary counter line.
func (r *recordLogger) warnings() []string {
	var out []string
	for _, l := range r.lines {
		msg, ok := strings.CutPrefix(l, "WARN ")
		if !ok || strings.HasPrefix(msg, "  ") {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.RootDir = root
	cfg.ColorMode = config.ColorNever
	cfg.Verbose = true
	return &cfg
}

func cueSheet(bins ...string) string {
	var sb strings.Builder
	for i, b := range bins {
		fmt.Fprintf(&sb, "FILE \"%s\" BINARY\n  TRACK %02d MODE2/2352\n    INDEX 01 00:00:00\n", b, i+1)
	}
	return sb.String()
}

func touch(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

// snapshot maps every regular file under root (slash-separated, relative)
// to its content.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return out
}

func assertTree(t *testing.T, root string, want map[string]string) {
	t.Helper()
	got := snapshot(t, root)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("tree mismatch:\ngot:  %v\nwant: %v", got, want)
	}
}

func basenames(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
