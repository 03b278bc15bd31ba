package pipeline

// TitleReport holds the per-title counters shown in the summary table.
type TitleReport struct {
	Title       string
	Discs       int
	Moved       int
	RefsMoved   int
	RefsMissing int
	Playlist    string
}

// RunStats tracks aggregate counters across one run.
type RunStats struct {
	Titles      int
	Entries     int
	Moved       int   // entry files relocated
	InPlace     int   // entry files already at their destination
	Skipped     int   // entry files whose destination held another file
	RefsMoved   int   // data files relocated through a .cue reference
	RefsMissing int   // referenced data files that did not exist
	Playlists   int   // playlists written (or that would be written)
	BytesMoved  int64 // size of every relocated file
	Reports     []TitleReport
}

// Changed reports whether the run relocated anything.
func (s *RunStats) Changed() bool {
	return s.Moved+s.RefsMoved > 0
}
