package naming

// DestinationLedger records, for one run, which file now occupies each
// destination and which paths have been moved away. A dry run relies on it
// to predict what the filesystem would look like after earlier moves.
type DestinationLedger struct {
	owners  map[string]string   // destination → path the content started at
	vacated map[string]struct{} // paths moved away and not refilled
}

// NewDestinationLedger creates a ready-to-use ledger.
func NewDestinationLedger() *DestinationLedger {
	return &DestinationLedger{
		owners:  make(map[string]string),
		vacated: make(map[string]struct{}),
	}
}

// Claim records a move of src to dst. It returns false, recording nothing,
// when dst already holds content that came from somewhere else. Moving a
// file out of a destination it claimed earlier frees that destination.
func (l *DestinationLedger) Claim(src, dst string) bool {
	origin := src
	if o, ok := l.owners[src]; ok {
		origin = o
	}
	if owner, ok := l.owners[dst]; ok && owner != origin {
		return false
	}
	delete(l.owners, src)
	l.owners[dst] = origin
	l.vacated[src] = struct{}{}
	delete(l.vacated, dst)
	return true
}

// Owner returns the path the content now at dst was first found at, if a
// move of this run put it there.
func (l *DestinationLedger) Owner(dst string) (string, bool) {
	owner, ok := l.owners[dst]
	return owner, ok
}

// Vacated reports whether path was moved away earlier in the run and has not
// been refilled since.
func (l *DestinationLedger) Vacated(path string) bool {
	_, ok := l.vacated[path]
	return ok
}
