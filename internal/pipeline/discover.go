package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/multidisc/internal/cue"
	"github.com/backmassage/multidisc/internal/naming"
)

// Supported disc entry extensions (lowercase, with leading dot). Data files
// such as .bin or .img are only ever moved through a .cue reference.
var entryExtensions = map[string]bool{
	".chd": true,
	".cue": true,
	".ccd": true,
	".toc": true,
}

// Entry is one disc entry file found by Scan.
type Entry struct {
	Path string // absolute path at scan time
	Name string // base filename
	Stem string // Name without its extension
	Dir  string // parent directory at scan time
	Ext  string // lowercase extension, with leading dot
}

// IsCue reports whether the entry is a cue sheet.
func (e Entry) IsCue() bool { return e.Ext == cue.Ext }

func newEntry(path string) Entry {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	return Entry{
		Path: path,
		Name: name,
		Stem: strings.TrimSuffix(name, ext),
		Dir:  filepath.Dir(path),
		Ext:  strings.ToLower(ext),
	}
}

// Catalog maps titles to their entries. Titles iterate in the order they
// were first seen; entries within a title keep walk order.
type Catalog struct {
	order  []string
	groups map[string][]Entry

	// Unreadable lists directories skipped because they could not be listed.
	Unreadable []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{groups: make(map[string][]Entry)}
}

// Add files e under its normalized title and returns that title.
func (c *Catalog) Add(e Entry) string {
	title := naming.NormalizeTitle(e.Stem)
	if _, ok := c.groups[title]; !ok {
		c.order = append(c.order, title)
	}
	c.groups[title] = append(c.groups[title], e)
	return title
}

// Titles returns the titles in first-discovery order.
func (c *Catalog) Titles() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Entries returns the entries grouped under title.
func (c *Catalog) Entries(title string) []Entry {
	return c.groups[title]
}

// Len returns the number of titles.
func (c *Catalog) Len() int { return len(c.order) }

// TotalEntries returns the number of entries across all titles.
func (c *Catalog) TotalEntries() int {
	n := 0
	for _, entries := range c.groups {
		n += len(entries)
	}
	return n
}

// Scan walks root recursively in lexical order and groups every regular
// file with an entry extension by its normalized title. Directories that
// cannot be listed for lack of permission are skipped and recorded in
// Catalog.Unreadable; any other walk error aborts the scan. Symlinks are
// followed for the file check only; symlinked directories are not entered.
func Scan(root string) (*Catalog, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	cat := NewCatalog()
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && errors.Is(err, fs.ErrPermission) {
				cat.Unreadable = append(cat.Unreadable, path)
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		// A bare ".cue" is a dotfile with no extension.
		if len(ext) == len(d.Name()) || !entryExtensions[strings.ToLower(ext)] {
			return nil
		}
		if !isRegularFile(path, d) {
			return nil
		}
		cat.Add(newEntry(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", abs, err)
	}
	return cat, nil
}

func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
