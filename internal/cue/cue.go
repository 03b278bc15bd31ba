// Package cue extracts the data files a CUE sheet references.
//
// Only FILE directives are read: for each line whose trimmed text starts
// with "FILE" (any case), the first double-quoted token is returned. All
// other CUE syntax is ignored. Ill-formed UTF-8 bytes are dropped rather
// than treated as errors, and a leading byte-order mark is removed.
package cue

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Ext is the extension of descriptor files, lowercase with leading dot.
const Ext = ".cue"

const fileDirective = "FILE"

// ReferencedFiles opens the CUE sheet at path and returns the filenames named
// by its FILE directives, in file order. Referenced files are not checked
// for existence.
func ReferencedFiles(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cue sheet: %w", err)
	}
	defer f.Close()

	refs, err := ParseReferences(f)
	if err != nil {
		return nil, fmt.Errorf("read cue sheet %s: %w", path, err)
	}
	return refs, nil
}

// ParseReferences reads CUE text from r and returns the filenames named by
// its FILE directives, in order. Only read errors from r are returned.
func ParseReferences(r io.Reader) ([]string, error) {
	text, err := decoder(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}

	var refs []string
	scanner := bufio.NewScanner(text)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLines)
	for scanner.Scan() {
		if ref, ok := parseFileLine(scanner.Text()); ok {
			refs = append(refs, ref)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}

// scanLines is bufio.ScanLines extended to accept "\r\n", "\n" and bare "\r"
// as line terminators.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			// A "\n" may follow in the next read.
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// parseFileLine returns the first quoted token of a FILE directive line.
func parseFileLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if len(line) < len(fileDirective) || !strings.EqualFold(line[:len(fileDirective)], fileDirective) {
		return "", false
	}
	parts := strings.Split(line, `"`)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF16BE = []byte{0xfe, 0xff}
)

// decoder picks the text decoding from a leading byte-order mark. UTF-16
// sheets are decoded as such; anything else is read as UTF-8 with its BOM
// removed and ill-formed bytes dropped.
func decoder(br *bufio.Reader) (io.Reader, error) {
	head, err := br.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(head, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
	case bytes.HasPrefix(head, bomUTF16LE), bytes.HasPrefix(head, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()), nil
	}
	return transform.NewReader(br, dropInvalidUTF8{}), nil
}

// dropInvalidUTF8 copies well-formed UTF-8 through unchanged, including an
// encoded U+FFFD, and drops every byte that does not start a valid sequence.
type dropInvalidUTF8 struct{ transform.NopResetter }

func (dropInvalidUTF8) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]
		if c < utf8.RuneSelf {
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			nSrc++
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
	}
	return nDst, nSrc, nil
}
