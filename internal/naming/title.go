package naming

import (
	"regexp"
	"strings"
	"unicode"
)

// Whitespace and digits are matched across Unicode, so a no-break space or
// full-width digits in "Disc 1" still count as a marker.
const (
	reSpace = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`
	reDigit = `\p{Nd}`
)

// reDiscSuffix matches a trailing disc marker: "Disc 1", "(Disc 2)", "disc3",
// "(DISC 10) ". Anchored at end of string.
var reDiscSuffix = regexp.MustCompile(`(?i)` + reSpace + `*\(?disc` + reSpace + `*` + reDigit + `+\)?` + reSpace + `*$`)

// NormalizeTitle returns the grouping title for a filename stem (the name
// without extension). Stems that share a title are treated as discs of the
// same game, even when they belong to unrelated games.
func NormalizeTitle(stem string) string {
	return strings.TrimFunc(reDiscSuffix.ReplaceAllString(stem, ""), isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(unicode.Z, r) || (r >= 0x1c && r <= 0x1f)
}
