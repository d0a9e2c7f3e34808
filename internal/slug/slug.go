// Package slug derives URL-safe path segments from free text. Generation is
// pure and deterministic: the same input always yields the same slug.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonWordPattern     = regexp.MustCompile(`\W+`)
	nonPathWordPattern = regexp.MustCompile(`[^\w/]|[!().]+`)
	spaceRunPattern    = regexp.MustCompile(` +`)
)

// Generate turns free text into a URL-safe path segment: diacritics are
// stripped, anything that is not a word character becomes a separator, and
// separator runs collapse to a single hyphen. The result contains only
// [a-z0-9_-]. An input with no usable characters yields "".
func Generate(text string) string {
	s := transliterate(text)
	s = nonWordPattern.ReplaceAllString(s, " ")
	return hyphenate(s)
}

// GeneratePath is the variant used for section paths. It keeps "/" so that
// nested paths like "about/team" survive, and strips punctuation.
func GeneratePath(text string) string {
	s := transliterate(text)
	s = nonPathWordPattern.ReplaceAllString(s, " ")
	return hyphenate(s)
}

func hyphenate(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return spaceRunPattern.ReplaceAllString(s, "-")
}

// transliterate approximates the input in 7-bit ASCII. Accented letters are
// decomposed and their combining marks dropped; characters with no ASCII
// approximation are discarded.
func transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
