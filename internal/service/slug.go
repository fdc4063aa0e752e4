package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid    = regexp.MustCompile(`[^\w\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slugify turns a display name into a url path segment:
// "Pães & Doces" becomes "paes-doces".
func Slugify(name string) string {
	lower := cases.Lower(language.Und).String(name)

	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), lower)
	if err != nil {
		stripped = lower
	}

	s := slugInvalid.ReplaceAllString(stripped, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.TrimSpace(s)
}
