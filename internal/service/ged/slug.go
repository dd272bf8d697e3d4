package ged

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug derives a stable id segment from a folder name: diacritics are
// folded away (template names are Portuguese), everything is lowercased,
// and runs of non-alphanumerics collapse to single underscores. Pure
// function: the same name always yields the same slug, so materializing a
// template twice produces the same child ids under a given root.
func Slug(name string) string {
	// The transformer carries internal buffers, so build it per call
	// rather than sharing one across goroutines.
	deaccent := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(deaccent, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
