package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes text and drops the combining marks, so "café"
// becomes "cafe". Chains are stateful, so each call gets its own.
func foldMarks() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Slugify turns a title into a URL slug: accents are folded, letters are
// lower-cased, every run of characters outside [a-z0-9] becomes a single
// dash, and leading or trailing dashes are removed.
func Slugify(s string) string {
	folded, _, err := transform.String(foldMarks(), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.TrimSpace(folded))

	var sb strings.Builder
	sb.Grow(len(folded))
	dash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(sb.String(), "-")
}
