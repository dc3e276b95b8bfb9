package security

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy removes every tag and attribute.
var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup and unprintable runes from user-supplied free
// text and trims the result. Entities produced by the policy are decoded so
// that "Fish & Chips" survives unchanged.
func SanitizeText(s string) string {
	clean := strictPolicy.Sanitize(StripUnprintable(s))
	return strings.TrimSpace(entityDecoder.Replace(clean))
}

var entityDecoder = strings.NewReplacer(
	"&amp;", "&",
	"&#39;", "'",
	"&#34;", `"`,
	"&quot;", `"`,
	"&lt;", "<",
	"&gt;", ">",
)

// StripUnprintable drops non-printable runes, keeping tabs and newlines.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
