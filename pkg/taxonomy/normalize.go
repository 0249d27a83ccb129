// CLAUDE:SUMMARY Text normalization strategies (transliterate, lowercase+strip-accents, lowercase-only, none) shared by report text and term bags.
package taxonomy

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer transforms text before matching.
type Normalizer func(string) string

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases and transliterates to ASCII (e.g. Segurança -> seguranca, Ærø -> aero).
// It is the default for both report text and taxonomy terms.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return unidecode.Unidecode(strings.ToLower(s))
}

// NormalizeLowercaseASCII lowercases and strips combining marks only; runes
// without a decomposition (ß, æ) are kept as-is.
func NormalizeLowercaseASCII(s string) string {
	result, _, _ := transform.String(stripAccents, strings.ToLower(s))
	return result
}

// NormalizeLowercaseUTF8 lowercases but preserves accents.
func NormalizeLowercaseUTF8(s string) string {
	return strings.ToLower(s)
}

// NormalizeNone returns the text unchanged.
func NormalizeNone(s string) string {
	return s
}

// GetNormalizer returns the normalizer for the given mode.
// Default is transliterate.
func GetNormalizer(mode string) Normalizer {
	switch mode {
	case "transliterate":
		return Normalize
	case "lowercase_ascii":
		return NormalizeLowercaseASCII
	case "lowercase_utf8":
		return NormalizeLowercaseUTF8
	case "none":
		return NormalizeNone
	default:
		return Normalize
	}
}

// canonicalHeader trims a column header and composes it to NFC so that
// decomposed accents in spreadsheet headers compare equal.
func canonicalHeader(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
