package detect

import (
	"strings"

	"github.com/hazyhaar/touchstone-factors/pkg/taxonomy"
)

// DefaultMarkers are Portuguese words whose presence selects the "pt" term bags.
var DefaultMarkers = []string{"segurança", "procedimento", "acidente", "falha", "trabalho"}

// LanguageSelector picks the term-bag language for a report by marker-word
// presence. It is a coarse policy: any marker selects Portuguese, everything
// else (including text in a third language) selects English.
type LanguageSelector struct {
	markers []string
}

// NewLanguageSelector normalizes markers the same way as report text.
// An empty list uses DefaultMarkers.
func NewLanguageSelector(markers []string) *LanguageSelector {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	s := &LanguageSelector{markers: make([]string, 0, len(markers))}
	for _, m := range markers {
		if n := strings.TrimSpace(taxonomy.Normalize(m)); n != "" {
			s.markers = append(s.markers, n)
		}
	}
	return s
}

// Select returns the language for normalizedText. When tbl is non-nil and
// lacks the chosen term column but has the other one, the other is used.
func (s *LanguageSelector) Select(normalizedText string, tbl *taxonomy.Table) taxonomy.Language {
	lang := taxonomy.English
	for _, m := range s.markers {
		if strings.Contains(normalizedText, m) {
			lang = taxonomy.Portuguese
			break
		}
	}

	if tbl != nil && !tbl.HasLanguage(lang) {
		if avail := tbl.AvailableLanguages(); len(avail) > 0 {
			return avail[0]
		}
	}
	return lang
}

var defaultSelector = NewLanguageSelector(nil)

// SelectLanguage applies the default marker set.
func SelectLanguage(normalizedText string, tbl *taxonomy.Table) taxonomy.Language {
	return defaultSelector.Select(normalizedText, tbl)
}
