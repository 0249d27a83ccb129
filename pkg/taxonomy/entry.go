package taxonomy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Language selects which term bag of an entry is used.
type Language string

const (
	Portuguese Language = "pt"
	English    Language = "en"
)

// Languages lists the supported term-bag languages in column order.
var Languages = []Language{Portuguese, English}

var (
	// ErrSourceUnavailable means the taxonomy source could not be located or read.
	ErrSourceUnavailable = errors.New("taxonomy source unavailable")
	// ErrInvalidTaxonomy means the source was read but cannot serve as a taxonomy.
	ErrInvalidTaxonomy = errors.New("invalid taxonomy")
)

// Entry is one (Dimension, Factor) row of the taxonomy.
type Entry struct {
	Dimension       string                `json:"dimension"`
	Factor          string                `json:"factor"`
	Subfactor1      string                `json:"subfactor_1,omitempty"`
	Subfactor2      string                `json:"subfactor_2,omitempty"`
	Recommendation1 string                `json:"recommendation_1,omitempty"`
	Recommendation2 string                `json:"recommendation_2,omitempty"`
	Terms           map[Language][]string `json:"terms"`
}

// TermBag returns the entry's terms for lang, nil when the bag is absent.
func (e *Entry) TermBag(lang Language) []string {
	return e.Terms[lang]
}

// Table is an immutable, ordered taxonomy loaded from one source.
type Table struct {
	Entries   []Entry
	Source    string
	LoadedAt  time.Time
	languages map[Language]bool
	skipped   int
}

// NewTable builds a table from already-typed entries. langs lists the term
// columns the source provided.
func NewTable(source string, entries []Entry, langs ...Language) (*Table, error) {
	t := &Table{
		Entries:   entries,
		Source:    source,
		LoadedAt:  time.Now(),
		languages: make(map[Language]bool, len(langs)),
	}
	for _, l := range langs {
		t.languages[l] = true
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) validate() error {
	if len(t.languages) == 0 {
		return fmt.Errorf("%w: no term bag column", ErrInvalidTaxonomy)
	}
	if len(t.Entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidTaxonomy)
	}
	for i, e := range t.Entries {
		if e.Dimension == "" || e.Factor == "" {
			return fmt.Errorf("%w: entry %d missing dimension or factor", ErrInvalidTaxonomy, i)
		}
	}
	return nil
}

// HasLanguage reports whether the source carried a term column for lang.
func (t *Table) HasLanguage(lang Language) bool {
	return t.languages[lang]
}

// AvailableLanguages returns the languages present, in Languages order.
func (t *Table) AvailableLanguages() []Language {
	var out []Language
	for _, l := range Languages {
		if t.languages[l] {
			out = append(out, l)
		}
	}
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.Entries)
}

// Skipped returns how many source rows were dropped for lacking a dimension or factor.
func (t *Table) Skipped() int {
	return t.skipped
}

// TermCount returns the total number of terms in lang across all entries.
func (t *Table) TermCount(lang Language) int {
	n := 0
	for i := range t.Entries {
		n += len(t.Entries[i].Terms[lang])
	}
	return n
}

// BuildTermBag splits a raw ";"-separated cell into normalized terms,
// dropping empty fragments and keeping duplicates in declared order.
func BuildTermBag(raw string) []string {
	return buildTermBag(raw, Normalize)
}

func buildTermBag(raw string, normalize Normalizer) []string {
	var terms []string
	for _, frag := range strings.Split(raw, ";") {
		t := strings.TrimSpace(normalize(strings.ToLower(strings.TrimSpace(frag))))
		if t == "" {
			continue
		}
		terms = append(terms, t)
	}
	return terms
}
