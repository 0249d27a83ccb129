// CLAUDE:SUMMARY Source descriptor for the taxonomy: location, tabular layout, column names and term normalizer.
package taxonomy

import (
	"path/filepath"
	"strings"
)

// Columns maps logical fields to the header names of the source table.
type Columns struct {
	Dimension       string `yaml:"dimension"`
	Factor          string `yaml:"factor"`
	Subfactor1      string `yaml:"subfactor_1"`
	Subfactor2      string `yaml:"subfactor_2"`
	Recommendation1 string `yaml:"recommendation_1"`
	Recommendation2 string `yaml:"recommendation_2"`
	TermsPT         string `yaml:"terms_pt"`
	TermsEN         string `yaml:"terms_en"`
}

// DefaultColumns are the headers of the reference spreadsheet.
func DefaultColumns() Columns {
	return Columns{
		Dimension:       "Dimensão",
		Factor:          "Fatores",
		Subfactor1:      "Subfator 1",
		Subfactor2:      "Subfator 2",
		Recommendation1: "Recomendação 1",
		Recommendation2: "Recomendação 2",
		TermsPT:         "Bag de termos",
		TermsEN:         "Bag of terms",
	}
}

// termColumn returns the header carrying lang's term bag.
func (c Columns) termColumn(lang Language) string {
	switch lang {
	case Portuguese:
		return c.TermsPT
	case English:
		return c.TermsEN
	}
	return ""
}

// Format describes the tabular layout of a taxonomy source.
type Format struct {
	Kind      string  `yaml:"kind"` // "xlsx", "csv"; empty = by extension
	Sheet     string  `yaml:"sheet"`
	Delimiter string  `yaml:"delimiter"`
	Encoding  string  `yaml:"encoding"`
	Normalize string  `yaml:"normalize"`
	Columns   Columns `yaml:"columns"`
}

// Source points at a taxonomy table: a local path or an http(s) URL.
type Source struct {
	Location string `yaml:"location"`
	Format   Format `yaml:"format"`
}

// withDefaults fills unset column names and the kind.
func (s Source) withDefaults() Source {
	def := DefaultColumns()
	c := &s.Format.Columns
	fill := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	fill(&c.Dimension, def.Dimension)
	fill(&c.Factor, def.Factor)
	fill(&c.Subfactor1, def.Subfactor1)
	fill(&c.Subfactor2, def.Subfactor2)
	fill(&c.Recommendation1, def.Recommendation1)
	fill(&c.Recommendation2, def.Recommendation2)
	fill(&c.TermsPT, def.TermsPT)
	fill(&c.TermsEN, def.TermsEN)

	if s.Format.Kind == "" {
		s.Format.Kind = kindFromLocation(s.Location)
	}
	return s
}

func kindFromLocation(loc string) string {
	if i := strings.IndexAny(loc, "?#"); i >= 0 && isURL(loc) {
		loc = loc[:i]
	}
	switch strings.ToLower(filepath.Ext(loc)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".tsv":
		return "tsv"
	default:
		return "csv"
	}
}

func isURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}
