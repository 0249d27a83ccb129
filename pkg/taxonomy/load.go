package taxonomy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Load reads the taxonomy described by src and builds a validated Table.
// Any failure to reach or read the source wraps ErrSourceUnavailable; a
// readable source with the wrong shape wraps ErrInvalidTaxonomy.
func Load(ctx context.Context, src Source) (*Table, error) {
	src = src.withDefaults()
	if strings.TrimSpace(src.Location) == "" {
		return nil, fmt.Errorf("%w: no location configured", ErrSourceUnavailable)
	}

	data, err := readSource(ctx, src.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, src.Location, err)
	}

	var rows [][]string
	switch src.Format.Kind {
	case "xlsx":
		rows, err = readXLSX(bytes.NewReader(data), src.Format.Sheet)
	case "tsv":
		if src.Format.Delimiter == "" {
			src.Format.Delimiter = "\t"
		}
		rows, err = readCSV(bytes.NewReader(data), src.Format)
	default:
		rows, err = readCSV(bytes.NewReader(data), src.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, src.Location, err)
	}

	t, err := buildTable(src, rows)
	if err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", src.Location, err)
	}
	return t, nil
}

func readSource(ctx context.Context, loc string) ([]byte, error) {
	if isURL(loc) {
		return fetch(ctx, loc)
	}
	f, err := os.Open(loc)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// columnIndex resolves header names to positions; -1 when absent.
type columnIndex struct {
	dimension, factor                int
	subfactor1, subfactor2           int
	recommendation1, recommendation2 int
	terms                            map[Language]int
}

func resolveColumns(header []string, c Columns) columnIndex {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := canonicalHeader(h)
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	lookup := func(name string) int {
		if i, ok := pos[canonicalHeader(name)]; ok {
			return i
		}
		return -1
	}

	idx := columnIndex{
		dimension:       lookup(c.Dimension),
		factor:          lookup(c.Factor),
		subfactor1:      lookup(c.Subfactor1),
		subfactor2:      lookup(c.Subfactor2),
		recommendation1: lookup(c.Recommendation1),
		recommendation2: lookup(c.Recommendation2),
		terms:           make(map[Language]int),
	}
	for _, lang := range Languages {
		if i := lookup(c.termColumn(lang)); i >= 0 {
			idx.terms[lang] = i
		}
	}
	return idx
}

// buildTable turns raw rows (header first) into typed entries.
func buildTable(src Source, rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidTaxonomy)
	}
	header := rows[0]
	cols := src.Format.Columns
	idx := resolveColumns(header, cols)
	if idx.dimension < 0 {
		return nil, fmt.Errorf("%w: column %q not found in header %v", ErrInvalidTaxonomy, cols.Dimension, header)
	}
	if idx.factor < 0 {
		return nil, fmt.Errorf("%w: column %q not found in header %v", ErrInvalidTaxonomy, cols.Factor, header)
	}

	normalize := GetNormalizer(src.Format.Normalize)
	langs := make([]Language, 0, len(idx.terms))
	for _, l := range Languages {
		if _, ok := idx.terms[l]; ok {
			langs = append(langs, l)
		}
	}

	entries := make([]Entry, 0, len(rows)-1)
	var skipped int
	for _, record := range rows[1:] {
		e := Entry{
			Dimension:       cell(record, idx.dimension),
			Factor:          cell(record, idx.factor),
			Subfactor1:      cell(record, idx.subfactor1),
			Subfactor2:      cell(record, idx.subfactor2),
			Recommendation1: cell(record, idx.recommendation1),
			Recommendation2: cell(record, idx.recommendation2),
			Terms:           make(map[Language][]string, len(idx.terms)),
		}
		if e.Dimension == "" || e.Factor == "" {
			if !blankRow(record) {
				skipped++
			}
			continue
		}
		for lang, i := range idx.terms {
			e.Terms[lang] = buildTermBag(cell(record, i), normalize)
		}
		entries = append(entries, e)
	}

	if skipped > 0 {
		slog.Warn("taxonomy rows without dimension or factor skipped", "source", src.Location, "skipped", skipped)
	}

	t, err := NewTable(src.Location, entries, langs...)
	if err != nil {
		return nil, err
	}
	t.skipped = skipped
	return t, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blankRow(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
