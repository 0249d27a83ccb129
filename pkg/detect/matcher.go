package detect

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/touchstone-factors/pkg/taxonomy"
	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the fuzzy score a non-exact term must exceed.
const DefaultThreshold = 85.0

// Options configures a Matcher. Zero values select the defaults.
type Options struct {
	Threshold float64 // strictly-greater cutoff for fuzzy matches
	Workers   int     // parallel shards; 0 = GOMAXPROCS
}

// Matcher runs exact-then-fuzzy term detection over a taxonomy.
type Matcher struct {
	threshold float64
	workers   int
}

// NewMatcher returns a Matcher with defaults applied.
func NewMatcher(opts Options) *Matcher {
	m := &Matcher{threshold: opts.Threshold, workers: opts.Workers}
	if m.threshold <= 0 {
		m.threshold = DefaultThreshold
	}
	if m.workers <= 0 {
		m.workers = runtime.GOMAXPROCS(0)
	}
	return m
}

// Threshold returns the fuzzy cutoff in use.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Detect matches every term of lang's bag, entry by entry, against
// normalizedText. A term found as a substring scores 100; otherwise it is
// kept only when its partial ratio exceeds the threshold. Results follow
// taxonomy order then term order regardless of sharding. On ctx
// cancellation no results are returned.
func (m *Matcher) Detect(ctx context.Context, normalizedText string, tbl *taxonomy.Table, lang taxonomy.Language) (ResultSet, error) {
	if tbl == nil {
		return nil, fmt.Errorf("detect: nil taxonomy")
	}
	entries := tbl.Entries
	if len(entries) == 0 {
		return ResultSet{}, nil
	}

	text := []rune(normalizedText)
	shards := m.workers
	if shards > len(entries) {
		shards = len(entries)
	}
	size := (len(entries) + shards - 1) / shards

	parts := make([]ResultSet, shards)
	g, gctx := errgroup.WithContext(ctx)
	for k := 0; k < shards; k++ {
		lo := k * size
		hi := min(lo+size, len(entries))
		if lo >= hi {
			break
		}
		g.Go(func() error {
			var local ResultSet
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				local = m.matchEntry(local, &entries[i], normalizedText, text, lang)
			}
			parts[k] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make(ResultSet, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func (m *Matcher) matchEntry(dst ResultSet, e *taxonomy.Entry, normalized string, text []rune, lang taxonomy.Language) ResultSet {
	for _, term := range e.TermBag(lang) {
		if term == "" || !utf8.ValidString(term) {
			continue
		}
		if strings.Contains(normalized, term) {
			dst = append(dst, newResult(e, term, ExactScore, true))
			continue
		}
		if score := termScore([]rune(term), text); score > m.threshold {
			dst = append(dst, newResult(e, term, score, false))
		}
	}
	return dst
}

// termScore is the partial ratio of term against text, except that a term
// longer than the text is scored as a whole against the whole text. Sliding
// the text over the term would give 100 to a text contained in the term,
// and only a substring term may score 100.
func termScore(term, text []rune) float64 {
	if len(term) <= len(text) {
		return partialRatio(term, text)
	}
	if len(text) == 0 {
		return 0
	}
	return 100 * float64(2*lcsFunc(text)(term)) / float64(len(term)+len(text))
}
