// Package analysis runs the full report pipeline against the currently
// loaded taxonomy: normalize, select a language, detect, summarize.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hazyhaar/touchstone-factors/pkg/detect"
	"github.com/hazyhaar/touchstone-factors/pkg/report"
	"github.com/hazyhaar/touchstone-factors/pkg/taxonomy"
)

// ErrNotLoaded is returned by Analyze before any taxonomy load succeeded.
var ErrNotLoaded = errors.New("taxonomy not loaded")

// Loader produces a taxonomy table. taxonomy.Load bound to a Source is the
// production loader.
type Loader func(ctx context.Context) (*taxonomy.Table, error)

// SourceLoader binds src to taxonomy.Load.
func SourceLoader(src taxonomy.Source) Loader {
	return func(ctx context.Context) (*taxonomy.Table, error) {
		return taxonomy.Load(ctx, src)
	}
}

// Service holds the current taxonomy and serves analyses.
type Service struct {
	mu       sync.RWMutex
	table    *taxonomy.Table
	load     Loader
	matcher  *detect.Matcher
	selector *detect.LanguageSelector
}

// Options configures detection for a Service.
type Options struct {
	Matcher detect.Options
	Markers []string
}

// NewService creates a service with no table loaded.
func NewService(load Loader, opts Options) *Service {
	return &Service{
		load:     load,
		matcher:  detect.NewMatcher(opts.Matcher),
		selector: detect.NewLanguageSelector(opts.Markers),
	}
}

// Load fetches the taxonomy and swaps it in. On failure the previous table,
// if any, stays active.
func (s *Service) Load(ctx context.Context) error {
	t, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.table = t
	s.mu.Unlock()
	return nil
}

// Reload reloads the taxonomy (hot reload).
func (s *Service) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Table returns the active table, nil before the first load.
func (s *Service) Table() *taxonomy.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// EntryCount returns the number of entries in the active table.
func (s *Service) EntryCount() int {
	if t := s.Table(); t != nil {
		return t.Len()
	}
	return 0
}

// Threshold returns the fuzzy threshold in use.
func (s *Service) Threshold() float64 {
	return s.matcher.Threshold()
}

// Result is the outcome of analyzing one report.
type Result struct {
	Language        taxonomy.Language            `json:"language"`
	TextLength      int                          `json:"text_length"`
	Matches         detect.ResultSet             `json:"matches"`
	ByDimension     []report.DimensionCount      `json:"by_dimension"`
	Recommendations []report.RecommendationCount `json:"recommendations"`
	Export          []report.ExportRow           `json:"export"`
	// NoTermsMatched marks a successful pass that found nothing.
	NoTermsMatched bool          `json:"no_terms_matched"`
	Elapsed        time.Duration `json:"elapsed_ns"`
}

// Analyze runs the pipeline over raw report text. Empty text is a valid
// input with zero matches.
func (s *Service) Analyze(ctx context.Context, raw string) (*Result, error) {
	// The table pointer is captured once; a concurrent reload does not
	// affect this pass.
	t := s.Table()
	if t == nil {
		return nil, ErrNotLoaded
	}

	start := time.Now()
	text := taxonomy.Normalize(raw)
	lang := s.selector.Select(text, t)

	rs, err := s.matcher.Detect(ctx, text, t, lang)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	if rs == nil {
		rs = detect.ResultSet{}
	}

	return &Result{
		Language:        lang,
		TextLength:      len(text),
		Matches:         rs,
		ByDimension:     report.ByDimension(rs),
		Recommendations: report.ForRecommendations(rs),
		Export:          report.ForExport(rs),
		NoTermsMatched:  len(rs) == 0,
		Elapsed:         time.Since(start),
	}, nil
}
