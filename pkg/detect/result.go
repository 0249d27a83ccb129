package detect

import "github.com/hazyhaar/touchstone-factors/pkg/taxonomy"

// ExactScore is the score of a term found verbatim in the text.
const ExactScore = 100.0

// MatchResult is one detected (entry, term) pair.
type MatchResult struct {
	Dimension       string  `json:"dimension"`
	Factor          string  `json:"factor"`
	Subfactor1      string  `json:"subfactor_1,omitempty"`
	Subfactor2      string  `json:"subfactor_2,omitempty"`
	Recommendation1 string  `json:"recommendation_1,omitempty"`
	Recommendation2 string  `json:"recommendation_2,omitempty"`
	MatchedTerm     string  `json:"matched_term"`
	Score           float64 `json:"score"`
	Exact           bool    `json:"exact"`
}

// ResultSet is the ordered output of one detection pass: taxonomy order,
// then term-bag order within an entry.
type ResultSet []MatchResult

func newResult(e *taxonomy.Entry, term string, score float64, exact bool) MatchResult {
	return MatchResult{
		Dimension:       e.Dimension,
		Factor:          e.Factor,
		Subfactor1:      e.Subfactor1,
		Subfactor2:      e.Subfactor2,
		Recommendation1: e.Recommendation1,
		Recommendation2: e.Recommendation2,
		MatchedTerm:     term,
		Score:           score,
		Exact:           exact,
	}
}

// Counts returns the number of exact and fuzzy matches.
func (rs ResultSet) Counts() (exact, fuzzy int) {
	for _, r := range rs {
		if r.Exact {
			exact++
		} else {
			fuzzy++
		}
	}
	return exact, fuzzy
}
