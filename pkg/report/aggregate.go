// Package report groups detection results into the summary views shown to
// users and written to spreadsheets.
package report

import (
	"sort"

	"github.com/hazyhaar/touchstone-factors/pkg/detect"
)

// DimensionCount is the number of matches in one dimension.
type DimensionCount struct {
	Dimension string `json:"dimension"`
	Count     int    `json:"count"`
}

// RecommendationCount groups matches by factor and its recommendations.
type RecommendationCount struct {
	Dimension       string `json:"dimension"`
	Factor          string `json:"factor"`
	Recommendation1 string `json:"recommendation_1"`
	Recommendation2 string `json:"recommendation_2"`
	Count           int    `json:"count"`
}

// ExportRow groups matches by factor and subfactors.
type ExportRow struct {
	Dimension  string `json:"dimension"`
	Factor     string `json:"factor"`
	Subfactor1 string `json:"subfactor_1"`
	Subfactor2 string `json:"subfactor_2"`
	Count      int    `json:"count"`
}

// ByDimension counts matches per dimension, most frequent first; ties keep
// first-seen order.
func ByDimension(rs detect.ResultSet) []DimensionCount {
	out := groupCount(rs,
		func(r *detect.MatchResult) string { return r.Dimension },
		func(r *detect.MatchResult) DimensionCount { return DimensionCount{Dimension: r.Dimension} },
		func(d *DimensionCount) { d.Count++ },
	)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// DimensionMap is ByDimension as a map.
func DimensionMap(rs detect.ResultSet) map[string]int {
	m := make(map[string]int)
	for _, r := range rs {
		m[r.Dimension]++
	}
	return m
}

type recKey struct{ dim, factor, rec1, rec2 string }

// ForRecommendations groups by (dimension, factor, recommendation 1,
// recommendation 2) in first-seen order.
func ForRecommendations(rs detect.ResultSet) []RecommendationCount {
	return groupCount(rs,
		func(r *detect.MatchResult) recKey {
			return recKey{r.Dimension, r.Factor, r.Recommendation1, r.Recommendation2}
		},
		func(r *detect.MatchResult) RecommendationCount {
			return RecommendationCount{
				Dimension:       r.Dimension,
				Factor:          r.Factor,
				Recommendation1: r.Recommendation1,
				Recommendation2: r.Recommendation2,
			}
		},
		func(c *RecommendationCount) { c.Count++ },
	)
}

type exportKey struct{ dim, factor, sub1, sub2 string }

// ForExport groups by (dimension, factor, subfactor 1, subfactor 2) in
// first-seen order.
func ForExport(rs detect.ResultSet) []ExportRow {
	return groupCount(rs,
		func(r *detect.MatchResult) exportKey {
			return exportKey{r.Dimension, r.Factor, r.Subfactor1, r.Subfactor2}
		},
		func(r *detect.MatchResult) ExportRow {
			return ExportRow{
				Dimension:  r.Dimension,
				Factor:     r.Factor,
				Subfactor1: r.Subfactor1,
				Subfactor2: r.Subfactor2,
			}
		},
		func(e *ExportRow) { e.Count++ },
	)
}

// groupCount folds rs into one row per key, in first-seen key order.
func groupCount[K comparable, T any](rs detect.ResultSet, key func(*detect.MatchResult) K, row func(*detect.MatchResult) T, inc func(*T)) []T {
	out := []T{}
	pos := make(map[K]int)
	for i := range rs {
		k := key(&rs[i])
		idx, ok := pos[k]
		if !ok {
			idx = len(out)
			pos[k] = idx
			out = append(out, row(&rs[i]))
		}
		inc(&out[idx])
	}
	return out
}
