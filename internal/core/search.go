package core

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// SearchHit is a record matched by SearchRecords. Score is in (0,1], higher
// is better.
type SearchHit struct {
	Record SampleRecord
	Score  float64
	Source string // exact|prefix|contains|lev
}

// SearchRecords ranks records whose display name or ID matches query. Exact,
// prefix and substring matches beat fuzzy ones; fuzzy matches tolerate a
// length-dependent edit distance. limit <= 0 returns every hit.
func SearchRecords(records []SampleRecord, query string, limit int) []SearchHit {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	hits := make([]SearchHit, 0, len(records))
	for _, rec := range records {
		name := strings.ToLower(rec.Metadata.Name)
		var (
			score  float64
			source string
		)
		switch {
		case name == q || strings.EqualFold(rec.ID, q):
			score, source = 1.0, "exact"
		case strings.HasPrefix(name, q) && len(q) >= 2:
			score, source = 0.9, "prefix"
		case strings.Contains(name, q) && len(q) >= 3:
			score, source = 0.8, "contains"
		default:
			if len(q) < 3 || name == "" {
				continue
			}
			dist := bestDistance(q, name)
			if dist > levenshteinLimit(len(q)) {
				continue
			}
			score, source = 0.72-(0.08*float64(dist)), "lev"
		}
		hits = append(hits, SearchHit{Record: rec.Clone(), Score: score, Source: source})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].Record.Metadata.Name < hits[j].Record.Metadata.Name
		}
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// bestDistance compares q with the whole name and with each word of it.
func bestDistance(q, name string) int {
	best := levenshtein.ComputeDistance(q, name)
	for _, word := range strings.Fields(name) {
		if d := levenshtein.ComputeDistance(q, word); d < best {
			best = d
		}
	}
	return best
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
