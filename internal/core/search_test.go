package core

import (
	"testing"
	"time"

	"samplevault/pkg/domain"
)

const second = time.Second

func timeAt(sec int) time.Time { return time.Unix(int64(sec), 0).UTC() }

func TestLevenshteinLimitGrowsWithQuery(t *testing.T) {
	cases := map[int]int{3: 1, 4: 1, 5: 2, 8: 2, 9: 3, 20: 3}
	for length, want := range cases {
		if got := levenshteinLimit(length); got != want {
			t.Fatalf("levenshteinLimit(%d) = %d, want %d", length, got, want)
		}
	}
}

func TestSearchRecordsMatchesWordsAndIDs(t *testing.T) {
	records := []SampleRecord{
		{ID: "GEO2601", Metadata: domain.DisplayMetadata{Name: "Layered sandstone"}},
		{ID: "GEO2602", Metadata: domain.DisplayMetadata{Name: "Obsidian"}},
	}
	hits := SearchRecords(records, "sandstome", 0)
	if len(hits) != 1 || hits[0].Record.ID != "GEO2601" || hits[0].Source != "lev" {
		t.Fatalf("expected fuzzy word match, got %+v", hits)
	}
	if hits[0].Score >= 0.8 {
		t.Fatalf("fuzzy matches rank below substring matches, got %v", hits[0].Score)
	}
	hits = SearchRecords(records, "geo2602", 0)
	if len(hits) != 1 || hits[0].Source != "exact" {
		t.Fatalf("expected exact id match, got %+v", hits)
	}
	if hits := SearchRecords(records, "ob", 0); len(hits) != 1 || hits[0].Source != "prefix" {
		t.Fatalf("expected prefix match, got %+v", hits)
	}
	if hits := SearchRecords(records, "zz", 0); len(hits) != 0 {
		t.Fatalf("short queries do not fuzzy match: %+v", hits)
	}
}
