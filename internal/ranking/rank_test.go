package ranking

import "testing"

func TestRankDeduplicatesFirstWins(t *testing.T) {
	ranked := Rank([]Score{
		{Address: "0xa", Value: 1},
		{Address: "0xa", Value: 2},
	})
	if len(ranked) != 1 {
		t.Fatalf("expected 1 record after dedup, got %d", len(ranked))
	}
	if ranked[0].Value != 1 {
		t.Fatalf("first occurrence must win, got value %v", ranked[0].Value)
	}
}

func TestRankDeduplicatesMixedCaseAddresses(t *testing.T) {
	ranked := Rank([]Score{
		{Address: "0xAbC", Value: 3},
		{Address: "0xabc", Value: 7},
	})
	if len(ranked) != 1 {
		t.Fatalf("expected 1 record after case-folding dedup, got %d", len(ranked))
	}
	if ranked[0].Address != "0xabc" {
		t.Fatalf("expected lowercased address, got %q", ranked[0].Address)
	}
	if ranked[0].Value != 3 {
		t.Fatalf("first occurrence must win, got value %v", ranked[0].Value)
	}
}

func TestRankStableTieBreak(t *testing.T) {
	ranked := Rank([]Score{
		{Address: "0xa", Value: 5},
		{Address: "0xb", Value: 9},
		{Address: "0xc", Value: 9},
	})
	want := []RankedScore{
		{Address: "0xb", Value: 9, Position: 1},
		{Address: "0xc", Value: 9, Position: 2},
		{Address: "0xa", Value: 5, Position: 3},
	}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(ranked))
	}
	for i := range want {
		if ranked[i] != want[i] {
			t.Fatalf("position %d: got %+v want %+v", i, ranked[i], want[i])
		}
	}
}

func TestRankEmptyInput(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Fatalf("empty input must yield empty output, got %d", len(got))
	}
}

func TestRankPositionsAreOneBased(t *testing.T) {
	ranked := Rank([]Score{
		{Address: "0xa", Value: 1},
		{Address: "0xb", Value: 3},
		{Address: "0xc", Value: 2},
	})
	for i, r := range ranked {
		if r.Position != i+1 {
			t.Fatalf("expected position %d, got %d", i+1, r.Position)
		}
	}
	if ranked[0].Address != "0xb" || ranked[2].Address != "0xa" {
		t.Fatalf("unexpected order: %+v", ranked)
	}
}
