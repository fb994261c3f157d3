package ranking

import (
	"sort"
	"strings"
)

// Score is one node score as returned by the scoring engine. The engine may
// emit more than one entry for the same address; Rank resolves that.
type Score struct {
	Address string  `json:"i"`
	Value   float64 `json:"v"`
}

// RankedScore is a Score with its 1-based leaderboard position.
type RankedScore struct {
	Address  string  `json:"address"`
	Value    float64 `json:"value"`
	Position int     `json:"position"`
}

// Rank deduplicates scores by address (first occurrence wins), orders them by
// value descending, and assigns 1-based positions. The sort is stable, so ties
// keep the post-deduplication input order; no secondary key exists. Addresses
// are lowercased first; an engine echoing mixed case must not produce two
// leaderboard rows for one node.
func Rank(scores []Score) []RankedScore {
	seen := make(map[string]struct{}, len(scores))
	ranked := make([]RankedScore, 0, len(scores))
	for _, s := range scores {
		addr := strings.ToLower(s.Address)
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		ranked = append(ranked, RankedScore{Address: addr, Value: s.Value})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked
}
