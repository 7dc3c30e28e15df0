package models

import "fmt"

// MatchType classifies a match by the player counts of both rosters.
type MatchType string

const (
	MatchTypeTeteATete MatchType = "tete_a_tete"
	MatchTypeDoublet   MatchType = "doublet"
	MatchTypeTriplet   MatchType = "triplet"
	MatchTypeMixed     MatchType = "mixed"
	MatchTypeUnknown   MatchType = "unknown"
)

// PlayerCount returns the per-side player count for an equal-sided type,
// or 0 for mixed/unknown.
func (t MatchType) PlayerCount() int {
	switch t {
	case MatchTypeTeteATete:
		return 1
	case MatchTypeDoublet:
		return 2
	case MatchTypeTriplet:
		return 3
	}
	return 0
}

func (t MatchType) Display() string {
	switch t {
	case MatchTypeTeteATete:
		return "Tête-à-tête (1 player)"
	case MatchTypeDoublet:
		return "Doublet (2 players)"
	case MatchTypeTriplet:
		return "Triplet (3 players)"
	case MatchTypeMixed:
		return "Mixed format"
	case MatchTypeUnknown:
		return "Unknown format"
	}
	return string(t)
}

// DetectMatchType classifies a match from the two roster sizes. Unequal
// sides are mixed; equal sides outside 1..3 players are unknown.
func DetectMatchType(team1Count, team2Count int) MatchType {
	if team1Count != team2Count {
		return MatchTypeMixed
	}
	switch team1Count {
	case 1:
		return MatchTypeTeteATete
	case 2:
		return MatchTypeDoublet
	case 3:
		return MatchTypeTriplet
	}
	return MatchTypeUnknown
}

// MatchTypeRules is the per-tournament configuration restricting which
// formats may be played. An empty Allowed list permits everything.
type MatchTypeRules struct {
	Allowed    []MatchType `json:"allowed_match_types"`
	AllowMixed bool        `json:"allow_mixed"`
}

func (r MatchTypeRules) permits(t MatchType) bool {
	if len(r.Allowed) == 0 {
		return true
	}
	for _, a := range r.Allowed {
		if a == t {
			return true
		}
	}
	return false
}

// ValidCounts returns the per-side player counts acceptable under the
// rules, ascending. Empty when the rules are unrestricted.
func (r MatchTypeRules) ValidCounts() []int {
	counts := make([]int, 0, 3)
	for _, t := range []MatchType{MatchTypeTeteATete, MatchTypeDoublet, MatchTypeTriplet} {
		if r.permits(t) && len(r.Allowed) > 0 {
			counts = append(counts, t.PlayerCount())
		}
	}
	return counts
}

// Check validates a detected match type against the rules. The returned
// error names the offending player counts so it can be surfaced verbatim.
func (r MatchTypeRules) Check(t MatchType, team1Count, team2Count int) error {
	if t == MatchTypeMixed {
		if r.AllowMixed {
			return nil
		}
		return fmt.Errorf("mixed matches are not allowed in this tournament: both teams must field the same number of players (team 1 has %d, team 2 has %d)", team1Count, team2Count)
	}
	if r.permits(t) {
		return nil
	}
	return fmt.Errorf("%s matches are not allowed in this tournament (%d vs %d players)", t.Display(), team1Count, team2Count)
}
