// Package brackets holds the stateless pairing algorithms used by the
// tournament progression engine. All functions are deterministic given a
// fixed *rand.Rand; production callers supply a time-seeded source.
package brackets

import (
	"errors"
	"math/rand"
)

// Pair is a single generated matchup.
type Pair struct {
	Team1ID int
	Team2ID int
}

var (
	ErrNotEnoughTeams = errors.New("not enough teams to pair (minimum 2 required)")

	// ErrNoValidOpponent is returned by Swiss pairing when the greedy
	// pass leaves a team with no opponent it has not already played.
	// True Swiss pairing would relax across score groups or backtrack;
	// this implementation deliberately stops instead.
	ErrNoValidOpponent = errors.New("no valid opponent available under no-rematch constraint")

	// ErrNoByeCandidate is returned by Swiss pairing when the team count
	// is odd but every team has already received a bye.
	ErrNoByeCandidate = errors.New("odd team count but every team has already received a bye")
)

// PairKnockout shuffles the teams and pairs them sequentially. With an odd
// count the bye goes to the last shuffled team that has not had one yet;
// when every team has had a bye the last team receives a second one (the
// caller is expected to log this edge case).
func PairKnockout(teamIDs []int, hadBye map[int]bool, rng *rand.Rand) ([]Pair, *int, error) {
	if len(teamIDs) < 2 {
		return nil, nil, ErrNotEnoughTeams
	}

	shuffled := make([]int, len(teamIDs))
	copy(shuffled, teamIDs)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var bye *int
	if len(shuffled)%2 != 0 {
		idx := len(shuffled) - 1
		for i := len(shuffled) - 1; i >= 0; i-- {
			if !hadBye[shuffled[i]] {
				idx = i
				break
			}
		}
		b := shuffled[idx]
		bye = &b
		shuffled = append(shuffled[:idx], shuffled[idx+1:]...)
	}

	pairs := make([]Pair, 0, len(shuffled)/2)
	for i := 0; i+1 < len(shuffled); i += 2 {
		pairs = append(pairs, Pair{Team1ID: shuffled[i], Team2ID: shuffled[i+1]})
	}
	return pairs, bye, nil
}

// PairSwiss pairs teams already sorted best-first by standing. Pairing is
// greedy top-down: each unpaired team takes the highest-ranked opponent it
// has not played yet. With an odd count the bye goes to the lowest-ranked
// team without a prior bye, before pairing.
//
// played reports whether two teams have already met in this tournament.
func PairSwiss(teamIDs []int, played func(a, b int) bool, hadBye map[int]bool) ([]Pair, *int, error) {
	teams := make([]int, len(teamIDs))
	copy(teams, teamIDs)

	var bye *int
	if len(teams)%2 != 0 {
		idx := -1
		for i := len(teams) - 1; i >= 0; i-- {
			if !hadBye[teams[i]] {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, ErrNoByeCandidate
		}
		b := teams[idx]
		bye = &b
		teams = append(teams[:idx], teams[idx+1:]...)
	}

	if len(teams) < 2 && bye == nil {
		return nil, nil, ErrNotEnoughTeams
	}

	paired := make(map[int]bool, len(teams))
	pairs := make([]Pair, 0, len(teams)/2)
	for i := 0; i < len(teams); i++ {
		if paired[teams[i]] {
			continue
		}
		found := false
		for j := i + 1; j < len(teams); j++ {
			if paired[teams[j]] {
				continue
			}
			if played(teams[i], teams[j]) {
				continue
			}
			pairs = append(pairs, Pair{Team1ID: teams[i], Team2ID: teams[j]})
			paired[teams[i]] = true
			paired[teams[j]] = true
			found = true
			break
		}
		if !found {
			return nil, nil, ErrNoValidOpponent
		}
	}
	return pairs, bye, nil
}

// PairRoundRobin returns every unordered pair of teams exactly once, in
// input order. Round-robin schedules are generated upfront, so there is no
// bye handling here.
func PairRoundRobin(teamIDs []int) []Pair {
	pairs := make([]Pair, 0, len(teamIDs)*(len(teamIDs)-1)/2)
	for i := 0; i < len(teamIDs); i++ {
		for j := i + 1; j < len(teamIDs); j++ {
			pairs = append(pairs, Pair{Team1ID: teamIDs[i], Team2ID: teamIDs[j]})
		}
	}
	return pairs
}
