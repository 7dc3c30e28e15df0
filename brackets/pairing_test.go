package brackets

import (
	"errors"
	"math/rand"
	"testing"
)

func fixedRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestPairKnockoutEvenField(t *testing.T) {
	teams := []int{1, 2, 3, 4, 5, 6}
	pairs, bye, err := PairKnockout(teams, map[int]bool{}, fixedRand())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bye != nil {
		t.Fatalf("expected no bye for even field, got team %d", *bye)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}

	seen := map[int]bool{}
	for _, p := range pairs {
		if p.Team1ID == p.Team2ID {
			t.Fatalf("team %d paired with itself", p.Team1ID)
		}
		if seen[p.Team1ID] || seen[p.Team2ID] {
			t.Fatalf("team appears in more than one pair: %+v", pairs)
		}
		seen[p.Team1ID] = true
		seen[p.Team2ID] = true
	}
	for _, id := range teams {
		if !seen[id] {
			t.Errorf("team %d missing from pairing", id)
		}
	}
}

func TestPairKnockoutOddFieldGrantsBye(t *testing.T) {
	teams := []int{1, 2, 3, 4, 5}
	pairs, bye, err := PairKnockout(teams, map[int]bool{}, fixedRand())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bye == nil {
		t.Fatal("expected a bye for odd field")
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	for _, p := range pairs {
		if p.Team1ID == *bye || p.Team2ID == *bye {
			t.Fatalf("bye team %d also appears in a pair", *bye)
		}
	}
}

func TestPairKnockoutByeSkipsPriorByes(t *testing.T) {
	teams := []int{1, 2, 3}
	// Run many seeds: the bye must never land on a team that had one while
	// another candidate remains.
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		_, bye, err := PairKnockout(teams, map[int]bool{2: true}, rng)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		if bye == nil {
			t.Fatalf("seed %d: expected a bye", seed)
		}
		if *bye == 2 {
			t.Fatalf("seed %d: bye granted to team 2 which already had one", seed)
		}
	}
}

func TestPairKnockoutSecondByeWhenAllHadOne(t *testing.T) {
	teams := []int{1, 2, 3}
	hadBye := map[int]bool{1: true, 2: true, 3: true}
	pairs, bye, err := PairKnockout(teams, hadBye, fixedRand())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bye == nil {
		t.Fatal("expected a second bye when every team already had one")
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
}

func TestPairKnockoutNotEnoughTeams(t *testing.T) {
	if _, _, err := PairKnockout([]int{7}, map[int]bool{}, fixedRand()); !errors.Is(err, ErrNotEnoughTeams) {
		t.Fatalf("expected ErrNotEnoughTeams, got %v", err)
	}
}

func TestPairSwissPairsByStanding(t *testing.T) {
	// Teams arrive best-first; with no history the pairing is strictly
	// adjacent: 1v2, 3v4.
	teams := []int{1, 2, 3, 4}
	pairs, bye, err := PairSwiss(teams, neverPlayed, map[int]bool{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bye != nil {
		t.Fatalf("unexpected bye: %d", *bye)
	}
	want := []Pair{{1, 2}, {3, 4}}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %d", len(want), len(pairs))
	}
	for i, p := range pairs {
		if p != want[i] {
			t.Errorf("pair %d: got %+v, want %+v", i, p, want[i])
		}
	}
}

func TestPairSwissSkipsRematches(t *testing.T) {
	teams := []int{1, 2, 3, 4}
	played := func(a, b int) bool {
		return (a == 1 && b == 2) || (a == 2 && b == 1)
	}
	pairs, _, err := PairSwiss(teams, played, map[int]bool{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Pair{{1, 3}, {2, 4}}
	for i, p := range pairs {
		if p != want[i] {
			t.Errorf("pair %d: got %+v, want %+v", i, p, want[i])
		}
	}
}

func TestPairSwissByeGoesToLowestRankedWithoutBye(t *testing.T) {
	teams := []int{1, 2, 3, 4, 5}
	_, bye, err := PairSwiss(teams, neverPlayed, map[int]bool{5: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bye == nil || *bye != 4 {
		t.Fatalf("expected bye for team 4, got %v", bye)
	}
}

func TestPairSwissNoByeCandidate(t *testing.T) {
	teams := []int{1, 2, 3}
	hadBye := map[int]bool{1: true, 2: true, 3: true}
	if _, _, err := PairSwiss(teams, neverPlayed, hadBye); !errors.Is(err, ErrNoByeCandidate) {
		t.Fatalf("expected ErrNoByeCandidate, got %v", err)
	}
}

func TestPairSwissNoValidOpponent(t *testing.T) {
	// Everyone has already played everyone.
	teams := []int{1, 2, 3, 4}
	allPlayed := func(a, b int) bool { return true }
	if _, _, err := PairSwiss(teams, allPlayed, map[int]bool{}); !errors.Is(err, ErrNoValidOpponent) {
		t.Fatalf("expected ErrNoValidOpponent, got %v", err)
	}
}

func TestPairSwissGreedyDeadEnd(t *testing.T) {
	// 1v2 and 3v4 pair greedily, but 3 and 4 already met and neither can
	// reach a fresh opponent. The greedy pass stops rather than backtrack.
	teams := []int{1, 2, 3, 4}
	played := func(a, b int) bool {
		return (a == 3 && b == 4) || (a == 4 && b == 3)
	}
	if _, _, err := PairSwiss(teams, played, map[int]bool{}); !errors.Is(err, ErrNoValidOpponent) {
		t.Fatalf("expected ErrNoValidOpponent, got %v", err)
	}
}

func TestPairRoundRobinAllPairsOnce(t *testing.T) {
	teams := []int{10, 20, 30, 40}
	pairs := PairRoundRobin(teams)
	if len(pairs) != 6 {
		t.Fatalf("expected 6 pairs for 4 teams, got %d", len(pairs))
	}
	seen := map[[2]int]bool{}
	for _, p := range pairs {
		key := [2]int{p.Team1ID, p.Team2ID}
		if p.Team1ID > p.Team2ID {
			key = [2]int{p.Team2ID, p.Team1ID}
		}
		if seen[key] {
			t.Fatalf("duplicate pair %+v", p)
		}
		seen[key] = true
	}
}

func neverPlayed(a, b int) bool { return false }
