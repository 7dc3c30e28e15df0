package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/boulodrome/tournament-engine/brackets"
	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
)

func seedField(env *testEnv, tournamentID, teams int) []*models.Team {
	field := make([]*models.Team, 0, teams)
	for i := 0; i < teams; i++ {
		team, _ := env.seedTeam(string(rune('A'+i)), 1)
		env.enterTournament(tournamentID, team.ID)
		field = append(field, team)
	}
	return field
}

func TestGenerateInitialMatchesRoundRobin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Liga", Format: models.FormatRoundRobin, IsActive: true,
	})
	seedField(env, tournament.ID, 4)

	created, err := env.progression.GenerateInitialMatches(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if created != 6 {
		t.Fatalf("expected 6 matches for 4 teams, got %d", created)
	}
	if got := env.tournament(t, tournament.ID).CurrentRoundNumber; got != 1 {
		t.Fatalf("expected current round 1, got %d", got)
	}

	if _, err := env.progression.GenerateInitialMatches(ctx, tournament.ID); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("regeneration should fail, got %v", err)
	}

	empty := env.store.SeedTournament(&models.Tournament{
		Name: "Empty", Format: models.FormatRoundRobin, IsActive: true,
	})
	if _, err := env.progression.GenerateInitialMatches(ctx, empty.ID); !errors.Is(err, ErrNotEnoughTeams) {
		t.Fatalf("expected ErrNotEnoughTeams, got %v", err)
	}

	closed := env.store.SeedTournament(&models.Tournament{
		Name: "Closed", Format: models.FormatRoundRobin, IsActive: false,
	})
	if _, err := env.progression.GenerateInitialMatches(ctx, closed.ID); !errors.Is(err, ErrTournamentNotActive) {
		t.Fatalf("expected ErrTournamentNotActive, got %v", err)
	}
}

func TestRoundRobinCrownsChampion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Liga", Format: models.FormatRoundRobin, IsActive: true,
	})
	field := seedField(env, tournament.ID, 3)

	if _, err := env.progression.GenerateInitialMatches(ctx, tournament.ID); err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	// The first team wins every match it plays.
	for _, m := range env.roundMatches(t, tournament.ID, 1) {
		winner := m.Team1ID
		if m.Team2ID < winner {
			winner = m.Team2ID
		}
		env.completeMatch(t, m, winner, 13, 6)
	}
	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	final := env.tournament(t, tournament.ID)
	if final.WinnerTeamID == nil || *final.WinnerTeamID != field[0].ID {
		t.Fatalf("expected team %d as champion, got %v", field[0].ID, final.WinnerTeamID)
	}
	if final.IsActive {
		t.Error("tournament should be closed")
	}
	if final.AutomationStatus != models.AutomationCompleted {
		t.Errorf("expected automation completed, got %q", final.AutomationStatus)
	}
}

func TestKnockoutProgression(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Cup", Format: models.FormatKnockout, IsActive: true,
	})
	seedField(env, tournament.ID, 4)

	created, err := env.progression.GenerateInitialMatches(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 opening matches, got %d", created)
	}

	winners := make(map[int]bool, 2)
	for _, m := range env.roundMatches(t, tournament.ID, 1) {
		env.completeMatch(t, m, m.Team1ID, 13, 8)
		winners[m.Team1ID] = true
	}
	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	finals := env.roundMatches(t, tournament.ID, 2)
	if len(finals) != 1 {
		t.Fatalf("expected a single final, got %d matches", len(finals))
	}
	final := finals[0]
	if !winners[final.Team1ID] || !winners[final.Team2ID] {
		t.Fatalf("final must be between round 1 winners, got %d vs %d", final.Team1ID, final.Team2ID)
	}

	// The two losers are out of the bracket.
	entries, err := env.store.TournamentTeams().ListActive(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 surviving entries, got %d", len(entries))
	}

	env.completeMatch(t, final, final.Team2ID, 13, 11)
	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("final advance failed: %v", err)
	}

	done := env.tournament(t, tournament.ID)
	if done.WinnerTeamID == nil || *done.WinnerTeamID != final.Team2ID {
		t.Fatalf("expected champion %d, got %v", final.Team2ID, done.WinnerTeamID)
	}
	if done.AutomationStatus != models.AutomationCompleted {
		t.Errorf("expected automation completed, got %q", done.AutomationStatus)
	}

	// Once completed, further triggers are no-ops.
	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("advance after completion should be silent, got %v", err)
	}
}

func TestKnockoutByeAdvancesWithWinners(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Cup", Format: models.FormatKnockout, IsActive: true,
	})
	field := seedField(env, tournament.ID, 3)

	if _, err := env.progression.GenerateInitialMatches(ctx, tournament.ID); err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	var byeTeamID int
	for _, team := range field {
		if entry := env.entry(t, tournament.ID, team.ID); entry.ReceivedByeInRound != nil {
			if *entry.ReceivedByeInRound != 1 {
				t.Fatalf("bye recorded for round %d, want 1", *entry.ReceivedByeInRound)
			}
			byeTeamID = team.ID
		}
	}
	if byeTeamID == 0 {
		t.Fatal("no bye granted for an odd field")
	}

	opening := env.roundMatches(t, tournament.ID, 1)
	if len(opening) != 1 {
		t.Fatalf("expected 1 opening match, got %d", len(opening))
	}
	env.completeMatch(t, opening[0], opening[0].Team1ID, 13, 3)

	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	finals := env.roundMatches(t, tournament.ID, 2)
	if len(finals) != 1 {
		t.Fatalf("expected a final between winner and bye team, got %d matches", len(finals))
	}
	final := finals[0]
	if !final.HasTeam(byeTeamID) {
		t.Fatalf("bye team %d should play the final (%d vs %d)", byeTeamID, final.Team1ID, final.Team2ID)
	}
	if !final.HasTeam(opening[0].Team1ID) {
		t.Fatalf("round 1 winner should play the final (%d vs %d)", final.Team1ID, final.Team2ID)
	}

	env.completeMatch(t, final, byeTeamID, 13, 10)
	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("final advance failed: %v", err)
	}
	done := env.tournament(t, tournament.ID)
	if done.WinnerTeamID == nil || *done.WinnerTeamID != byeTeamID {
		t.Fatalf("expected champion %d, got %v", byeTeamID, done.WinnerTeamID)
	}
}

func TestAdvanceWaitsForRoundCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Cup", Format: models.FormatKnockout, IsActive: true,
	})
	seedField(env, tournament.ID, 4)
	if _, err := env.progression.GenerateInitialMatches(ctx, tournament.ID); err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	opening := env.roundMatches(t, tournament.ID, 1)
	env.completeMatch(t, opening[0], opening[0].Team1ID, 13, 8)

	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if _, err := env.store.Rounds().GetByNumber(ctx, tournament.ID, 2); !errors.Is(err, repositories.ErrRoundNotFound) {
		t.Fatalf("round 2 must not exist while round 1 is in play, got %v", err)
	}
	if got := env.tournament(t, tournament.ID).AutomationStatus; got != models.AutomationIdle {
		t.Fatalf("automation should return to idle, got %q", got)
	}
}

func TestBeginAutomationSingleFlight(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Cup", Format: models.FormatKnockout, IsActive: true,
	})

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		claims int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := env.store.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
				claimed, err := env.store.Tournaments().BeginAutomation(ctx, exec, tournament.ID)
				if err != nil {
					return err
				}
				if claimed {
					mu.Lock()
					claims++
					mu.Unlock()
				}
				return nil
			})
			if err != nil {
				t.Errorf("claim attempt failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if claims != 1 {
		t.Fatalf("expected exactly one claim to win, got %d", claims)
	}
}

func TestAdvanceSkipsWhileProcessing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Cup", Format: models.FormatKnockout, IsActive: true,
	})
	seedField(env, tournament.ID, 4)
	if _, err := env.progression.GenerateInitialMatches(ctx, tournament.ID); err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	for _, m := range env.roundMatches(t, tournament.ID, 1) {
		env.completeMatch(t, m, m.Team1ID, 13, 5)
	}

	// Simulate a concurrent run holding the guard.
	err := env.store.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return env.store.Tournaments().SetAutomationStatus(ctx, exec, tournament.ID, models.AutomationProcessing)
	})
	if err != nil {
		t.Fatalf("failed to set status: %v", err)
	}

	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("losing the claim should be silent, got %v", err)
	}
	if _, err := env.store.Rounds().GetByNumber(ctx, tournament.ID, 2); !errors.Is(err, repositories.ErrRoundNotFound) {
		t.Fatal("round 2 must not be created by the losing caller")
	}

	err = env.store.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return env.store.Tournaments().SetAutomationStatus(ctx, exec, tournament.ID, models.AutomationIdle)
	})
	if err != nil {
		t.Fatalf("failed to reset status: %v", err)
	}
	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if _, err := env.store.Rounds().GetByNumber(ctx, tournament.ID, 2); err != nil {
		t.Fatalf("round 2 should exist after the idle caller advances: %v", err)
	}
}

func TestSwissProgression(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Swiss Open", Format: models.FormatSwiss, IsActive: true,
	})
	seedField(env, tournament.ID, 4)

	if _, err := env.progression.GenerateInitialMatches(ctx, tournament.ID); err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	// The opening draw is random, so winners and losers are taken from
	// the matches as generated: the first-listed team of each pairing
	// wins its match.
	round1 := env.roundMatches(t, tournament.ID, 1)
	if len(round1) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(round1))
	}
	winner1, loser1 := round1[0].Team1ID, round1[0].Team2ID
	winner2, loser2 := round1[1].Team1ID, round1[1].Team2ID
	env.completeMatch(t, round1[0], winner1, 13, 5)
	env.completeMatch(t, round1[1], winner2, 13, 7)

	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	if got := env.entry(t, tournament.ID, winner1).SwissPoints; got != 3 {
		t.Errorf("round 1 winner should have 3 points, got %d", got)
	}
	if got := env.entry(t, tournament.ID, loser1).SwissPoints; got != 0 {
		t.Errorf("round 1 loser should have 0 points, got %d", got)
	}
	if got := env.entry(t, tournament.ID, loser1).BuchholzScore; got != 3 {
		t.Errorf("loser Buchholz should be 3 (its opponent's points), got %v", got)
	}

	// Round 2 pairs winners together and losers together, no rematches.
	round2 := env.roundMatches(t, tournament.ID, 2)
	if len(round2) != 2 {
		t.Fatalf("expected 2 matches in round 2, got %d", len(round2))
	}
	var winnersMatch, losersMatch *models.Match
	for _, m := range round2 {
		if m.HasTeam(winner1) {
			winnersMatch = m
		} else {
			losersMatch = m
		}
	}
	if winnersMatch == nil || !winnersMatch.HasTeam(winner2) {
		t.Fatalf("round 1 winners should meet in round 2")
	}
	if losersMatch == nil || !losersMatch.HasTeam(loser1) || !losersMatch.HasTeam(loser2) {
		t.Fatalf("round 1 losers should meet in round 2")
	}

	// winner1 takes the final; loser2's second loss keeps the runner-up
	// Buchholz computable from the champion alone.
	env.completeMatch(t, winnersMatch, winner1, 13, 9)
	env.completeMatch(t, losersMatch, loser1, 13, 6)

	// Two rounds is the Swiss target for four teams.
	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("final advance failed: %v", err)
	}

	done := env.tournament(t, tournament.ID)
	if done.WinnerTeamID == nil || *done.WinnerTeamID != winner1 {
		t.Fatalf("expected champion %d, got %v", winner1, done.WinnerTeamID)
	}
	if done.AutomationStatus != models.AutomationCompleted {
		t.Errorf("expected automation completed, got %q", done.AutomationStatus)
	}
	if got := env.entry(t, tournament.ID, winner1).SwissPoints; got != 6 {
		t.Errorf("champion should finish on 6 points, got %d", got)
	}
	// Runner-up faced the champion (6) and loser2 (0).
	if got := env.entry(t, tournament.ID, winner2).BuchholzScore; got != 6 {
		t.Errorf("runner-up Buchholz should be 6, got %v", got)
	}
}

func TestSwissOpeningRoundIsDrawnAtRandom(t *testing.T) {
	pairingSets := make(map[string]bool)
	for seed := int64(0); seed < 20; seed++ {
		seed := seed
		env := newTestEnv(t)
		env.progression = NewProgressionService(ProgressionServiceDeps{
			TournamentRepo:  env.store.Tournaments(),
			TournamentTeams: env.store.TournamentTeams(),
			MatchRepo:       env.store.Matches(),
			RoundRepo:       env.store.Rounds(),
			StageRepo:       env.store.Stages(),
			Transactor:      env.store,
			Logger:          discardLogger(),
			Rand:            func() *rand.Rand { return rand.New(rand.NewSource(seed)) },
		})
		ctx := context.Background()

		tournament := env.store.SeedTournament(&models.Tournament{
			Name: "Swiss Open", Format: models.FormatSwiss, IsActive: true,
		})
		field := seedField(env, tournament.ID, 8)
		idOffset := field[0].ID

		if _, err := env.progression.GenerateInitialMatches(ctx, tournament.ID); err != nil {
			t.Fatalf("generation failed for seed %d: %v", seed, err)
		}

		matches := env.roundMatches(t, tournament.ID, 1)
		if len(matches) != 4 {
			t.Fatalf("expected 4 matches for 8 teams, got %d", len(matches))
		}
		seen := make(map[int]bool, 8)
		signature := ""
		for _, m := range matches {
			seen[m.Team1ID] = true
			seen[m.Team2ID] = true
			a, b := m.Team1ID-idOffset, m.Team2ID-idOffset
			if a > b {
				a, b = b, a
			}
			signature += fmt.Sprintf("(%d,%d)", a, b)
		}
		if len(seen) != 8 {
			t.Fatalf("every team must play exactly once, saw %d teams", len(seen))
		}
		pairingSets[signature] = true
	}

	if len(pairingSets) < 2 {
		t.Fatal("the opening draw must vary with the randomness source")
	}
}

func TestSwissPairingFailureParksAutomation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Swiss Open", Format: models.FormatSwiss, IsActive: true, CurrentRoundNumber: 1,
	})
	field := seedField(env, tournament.ID, 3)

	// Every team has already had its bye, so the odd field cannot be
	// paired for round 2.
	roundOne := 1
	for _, team := range field {
		entry := env.entry(t, tournament.ID, team.ID)
		entry.ReceivedByeInRound = &roundOne
		err := env.store.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			return env.store.TournamentTeams().Update(ctx, exec, entry)
		})
		if err != nil {
			t.Fatalf("failed to seed bye: %v", err)
		}
	}

	round := env.store.SeedRound(&models.Round{
		TournamentID: tournament.ID, Number: 1, NumberInStage: 1, Name: "Round 1",
	})
	winner := field[0].ID
	env.store.SeedMatch(&models.Match{
		TournamentID: tournament.ID,
		RoundID:      &round.ID,
		Team1ID:      field[0].ID,
		Team2ID:      field[1].ID,
		Status:       models.MatchStatusCompleted,
		WinnerTeamID: &winner,
	})

	err := env.progression.Advance(ctx, tournament.ID)
	if !errors.Is(err, brackets.ErrNoByeCandidate) {
		t.Fatalf("expected ErrNoByeCandidate, got %v", err)
	}
	if got := env.tournament(t, tournament.ID).AutomationStatus; got != models.AutomationError {
		t.Fatalf("automation should park in error state, got %q", got)
	}

	// Parked tournaments ignore further triggers until reset.
	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("advance while parked should be silent, got %v", err)
	}
	if err := env.progression.ResetAutomation(ctx, tournament.ID); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if got := env.tournament(t, tournament.ID).AutomationStatus; got != models.AutomationIdle {
		t.Fatalf("expected idle after reset, got %q", got)
	}

	if err := env.progression.ResetAutomation(ctx, 9999); !errors.Is(err, ErrTournamentNotFound) {
		t.Fatalf("expected ErrTournamentNotFound, got %v", err)
	}
}

func TestMultiStageProgression(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Championnat", Format: models.FormatMultiStage, IsActive: true,
	})
	env.store.SeedStage(&models.Stage{
		TournamentID:  tournament.ID,
		StageNumber:   1,
		Name:          "Group",
		Format:        models.StageFormatRoundRobin,
		NumQualifiers: 2,
	})
	field := seedField(env, tournament.ID, 4)
	teamA, teamB := field[0].ID, field[1].ID

	created, err := env.progression.GenerateInitialMatches(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if created != 6 {
		t.Fatalf("expected a full group round of 6 matches, got %d", created)
	}

	// Lower-id teams win everything: A 3 wins, B 2, C 1, D 0.
	for _, m := range env.roundMatches(t, tournament.ID, 1) {
		winner := m.Team1ID
		if m.Team2ID < winner {
			winner = m.Team2ID
		}
		env.completeMatch(t, m, winner, 13, 7)
	}
	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("group advance failed: %v", err)
	}

	if !env.entry(t, tournament.ID, teamA).IsActive || env.entry(t, tournament.ID, teamA).CurrentStageNumber != 2 {
		t.Error("team A should qualify into stage 2")
	}
	if env.entry(t, tournament.ID, field[2].ID).IsActive {
		t.Error("team C should be eliminated after the group stage")
	}

	stage1, err := env.store.Stages().GetByNumber(ctx, tournament.ID, 1)
	if err != nil {
		t.Fatalf("stage 1 not found: %v", err)
	}
	if !stage1.IsComplete {
		t.Error("stage 1 should be marked complete")
	}

	// No stage 2 was configured, so a knockout playoff is created.
	playoff := env.roundMatches(t, tournament.ID, 2)
	if len(playoff) != 1 {
		t.Fatalf("expected a single playoff match, got %d", len(playoff))
	}
	if !playoff[0].HasTeam(teamA) || !playoff[0].HasTeam(teamB) {
		t.Fatalf("playoff should pit the qualifiers, got %d vs %d", playoff[0].Team1ID, playoff[0].Team2ID)
	}

	env.completeMatch(t, playoff[0], teamA, 13, 12)
	if err := env.progression.Advance(ctx, tournament.ID); err != nil {
		t.Fatalf("playoff advance failed: %v", err)
	}

	done := env.tournament(t, tournament.ID)
	if done.WinnerTeamID == nil || *done.WinnerTeamID != teamA {
		t.Fatalf("expected champion %d, got %v", teamA, done.WinnerTeamID)
	}
	if done.AutomationStatus != models.AutomationCompleted {
		t.Errorf("expected automation completed, got %q", done.AutomationStatus)
	}
}

func TestMultiStageRequiresConfiguredFirstStage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Championnat", Format: models.FormatMultiStage, IsActive: true,
	})
	seedField(env, tournament.ID, 4)

	if _, err := env.progression.GenerateInitialMatches(ctx, tournament.ID); !errors.Is(err, ErrStageNotFound) {
		t.Fatalf("expected ErrStageNotFound, got %v", err)
	}
}

func TestMatchCompletionTriggersProgression(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	matches := NewMatchService(MatchServiceDeps{
		MatchRepo:       env.store.Matches(),
		ActivationRepo:  env.store.Activations(),
		MatchPlayerRepo: env.store.MatchPlayers(),
		ResultRepo:      env.store.Results(),
		TournamentRepo:  env.store.Tournaments(),
		TournamentTeams: env.store.TournamentTeams(),
		TeamService:     env.teams,
		CourtService:    env.courts,
		Transactor:      env.store,
		Progression:     env.progression,
		Logger:          discardLogger(),
	})

	tournament := env.store.SeedTournament(&models.Tournament{
		Name: "Duel", Format: models.FormatKnockout, IsActive: true,
	})
	teamA, playersA := env.seedTeam("A", 1)
	teamB, playersB := env.seedTeam("B", 1)
	env.enterTournament(tournament.ID, teamA.ID)
	env.enterTournament(tournament.ID, teamB.ID)
	env.store.SeedCourt(&models.Court{Number: 1, IsAvailable: true})

	if _, err := env.progression.GenerateInitialMatches(ctx, tournament.ID); err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	opening := env.roundMatches(t, tournament.ID, 1)
	if len(opening) != 1 {
		t.Fatalf("expected 1 match, got %d", len(opening))
	}
	match := opening[0]

	if _, err := matches.Activate(ctx, ActivationInput{
		MatchID: match.ID, TeamID: teamA.ID, PIN: testPIN, Players: selections(playersA...),
	}); err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	if _, err := matches.Activate(ctx, ActivationInput{
		MatchID: match.ID, TeamID: teamB.ID, PIN: testPIN, Players: selections(playersB...),
	}); err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	if _, err := matches.SubmitResult(ctx, ResultInput{
		MatchID: match.ID, TeamID: teamA.ID, PIN: testPIN,
		Team1Score: 13, Team2Score: 2,
	}); err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	if _, err := matches.ValidateResult(ctx, match.ID, teamB.ID, testPIN, true); err != nil {
		t.Fatalf("validation failed: %v", err)
	}

	// Validation of the lone match drives the tournament to completion.
	done := env.tournament(t, tournament.ID)
	if done.WinnerTeamID == nil || *done.WinnerTeamID != match.Team1ID {
		t.Fatalf("expected champion %d, got %v", match.Team1ID, done.WinnerTeamID)
	}
	if done.AutomationStatus != models.AutomationCompleted {
		t.Fatalf("expected automation completed, got %q", done.AutomationStatus)
	}
	if done.IsActive {
		t.Error("tournament should be closed")
	}
}
