package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
)

const testPIN = "2468"

var testPINHash string

func init() {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPIN), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	testPINHash = string(hash)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv wires the services against the in-memory store. The match
// service is built without the progression trigger so lifecycle tests
// stay independent of round advancement; the integration tests wire
// their own.
type testEnv struct {
	store       *repositories.MemoryStore
	teams       TeamService
	courts      CourtService
	matches     MatchService
	progression ProgressionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repositories.NewMemoryStore()
	logger := discardLogger()

	teams := NewTeamService(store.Teams())
	courts := NewCourtService(store.Courts(), store.Matches(), store, logger)
	progression := NewProgressionService(ProgressionServiceDeps{
		TournamentRepo:  store.Tournaments(),
		TournamentTeams: store.TournamentTeams(),
		MatchRepo:       store.Matches(),
		RoundRepo:       store.Rounds(),
		StageRepo:       store.Stages(),
		Transactor:      store,
		Logger:          logger,
		Rand:            func() *rand.Rand { return rand.New(rand.NewSource(7)) },
	})
	matches := NewMatchService(MatchServiceDeps{
		MatchRepo:       store.Matches(),
		ActivationRepo:  store.Activations(),
		MatchPlayerRepo: store.MatchPlayers(),
		ResultRepo:      store.Results(),
		TournamentRepo:  store.Tournaments(),
		TournamentTeams: store.TournamentTeams(),
		TeamService:     teams,
		CourtService:    courts,
		Transactor:      store,
		Logger:          logger,
	})

	return &testEnv{
		store:       store,
		teams:       teams,
		courts:      courts,
		matches:     matches,
		progression: progression,
	}
}

func (e *testEnv) seedTeam(name string, playerCount int) (*models.Team, []int) {
	team := e.store.SeedTeam(&models.Team{Name: name, PinHash: testPINHash})
	playerIDs := make([]int, 0, playerCount)
	for i := 0; i < playerCount; i++ {
		p := e.store.SeedPlayer(&models.Player{
			TeamID: team.ID,
			Name:   fmt.Sprintf("%s player %d", name, i+1),
		})
		playerIDs = append(playerIDs, p.ID)
	}
	return team, playerIDs
}

func (e *testEnv) enterTournament(tournamentID, teamID int) *models.TournamentTeam {
	return e.store.SeedTournamentTeam(&models.TournamentTeam{
		TournamentID:       tournamentID,
		TeamID:             teamID,
		IsActive:           true,
		CurrentStageNumber: 1,
	})
}

func selections(playerIDs ...int) []PlayerSelection {
	sels := make([]PlayerSelection, 0, len(playerIDs))
	for _, id := range playerIDs {
		sels = append(sels, PlayerSelection{PlayerID: id, Role: models.RolePointer})
	}
	return sels
}

// completeMatch marks the match completed with the given winner and
// records the opponents, mirroring what result validation does.
func (e *testEnv) completeMatch(t *testing.T, m *models.Match, winnerID, winScore, loseScore int) {
	t.Helper()
	ctx := context.Background()
	loserID := m.Opponent(winnerID)

	s1, s2 := winScore, loseScore
	if m.Team2ID == winnerID {
		s1, s2 = loseScore, winScore
	}
	m.Team1Score = &s1
	m.Team2Score = &s2
	m.Status = models.MatchStatusCompleted
	m.WinnerTeamID = &winnerID
	m.LoserTeamID = &loserID

	err := e.store.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := e.store.Matches().Update(ctx, exec, m); err != nil {
			return err
		}
		winner, err := e.store.TournamentTeams().GetByTeam(ctx, m.TournamentID, winnerID)
		if err != nil {
			return err
		}
		loser, err := e.store.TournamentTeams().GetByTeam(ctx, m.TournamentID, loserID)
		if err != nil {
			return err
		}
		if err := e.store.TournamentTeams().AddOpponent(ctx, exec, winner.ID, loserID); err != nil {
			return err
		}
		return e.store.TournamentTeams().AddOpponent(ctx, exec, loser.ID, winnerID)
	})
	if err != nil {
		t.Fatalf("completeMatch(%d): %v", m.ID, err)
	}
}

func (e *testEnv) roundMatches(t *testing.T, tournamentID, roundNumber int) []*models.Match {
	t.Helper()
	ctx := context.Background()
	round, err := e.store.Rounds().GetByNumber(ctx, tournamentID, roundNumber)
	if err != nil {
		t.Fatalf("round %d not found: %v", roundNumber, err)
	}
	matches, err := e.store.Matches().ListByRound(ctx, round.ID)
	if err != nil {
		t.Fatalf("failed to list matches for round %d: %v", roundNumber, err)
	}
	return matches
}

func (e *testEnv) tournament(t *testing.T, id int) *models.Tournament {
	t.Helper()
	tournament, err := e.store.Tournaments().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("tournament %d not found: %v", id, err)
	}
	return tournament
}

func (e *testEnv) match(t *testing.T, id int) *models.Match {
	t.Helper()
	m, err := e.store.Matches().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("match %d not found: %v", id, err)
	}
	return m
}

func (e *testEnv) entry(t *testing.T, tournamentID, teamID int) *models.TournamentTeam {
	t.Helper()
	tt, err := e.store.TournamentTeams().GetByTeam(context.Background(), tournamentID, teamID)
	if err != nil {
		t.Fatalf("tournament team for team %d not found: %v", teamID, err)
	}
	return tt
}

func (e *testEnv) court(t *testing.T, id int) *models.Court {
	t.Helper()
	c, err := e.store.Courts().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("court %d not found: %v", id, err)
	}
	return c
}
