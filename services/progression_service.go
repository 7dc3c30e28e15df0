package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/boulodrome/tournament-engine/brackets"
	"github.com/boulodrome/tournament-engine/live"
	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
)

// ProgressionService drives tournaments forward: it generates the
// opening round and, after every completed match, checks whether the
// current round is finished and builds the next one for the
// tournament's format.
type ProgressionService interface {
	// Advance runs one progression step. It is safe to call after every
	// match completion: the automation status acts as a single-flight
	// guard, and a caller losing that race returns without error.
	Advance(ctx context.Context, tournamentID int) error
	// GenerateInitialMatches builds round one. The tournament must not
	// have any rounds yet.
	GenerateInitialMatches(ctx context.Context, tournamentID int) (int, error)
	// ResetAutomation clears an error status back to idle so the engine
	// can be retriggered after manual intervention.
	ResetAutomation(ctx context.Context, tournamentID int) error
	// Standings returns the active entries in ranking order.
	Standings(ctx context.Context, tournamentID int) ([]*models.TournamentTeam, error)
}

type progressionService struct {
	tournamentRepo repositories.TournamentRepository
	ttRepo         repositories.TournamentTeamRepository
	matchRepo      repositories.MatchRepository
	roundRepo      repositories.RoundRepository
	stageRepo      repositories.StageRepository
	transactor     repositories.Transactor
	publisher      EventPublisher
	logger         *slog.Logger
	newRand        func() *rand.Rand
}

type ProgressionServiceDeps struct {
	TournamentRepo  repositories.TournamentRepository
	TournamentTeams repositories.TournamentTeamRepository
	MatchRepo       repositories.MatchRepository
	RoundRepo       repositories.RoundRepository
	StageRepo       repositories.StageRepository
	Transactor      repositories.Transactor
	Publisher       EventPublisher
	Logger          *slog.Logger
	// Rand overrides the pairing randomness source, for tests.
	Rand func() *rand.Rand
}

func NewProgressionService(deps ProgressionServiceDeps) ProgressionService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = NopPublisher{}
	}
	newRand := deps.Rand
	if newRand == nil {
		newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &progressionService{
		tournamentRepo: deps.TournamentRepo,
		ttRepo:         deps.TournamentTeams,
		matchRepo:      deps.MatchRepo,
		roundRepo:      deps.RoundRepo,
		stageRepo:      deps.StageRepo,
		transactor:     deps.Transactor,
		publisher:      publisher,
		logger:         deps.Logger,
		newRand:        newRand,
	}
}

func (s *progressionService) Advance(ctx context.Context, tournamentID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if !tournament.IsActive || tournament.AutomationStatus == models.AutomationCompleted {
		return nil
	}
	if tournament.AutomationStatus == models.AutomationError {
		// A previous run failed; stay parked until an admin resets.
		s.logger.Warn("progression skipped, automation is in error state",
			slog.Int("tournament_id", tournamentID))
		return nil
	}

	var claimed bool
	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var casErr error
		claimed, casErr = s.tournamentRepo.BeginAutomation(ctx, exec, tournamentID)
		return casErr
	})
	if err != nil {
		return fmt.Errorf("failed to claim automation for tournament %d: %w", tournamentID, err)
	}
	if !claimed {
		// Another caller is already processing this tournament.
		return nil
	}

	finalStatus, runErr := s.runStep(ctx, tournament)
	if runErr != nil {
		finalStatus = models.AutomationError
		s.logger.Error("progression step failed",
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", runErr),
		)
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.tournamentRepo.SetAutomationStatus(ctx, exec, tournamentID, finalStatus)
	})
	if err != nil {
		return fmt.Errorf("failed to finalize automation status for tournament %d: %w", tournamentID, err)
	}
	return runErr
}

// runStep inspects the current round and, when it is complete, applies
// the format's advancement rule. It returns the automation status the
// tournament should end up in.
func (s *progressionService) runStep(ctx context.Context, tournament *models.Tournament) (models.AutomationStatus, error) {
	if tournament.CurrentRoundNumber == 0 {
		return models.AutomationIdle, nil
	}
	round, err := s.roundRepo.GetByNumber(ctx, tournament.ID, tournament.CurrentRoundNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return models.AutomationIdle, nil
		}
		return models.AutomationIdle, fmt.Errorf("failed to load round %d: %w", tournament.CurrentRoundNumber, err)
	}

	matches, err := s.matchRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return models.AutomationIdle, fmt.Errorf("failed to list matches for round %d: %w", round.ID, err)
	}
	complete, winners := roundOutcome(matches)
	if !complete {
		return models.AutomationIdle, nil
	}

	switch tournament.Format {
	case models.FormatRoundRobin:
		return s.advanceRoundRobin(ctx, tournament, matches)
	case models.FormatKnockout:
		return s.advanceKnockout(ctx, tournament, round, nil, winners)
	case models.FormatSwiss:
		return s.advanceSwiss(ctx, tournament, round, nil)
	case models.FormatMultiStage:
		return s.advanceMultiStage(ctx, tournament, round, winners)
	default:
		return models.AutomationIdle, fmt.Errorf("%w: %s", ErrUnsupportedFormat, tournament.Format)
	}
}

// roundOutcome reports whether the round is finished and which teams
// won. Cancelled matches do not block completion and produce no winner;
// a completed match without a winner does block, since the engine
// cannot advance a team from it.
func roundOutcome(matches []*models.Match) (bool, []int) {
	if len(matches) == 0 {
		return false, nil
	}
	winners := make([]int, 0, len(matches))
	for _, m := range matches {
		switch m.Status {
		case models.MatchStatusCancelled:
			continue
		case models.MatchStatusCompleted:
			if m.WinnerTeamID == nil {
				return false, nil
			}
			winners = append(winners, *m.WinnerTeamID)
		default:
			return false, nil
		}
	}
	return true, winners
}

func (s *progressionService) GenerateInitialMatches(ctx context.Context, tournamentID int) (int, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return 0, ErrTournamentNotFound
		}
		return 0, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if !tournament.IsActive {
		return 0, ErrTournamentNotActive
	}
	if tournament.CurrentRoundNumber != 0 {
		return 0, fmt.Errorf("%w: tournament %d already has rounds", ErrValidationFailed, tournamentID)
	}

	teams, err := s.ttRepo.ListActive(ctx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to list teams for tournament %d: %w", tournamentID, err)
	}
	if len(teams) < 2 {
		return 0, ErrNotEnoughTeams
	}

	var created int
	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var genErr error
		created, genErr = s.generateOpeningRound(ctx, exec, tournament, teams)
		return genErr
	})
	if err != nil {
		return 0, err
	}

	s.publisher.Publish(tournamentID, live.EventRoundAdvanced, map[string]int{
		"round_number":    1,
		"matches_created": created,
	})
	return created, nil
}

func (s *progressionService) generateOpeningRound(
	ctx context.Context,
	exec repositories.SQLExecutor,
	tournament *models.Tournament,
	teams []*models.TournamentTeam,
) (int, error) {
	teamIDs := teamIDsOf(teams)

	var stage *models.Stage
	format := models.StageFormat(tournament.Format)
	if tournament.Format == models.FormatMultiStage {
		var err error
		stage, err = s.stageRepo.GetByNumber(ctx, tournament.ID, 1)
		if err != nil {
			if errors.Is(err, repositories.ErrStageNotFound) {
				return 0, fmt.Errorf("%w: multi-stage tournament %d has no first stage", ErrStageNotFound, tournament.ID)
			}
			return 0, err
		}
		format = stage.Format
	}

	var pairs []brackets.Pair
	var byeTeamID *int
	switch format {
	case models.StageFormatRoundRobin:
		pairs = brackets.PairRoundRobin(teamIDs)
	case models.StageFormatKnockout:
		var err error
		pairs, byeTeamID, err = brackets.PairKnockout(teamIDs, map[int]bool{}, s.newRand())
		if err != nil {
			return 0, err
		}
	case models.StageFormatSwiss:
		// No standings exist yet, so the opening round is drawn at
		// random rather than paired by rank.
		var err error
		pairs, byeTeamID, err = brackets.PairSwiss(shuffledIDs(teamIDs, s.newRand()), func(a, b int) bool { return false }, map[int]bool{})
		if err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	round := &models.Round{
		TournamentID:  tournament.ID,
		Number:        1,
		NumberInStage: 1,
		Name:          "Round 1",
	}
	if stage != nil {
		round.StageID = &stage.ID
		round.Name = fmt.Sprintf("%s, Round 1", stage.Name)
	}
	if err := s.roundRepo.Create(ctx, exec, round); err != nil {
		return 0, err
	}

	created, err := s.createMatches(ctx, exec, tournament.ID, stage, round, pairs)
	if err != nil {
		return 0, err
	}
	if byeTeamID != nil {
		if err := s.grantBye(ctx, exec, tournament.ID, *byeTeamID, round.Number); err != nil {
			return 0, err
		}
	}
	if err := s.tournamentRepo.SetCurrentRound(ctx, exec, tournament.ID, 1); err != nil {
		return 0, err
	}
	return created, nil
}

func (s *progressionService) createMatches(
	ctx context.Context,
	exec repositories.SQLExecutor,
	tournamentID int,
	stage *models.Stage,
	round *models.Round,
	pairs []brackets.Pair,
) (int, error) {
	for _, pair := range pairs {
		match := &models.Match{
			TournamentID: tournamentID,
			RoundID:      &round.ID,
			Team1ID:      pair.Team1ID,
			Team2ID:      pair.Team2ID,
			Status:       models.MatchStatusPending,
		}
		if stage != nil {
			match.StageID = &stage.ID
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return 0, err
		}
	}
	return len(pairs), nil
}

func (s *progressionService) grantBye(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID, roundNumber int) error {
	entry, err := s.ttRepo.GetByTeam(ctx, tournamentID, teamID)
	if err != nil {
		return fmt.Errorf("failed to load tournament entry for bye team %d: %w", teamID, err)
	}
	entry.ReceivedByeInRound = &roundNumber
	if err := s.ttRepo.Update(ctx, exec, entry); err != nil {
		return fmt.Errorf("failed to record bye for team %d: %w", teamID, err)
	}
	s.logger.Info("bye granted",
		slog.Int("tournament_id", tournamentID),
		slog.Int("team_id", teamID),
		slog.Int("round", roundNumber),
	)
	return nil
}

// completeTournament crowns the champion and parks the automation.
func (s *progressionService) completeTournament(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, winnerTeamID int) error {
	if err := s.tournamentRepo.SetWinner(ctx, exec, tournament.ID, &winnerTeamID); err != nil {
		return err
	}
	s.logger.Info("tournament completed",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("winner_team_id", winnerTeamID),
	)
	return nil
}

func (s *progressionService) ResetAutomation(ctx context.Context, tournamentID int) error {
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.tournamentRepo.SetAutomationStatus(ctx, exec, tournamentID, models.AutomationIdle)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to reset automation for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (s *progressionService) Standings(ctx context.Context, tournamentID int) ([]*models.TournamentTeam, error) {
	standings, err := s.ttRepo.ListActive(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings for tournament %d: %w", tournamentID, err)
	}
	return standings, nil
}

// advanceRoundRobin completes the tournament once its single all-pairs
// round is done. Ranking is wins first, then total points scored, then
// team id.
func (s *progressionService) advanceRoundRobin(ctx context.Context, tournament *models.Tournament, matches []*models.Match) (models.AutomationStatus, error) {
	wins := make(map[int]int)
	points := make(map[int]int)
	for _, m := range matches {
		if m.Status != models.MatchStatusCompleted {
			continue
		}
		if m.WinnerTeamID != nil {
			wins[*m.WinnerTeamID]++
		}
		if m.Team1Score != nil {
			points[m.Team1ID] += *m.Team1Score
		}
		if m.Team2Score != nil {
			points[m.Team2ID] += *m.Team2Score
		}
	}

	teams, err := s.ttRepo.ListActive(ctx, tournament.ID)
	if err != nil {
		return models.AutomationIdle, err
	}
	if len(teams) == 0 {
		return models.AutomationIdle, ErrNotEnoughTeams
	}

	best := teams[0].TeamID
	for _, tt := range teams[1:] {
		id := tt.TeamID
		if wins[id] > wins[best] ||
			(wins[id] == wins[best] && points[id] > points[best]) {
			best = id
		}
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.completeTournament(ctx, exec, tournament, best)
	})
	if err != nil {
		return models.AutomationIdle, err
	}
	s.publisher.Publish(tournament.ID, live.EventTournamentCompleted, map[string]int{"winner_team_id": best})
	return models.AutomationCompleted, nil
}

func teamIDsOf(teams []*models.TournamentTeam) []int {
	ids := make([]int, 0, len(teams))
	for _, tt := range teams {
		ids = append(ids, tt.TeamID)
	}
	return ids
}

func shuffledIDs(ids []int, r *rand.Rand) []int {
	shuffled := append([]int(nil), ids...)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// swissRoundTarget is the standard Swiss length for a field of n teams.
func swissRoundTarget(n int) int {
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}
