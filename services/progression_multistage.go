package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/boulodrome/tournament-engine/brackets"
	"github.com/boulodrome/tournament-engine/live"
	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
)

// advanceMultiStage delegates to the stage's own format. Group stages
// (round robin or Swiss) qualify their top teams into the next stage;
// knockout stages cut the field down to the qualifier count.
func (s *progressionService) advanceMultiStage(
	ctx context.Context,
	tournament *models.Tournament,
	round *models.Round,
	winners []int,
) (models.AutomationStatus, error) {
	if round.StageID == nil {
		return models.AutomationIdle, fmt.Errorf("round %d of multi-stage tournament %d has no stage", round.Number, tournament.ID)
	}
	stage, err := s.stageRepo.GetByID(ctx, *round.StageID)
	if err != nil {
		if errors.Is(err, repositories.ErrStageNotFound) {
			return models.AutomationIdle, ErrStageNotFound
		}
		return models.AutomationIdle, fmt.Errorf("failed to load stage %d: %w", *round.StageID, err)
	}

	switch stage.Format {
	case models.StageFormatKnockout:
		return s.advanceKnockout(ctx, tournament, round, stage, winners)
	case models.StageFormatSwiss:
		return s.advanceSwiss(ctx, tournament, round, stage)
	case models.StageFormatRoundRobin:
		return s.advanceRoundRobinStage(ctx, tournament, round, stage)
	default:
		return models.AutomationIdle, fmt.Errorf("%w: stage format %s", ErrUnsupportedFormat, stage.Format)
	}
}

// advanceRoundRobinStage finishes a group stage. A round robin stage is
// generated as a single all-pairs round, so a completed round means a
// completed stage: rank by wins, then points scored, then team id.
func (s *progressionService) advanceRoundRobinStage(
	ctx context.Context,
	tournament *models.Tournament,
	round *models.Round,
	stage *models.Stage,
) (models.AutomationStatus, error) {
	entries, err := s.scopedEntries(ctx, tournament, stage)
	if err != nil {
		return models.AutomationIdle, err
	}
	matches, err := s.matchRepo.ListByStage(ctx, stage.ID)
	if err != nil {
		return models.AutomationIdle, fmt.Errorf("failed to list matches for stage %d: %w", stage.ID, err)
	}

	wins := make(map[int]int)
	points := make(map[int]int)
	for _, m := range onlyCompleted(matches) {
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

	ranked := append([]*models.TournamentTeam(nil), entries...)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i].TeamID, ranked[j].TeamID
		if wins[a] != wins[b] {
			return wins[a] > wins[b]
		}
		if points[a] != points[b] {
			return points[a] > points[b]
		}
		return a < b
	})

	qualifiers := make([]int, 0, stage.NumQualifiers)
	for _, tt := range ranked {
		if len(qualifiers) == stage.NumQualifiers {
			break
		}
		qualifiers = append(qualifiers, tt.TeamID)
	}
	return s.completeStage(ctx, tournament, stage, qualifiers)
}

// completeStage promotes the qualifiers into the next stage and
// eliminates everyone else. Fewer than two qualifiers ends the whole
// tournament.
func (s *progressionService) completeStage(
	ctx context.Context,
	tournament *models.Tournament,
	stage *models.Stage,
	qualifiers []int,
) (models.AutomationStatus, error) {
	if len(qualifiers) == 0 {
		return models.AutomationIdle, fmt.Errorf("stage %d completed with no qualifiers", stage.StageNumber)
	}

	entries, err := s.scopedEntries(ctx, tournament, stage)
	if err != nil {
		return models.AutomationIdle, err
	}
	qualified := make(map[int]bool, len(qualifiers))
	for _, id := range qualifiers {
		qualified[id] = true
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.stageRepo.SetComplete(ctx, exec, stage.ID); err != nil {
			return err
		}
		for _, tt := range entries {
			if qualified[tt.TeamID] {
				tt.CurrentStageNumber = stage.StageNumber + 1
				// Bye history does not carry across stages.
				tt.ReceivedByeInRound = nil
			} else {
				tt.IsActive = false
			}
			if err := s.ttRepo.Update(ctx, exec, tt); err != nil {
				return fmt.Errorf("failed to update stage entry for team %d: %w", tt.TeamID, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.AutomationIdle, err
	}

	s.logger.Info("stage completed",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("stage_number", stage.StageNumber),
		slog.Int("qualifiers", len(qualifiers)),
	)

	if len(qualifiers) < 2 {
		champion := qualifiers[0]
		err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			return s.completeTournament(ctx, exec, tournament, champion)
		})
		if err != nil {
			return models.AutomationIdle, err
		}
		s.publisher.Publish(tournament.ID, live.EventTournamentCompleted, map[string]int{"winner_team_id": champion})
		return models.AutomationCompleted, nil
	}

	return s.openNextStage(ctx, tournament, stage, qualifiers)
}

// openNextStage creates (or loads) the following stage and generates
// its first round from the qualifier list. A missing next stage
// defaults to a knockout playoff for a single winner.
func (s *progressionService) openNextStage(
	ctx context.Context,
	tournament *models.Tournament,
	finished *models.Stage,
	qualifiers []int,
) (models.AutomationStatus, error) {
	nextStage, err := s.stageRepo.GetByNumber(ctx, tournament.ID, finished.StageNumber+1)
	if err != nil {
		if !errors.Is(err, repositories.ErrStageNotFound) {
			return models.AutomationIdle, fmt.Errorf("failed to load stage %d: %w", finished.StageNumber+1, err)
		}
		nextStage = &models.Stage{
			TournamentID:  tournament.ID,
			StageNumber:   finished.StageNumber + 1,
			Name:          fmt.Sprintf("Stage %d", finished.StageNumber+1),
			Format:        models.StageFormatKnockout,
			NumQualifiers: 1,
		}
	}

	var pairs []brackets.Pair
	var byeTeamID *int
	switch nextStage.Format {
	case models.StageFormatKnockout:
		pairs, byeTeamID, err = brackets.PairKnockout(qualifiers, map[int]bool{}, s.newRand())
	case models.StageFormatSwiss:
		// A fresh Swiss stage has no standings, so its first round is
		// drawn at random.
		pairs, byeTeamID, err = brackets.PairSwiss(shuffledIDs(qualifiers, s.newRand()), func(a, b int) bool { return false }, map[int]bool{})
	case models.StageFormatRoundRobin:
		pairs = brackets.PairRoundRobin(qualifiers)
	default:
		err = fmt.Errorf("%w: stage format %s", ErrUnsupportedFormat, nextStage.Format)
	}
	if err != nil {
		return models.AutomationIdle, err
	}

	nextNumber := tournament.CurrentRoundNumber + 1
	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if nextStage.ID == 0 {
			if err := s.stageRepo.Create(ctx, exec, nextStage); err != nil {
				return err
			}
		}
		round := &models.Round{
			TournamentID:  tournament.ID,
			StageID:       &nextStage.ID,
			Number:        nextNumber,
			NumberInStage: 1,
			Name:          fmt.Sprintf("%s, Round 1", nextStage.Name),
		}
		if err := s.roundRepo.Create(ctx, exec, round); err != nil {
			return err
		}
		if _, err := s.createMatches(ctx, exec, tournament.ID, nextStage, round, pairs); err != nil {
			return err
		}
		if byeTeamID != nil {
			if err := s.grantBye(ctx, exec, tournament.ID, *byeTeamID, nextNumber); err != nil {
				return err
			}
		}
		return s.tournamentRepo.SetCurrentRound(ctx, exec, tournament.ID, nextNumber)
	})
	if err != nil {
		return models.AutomationIdle, err
	}

	s.publisher.Publish(tournament.ID, live.EventRoundAdvanced, map[string]int{
		"round_number":    nextNumber,
		"stage_number":    nextStage.StageNumber,
		"matches_created": len(pairs),
	})
	return models.AutomationIdle, nil
}
