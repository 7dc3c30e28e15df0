package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/boulodrome/tournament-engine/brackets"
	"github.com/boulodrome/tournament-engine/live"
	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
)

// advanceKnockout moves a knockout bracket one round forward. The teams
// that advance are the round's winners plus whoever sat out with a bye.
// Everyone else is eliminated. A single survivor is the champion.
//
// When stage is non-nil the bracket runs inside a multi-stage
// tournament and stops once the field is down to the stage's qualifier
// count instead of a single winner.
func (s *progressionService) advanceKnockout(
	ctx context.Context,
	tournament *models.Tournament,
	round *models.Round,
	stage *models.Stage,
	winners []int,
) (models.AutomationStatus, error) {
	entries, err := s.scopedEntries(ctx, tournament, stage)
	if err != nil {
		return models.AutomationIdle, err
	}
	byTeam := make(map[int]*models.TournamentTeam, len(entries))
	for _, tt := range entries {
		byTeam[tt.TeamID] = tt
	}

	advancers := append([]int(nil), winners...)
	for _, tt := range entries {
		if tt.ReceivedByeInRound != nil && *tt.ReceivedByeInRound == round.Number {
			advancers = append(advancers, tt.TeamID)
		}
	}
	if len(advancers) == 0 {
		return models.AutomationIdle, fmt.Errorf("round %d produced no advancing teams", round.Number)
	}

	advancing := make(map[int]bool, len(advancers))
	for _, id := range advancers {
		advancing[id] = true
	}

	if stage != nil && len(advancers) <= stage.NumQualifiers {
		return s.completeStage(ctx, tournament, stage, advancers)
	}
	if len(advancers) == 1 {
		champion := advancers[0]
		err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			if err := s.eliminate(ctx, exec, entries, advancing); err != nil {
				return err
			}
			return s.completeTournament(ctx, exec, tournament, champion)
		})
		if err != nil {
			return models.AutomationIdle, err
		}
		s.publisher.Publish(tournament.ID, live.EventTournamentCompleted, map[string]int{"winner_team_id": champion})
		return models.AutomationCompleted, nil
	}

	hadBye := make(map[int]bool, len(entries))
	for _, tt := range entries {
		hadBye[tt.TeamID] = tt.ReceivedByeInRound != nil
	}

	pairs, byeTeamID, err := brackets.PairKnockout(advancers, hadBye, s.newRand())
	if err != nil {
		return models.AutomationIdle, err
	}
	if byeTeamID != nil && hadBye[*byeTeamID] {
		// Every remaining team already sat out once; someone gets a
		// second bye rather than stalling the bracket.
		s.logger.Warn("team received a second bye",
			slog.Int("tournament_id", tournament.ID),
			slog.Int("team_id", *byeTeamID),
		)
	}

	nextNumber := round.Number + 1
	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.eliminate(ctx, exec, entries, advancing); err != nil {
			return err
		}
		next := &models.Round{
			TournamentID:  tournament.ID,
			StageID:       round.StageID,
			Number:        nextNumber,
			NumberInStage: round.NumberInStage + 1,
			Name:          fmt.Sprintf("Round %d", nextNumber),
		}
		if stage != nil {
			next.Name = fmt.Sprintf("%s, Round %d", stage.Name, next.NumberInStage)
		}
		if err := s.roundRepo.Create(ctx, exec, next); err != nil {
			return err
		}
		if _, err := s.createMatches(ctx, exec, tournament.ID, stage, next, pairs); err != nil {
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
		"matches_created": len(pairs),
	})
	return models.AutomationIdle, nil
}

// eliminate deactivates every scoped entry that is not advancing.
func (s *progressionService) eliminate(
	ctx context.Context,
	exec repositories.SQLExecutor,
	entries []*models.TournamentTeam,
	advancing map[int]bool,
) error {
	for _, tt := range entries {
		if advancing[tt.TeamID] || !tt.IsActive {
			continue
		}
		tt.IsActive = false
		if err := s.ttRepo.Update(ctx, exec, tt); err != nil {
			return fmt.Errorf("failed to eliminate team %d: %w", tt.TeamID, err)
		}
	}
	return nil
}

func (s *progressionService) scopedEntries(ctx context.Context, tournament *models.Tournament, stage *models.Stage) ([]*models.TournamentTeam, error) {
	if stage != nil {
		entries, err := s.ttRepo.ListActiveByStage(ctx, tournament.ID, stage.StageNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to list stage %d teams: %w", stage.StageNumber, err)
		}
		return entries, nil
	}
	entries, err := s.ttRepo.ListActive(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for tournament %d: %w", tournament.ID, err)
	}
	return entries, nil
}
