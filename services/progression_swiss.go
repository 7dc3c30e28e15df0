package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/boulodrome/tournament-engine/brackets"
	"github.com/boulodrome/tournament-engine/live"
	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
)

// Swiss scoring: three points for a win, one for a draw, three for a
// bye. Buchholz is the sum of the points of every opponent faced.
const (
	swissWinPoints  = 3
	swissDrawPoints = 1
	swissByePoints  = 3
)

// advanceSwiss recomputes the standings from scratch and either pairs
// the next round or, after the target number of rounds, crowns the
// leader. Pairing is greedy with a hard no-rematch rule: when the
// greedy pass cannot finish, the run fails and the automation parks in
// the error state for an admin to resolve.
func (s *progressionService) advanceSwiss(
	ctx context.Context,
	tournament *models.Tournament,
	round *models.Round,
	stage *models.Stage,
) (models.AutomationStatus, error) {
	entries, err := s.scopedEntries(ctx, tournament, stage)
	if err != nil {
		return models.AutomationIdle, err
	}
	if len(entries) == 0 {
		return models.AutomationIdle, ErrNotEnoughTeams
	}

	matches, err := s.scopedCompletedMatches(ctx, tournament, stage)
	if err != nil {
		return models.AutomationIdle, err
	}

	recomputeSwissStats(entries, matches)
	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, tt := range entries {
			if err := s.ttRepo.Update(ctx, exec, tt); err != nil {
				return fmt.Errorf("failed to persist standings for team %d: %w", tt.TeamID, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.AutomationIdle, err
	}

	sortSwissStandings(entries)

	target := swissRoundTarget(len(entries))
	playedRounds := round.Number
	if stage != nil {
		target = stage.NumRoundsInStage
		playedRounds = round.NumberInStage
	}
	if playedRounds >= target {
		if stage != nil {
			qualifiers := make([]int, 0, stage.NumQualifiers)
			for _, tt := range entries {
				if len(qualifiers) == stage.NumQualifiers {
					break
				}
				qualifiers = append(qualifiers, tt.TeamID)
			}
			return s.completeStage(ctx, tournament, stage, qualifiers)
		}

		champion := entries[0].TeamID
		err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			return s.completeTournament(ctx, exec, tournament, champion)
		})
		if err != nil {
			return models.AutomationIdle, err
		}
		s.publisher.Publish(tournament.ID, live.EventTournamentCompleted, map[string]int{"winner_team_id": champion})
		return models.AutomationCompleted, nil
	}

	played := func(a, b int) bool {
		for _, tt := range entries {
			if tt.TeamID == a {
				return tt.HasPlayed(b)
			}
		}
		return false
	}
	hadBye := make(map[int]bool, len(entries))
	for _, tt := range entries {
		hadBye[tt.TeamID] = tt.ReceivedByeInRound != nil
	}

	pairs, byeTeamID, err := brackets.PairSwiss(teamIDsOf(entries), played, hadBye)
	if err != nil {
		return models.AutomationIdle, fmt.Errorf("swiss pairing failed for round %d: %w", round.Number+1, err)
	}

	nextNumber := round.Number + 1
	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
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

// recomputeSwissStats rebuilds points and Buchholz from the full match
// history. Two passes: points first, then Buchholz from the opponents'
// fresh points.
func recomputeSwissStats(entries []*models.TournamentTeam, completed []*models.Match) {
	wins := make(map[int]int)
	draws := make(map[int]int)
	for _, m := range completed {
		if m.WinnerTeamID != nil {
			wins[*m.WinnerTeamID]++
			continue
		}
		draws[m.Team1ID]++
		draws[m.Team2ID]++
	}

	points := make(map[int]int, len(entries))
	for _, tt := range entries {
		p := wins[tt.TeamID]*swissWinPoints + draws[tt.TeamID]*swissDrawPoints
		if tt.ReceivedByeInRound != nil {
			p += swissByePoints
		}
		points[tt.TeamID] = p
		tt.SwissPoints = p
	}

	for _, tt := range entries {
		buchholz := 0.0
		for _, opponentID := range tt.OpponentsPlayed {
			buchholz += float64(points[opponentID])
		}
		tt.BuchholzScore = buchholz
	}
}

func sortSwissStandings(entries []*models.TournamentTeam) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.SwissPoints != b.SwissPoints {
			return a.SwissPoints > b.SwissPoints
		}
		if a.BuchholzScore != b.BuchholzScore {
			return a.BuchholzScore > b.BuchholzScore
		}
		return a.ID < b.ID
	})
}

func (s *progressionService) scopedCompletedMatches(ctx context.Context, tournament *models.Tournament, stage *models.Stage) ([]*models.Match, error) {
	if stage != nil {
		matches, err := s.matchRepo.ListByStage(ctx, stage.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list matches for stage %d: %w", stage.ID, err)
		}
		return onlyCompleted(matches), nil
	}
	status := models.MatchStatusCompleted
	matches, err := s.matchRepo.ListByTournament(ctx, tournament.ID, &status)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed matches for tournament %d: %w", tournament.ID, err)
	}
	return matches, nil
}

func onlyCompleted(matches []*models.Match) []*models.Match {
	completed := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Status == models.MatchStatusCompleted {
			completed = append(completed, m)
		}
	}
	return completed
}
