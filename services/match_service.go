package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/boulodrome/tournament-engine/live"
	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
	"github.com/boulodrome/tournament-engine/storage"
)

// ActivationOutcome describes what the handshake step achieved.
type ActivationOutcome string

const (
	// OutcomeInitiated: first team checked in, waiting for the opponent.
	OutcomeInitiated ActivationOutcome = "initiated"
	// OutcomeActive: both teams checked in and a court was assigned.
	OutcomeActive ActivationOutcome = "active"
	// OutcomeWaitingCourt: both teams checked in but the pool is full.
	OutcomeWaitingCourt ActivationOutcome = "waiting_for_court"
	// OutcomeAlreadyActivated: the team had already checked in; the
	// repeat is answered informationally and changes nothing.
	OutcomeAlreadyActivated ActivationOutcome = "already_activated"
)

type PlayerSelection struct {
	PlayerID int               `json:"player_id"`
	Role     models.PlayerRole `json:"role"`
}

type ActivationInput struct {
	MatchID int
	TeamID  int
	PIN     string
	Players []PlayerSelection
}

type ActivationResult struct {
	Outcome ActivationOutcome `json:"outcome"`
	Match   *models.Match     `json:"match"`
	Court   *models.Court     `json:"court,omitempty"`
}

type ResultInput struct {
	MatchID    int
	TeamID     int
	PIN        string
	Team1Score int
	Team2Score int
	Notes      *string
}

// MatchDetail bundles everything a scoreboard needs for one match.
type MatchDetail struct {
	Match       *models.Match             `json:"match"`
	Players     []*models.MatchPlayer     `json:"players"`
	Activations []*models.MatchActivation `json:"activations"`
	Result      *models.MatchResult       `json:"result,omitempty"`
}

// ProgressionTrigger is invoked after a match completes. Failures are
// logged by the caller and never surface to the validating team.
type ProgressionTrigger interface {
	Advance(ctx context.Context, tournamentID int) error
}

type MatchService interface {
	// Activate performs one half of the two-team handshake. The first
	// team to check in becomes the initiator; the second completes the
	// activation, which detects the match type and tries to claim a
	// court.
	Activate(ctx context.Context, input ActivationInput) (*ActivationResult, error)
	// SubmitResult records the claimed score and moves the match to
	// waiting_validation.
	SubmitResult(ctx context.Context, input ResultInput) (*models.Match, error)
	// ValidateResult is the opposing team's verdict. Agreement completes
	// the match; disagreement deletes the submission and reverts the
	// match to active for a fresh attempt.
	ValidateResult(ctx context.Context, matchID, teamID int, pin string, agree bool) (*models.Match, error)
	// Cancel is an administrative abort of a non-terminal match.
	Cancel(ctx context.Context, matchID int) (*models.Match, error)
	// AssignWaitingCourts drains the waiting queue FIFO while courts are
	// free. Returns how many matches were started.
	AssignWaitingCourts(ctx context.Context, tournamentID int) (int, error)
	// AttachResultEvidence uploads a photo of the scoreboard and links
	// it to the pending result submission.
	AttachResultEvidence(ctx context.Context, matchID, teamID int, pin, contentType string, body io.Reader) (*models.MatchResult, error)
	GetMatch(ctx context.Context, matchID int) (*MatchDetail, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error)
	// NextMatchForTeam returns the match the team should act on: first a
	// match where its opponent is already waiting, then its oldest
	// pending match.
	NextMatchForTeam(ctx context.Context, teamID int) (*models.Match, error)
}

type matchService struct {
	matchRepo       repositories.MatchRepository
	activationRepo  repositories.MatchActivationRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	resultRepo      repositories.MatchResultRepository
	tournamentRepo  repositories.TournamentRepository
	ttRepo          repositories.TournamentTeamRepository
	teamService     TeamService
	courtService    CourtService
	transactor      repositories.Transactor
	uploader        storage.FileUploader
	publisher       EventPublisher
	rating          RatingNotifier
	progression     ProgressionTrigger
	logger          *slog.Logger
}

type MatchServiceDeps struct {
	MatchRepo       repositories.MatchRepository
	ActivationRepo  repositories.MatchActivationRepository
	MatchPlayerRepo repositories.MatchPlayerRepository
	ResultRepo      repositories.MatchResultRepository
	TournamentRepo  repositories.TournamentRepository
	TournamentTeams repositories.TournamentTeamRepository
	TeamService     TeamService
	CourtService    CourtService
	Transactor      repositories.Transactor
	Uploader        storage.FileUploader
	Publisher       EventPublisher
	Rating          RatingNotifier
	Progression     ProgressionTrigger
	Logger          *slog.Logger
}

func NewMatchService(deps MatchServiceDeps) MatchService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &matchService{
		matchRepo:       deps.MatchRepo,
		activationRepo:  deps.ActivationRepo,
		matchPlayerRepo: deps.MatchPlayerRepo,
		resultRepo:      deps.ResultRepo,
		tournamentRepo:  deps.TournamentRepo,
		ttRepo:          deps.TournamentTeams,
		teamService:     deps.TeamService,
		courtService:    deps.CourtService,
		transactor:      deps.Transactor,
		uploader:        deps.Uploader,
		publisher:       publisher,
		rating:          deps.Rating,
		progression:     deps.Progression,
		logger:          deps.Logger,
	}
}

func (s *matchService) Activate(ctx context.Context, input ActivationInput) (*ActivationResult, error) {
	match, err := s.getMatch(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return nil, ErrMatchAlreadyTerminal
	}
	if match.Status != models.MatchStatusPending && match.Status != models.MatchStatusPendingVerification {
		return nil, ErrMatchNotActivatable
	}
	if !match.HasTeam(input.TeamID) {
		return nil, ErrTeamNotInMatch
	}
	if _, err := s.teamService.VerifyPIN(ctx, input.TeamID, input.PIN); err != nil {
		return nil, err
	}
	if len(input.Players) == 0 {
		return nil, ErrPlayersRequired
	}
	if err := s.checkRoster(ctx, input.TeamID, input.Players); err != nil {
		return nil, err
	}

	tournament, err := s.getTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}

	result := &ActivationResult{}
	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		activations, err := s.activationRepo.ListByMatch(ctx, match.ID)
		if err != nil {
			return fmt.Errorf("failed to list activations for match %d: %w", match.ID, err)
		}
		for _, a := range activations {
			if a.TeamID == input.TeamID {
				result.Outcome = OutcomeAlreadyActivated
				result.Match = match
				return nil
			}
		}

		isInitiator := len(activations) == 0
		playerCount := len(input.Players)
		if match.Team1ID == input.TeamID {
			match.Team1PlayerCount = &playerCount
		} else {
			match.Team2PlayerCount = &playerCount
		}

		// The second team's check-in closes the handshake: both roster
		// sizes are known here, so the match type is checked before
		// anything is written and a rejected activation leaves no trace.
		var matchType models.MatchType
		if !isInitiator {
			if match.Team1PlayerCount == nil || match.Team2PlayerCount == nil {
				return fmt.Errorf("match %d: roster counts missing after both activations", match.ID)
			}
			c1, c2 := *match.Team1PlayerCount, *match.Team2PlayerCount
			matchType = models.DetectMatchType(c1, c2)
			if err := tournament.MatchTypeRules.Check(matchType, c1, c2); err != nil {
				return fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
			}
		}

		activation := &models.MatchActivation{
			MatchID:     match.ID,
			TeamID:      input.TeamID,
			IsInitiator: isInitiator,
		}
		if err := s.activationRepo.Create(ctx, exec, activation); err != nil {
			if errors.Is(err, repositories.ErrActivationConflict) {
				result.Outcome = OutcomeAlreadyActivated
				result.Match = match
				return nil
			}
			return err
		}

		roster := make([]*models.MatchPlayer, 0, len(input.Players))
		for _, sel := range input.Players {
			roster = append(roster, &models.MatchPlayer{
				MatchID:  match.ID,
				PlayerID: sel.PlayerID,
				TeamID:   input.TeamID,
				Role:     sel.Role,
			})
		}
		if err := s.matchPlayerRepo.CreateBatch(ctx, exec, roster); err != nil {
			return err
		}

		if isInitiator {
			match.Status = models.MatchStatusPendingVerification
			if err := s.matchRepo.Update(ctx, exec, match); err != nil {
				return err
			}
			result.Outcome = OutcomeInitiated
			result.Match = match
			return nil
		}

		return s.completeActivation(ctx, exec, matchType, match, result)
	})
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case OutcomeActive:
		s.publisher.Publish(match.TournamentID, live.EventMatchActivated, result.Match)
	case OutcomeWaitingCourt:
		s.publisher.Publish(match.TournamentID, live.EventMatchWaitingCourt, result.Match)
	}
	return result, nil
}

// completeActivation runs when the second team checks in with the
// match type already validated: it stamps the detected format and
// tries to claim a court.
func (s *matchService) completeActivation(
	ctx context.Context,
	exec repositories.SQLExecutor,
	matchType models.MatchType,
	match *models.Match,
	result *ActivationResult,
) error {
	match.MatchType = &matchType
	if err := s.matchPlayerRepo.SetFormatForMatch(ctx, exec, match.ID, matchType); err != nil {
		return err
	}

	court, err := s.courtService.Allocate(ctx, exec, match.TournamentID, match.ID)
	if err != nil {
		if errors.Is(err, ErrNoCourtAvailable) {
			match.WaitingForCourt = true
			if updErr := s.matchRepo.Update(ctx, exec, match); updErr != nil {
				return updErr
			}
			result.Outcome = OutcomeWaitingCourt
			result.Match = match
			return nil
		}
		return err
	}

	now := time.Now()
	match.CourtID = &court.ID
	match.WaitingForCourt = false
	match.Status = models.MatchStatusActive
	match.StartTime = &now
	if err := s.matchRepo.Update(ctx, exec, match); err != nil {
		return err
	}
	result.Outcome = OutcomeActive
	result.Match = match
	result.Court = court
	return nil
}

func (s *matchService) SubmitResult(ctx context.Context, input ResultInput) (*models.Match, error) {
	match, err := s.getMatch(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return nil, ErrMatchAlreadyTerminal
	}
	if match.Status != models.MatchStatusActive {
		return nil, ErrMatchNotActive
	}
	if !match.HasTeam(input.TeamID) {
		return nil, ErrTeamNotInMatch
	}
	if _, err := s.teamService.VerifyPIN(ctx, input.TeamID, input.PIN); err != nil {
		return nil, err
	}
	if input.Team1Score < 0 || input.Team2Score < 0 || input.Team1Score == input.Team2Score {
		return nil, ErrInvalidScore
	}
	tournament, err := s.getTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	if cap := tournament.ScoreCap; cap != nil && (input.Team1Score > *cap || input.Team2Score > *cap) {
		return nil, ErrScoreAboveCap
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		result := &models.MatchResult{
			MatchID:       match.ID,
			SubmittedByID: input.TeamID,
			Notes:         input.Notes,
		}
		if err := s.resultRepo.Create(ctx, exec, result); err != nil {
			if errors.Is(err, repositories.ErrResultConflict) {
				return ErrResultAlreadySubmitted
			}
			return err
		}

		t1, t2 := input.Team1Score, input.Team2Score
		match.Team1Score = &t1
		match.Team2Score = &t2
		match.Status = models.MatchStatusWaitingValidation
		return s.matchRepo.Update(ctx, exec, match)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(match.TournamentID, live.EventResultSubmitted, match)
	return match, nil
}

func (s *matchService) ValidateResult(ctx context.Context, matchID, teamID int, pin string, agree bool) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusWaitingValidation {
		return nil, ErrMatchNotAwaitingValidation
	}
	if !match.HasTeam(teamID) {
		return nil, ErrTeamNotInMatch
	}
	if _, err := s.teamService.VerifyPIN(ctx, teamID, pin); err != nil {
		return nil, err
	}

	result, err := s.resultRepo.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load result for match %d: %w", matchID, err)
	}
	if result.SubmittedByID == teamID {
		return nil, ErrValidatorIsSubmitter
	}

	if !agree {
		return s.rejectResult(ctx, match, result)
	}
	return s.confirmResult(ctx, match, result, teamID)
}

// rejectResult wipes the disputed submission so either team can submit
// again. The match returns to active on its current court.
func (s *matchService) rejectResult(ctx context.Context, match *models.Match, result *models.MatchResult) (*models.Match, error) {
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.resultRepo.DeleteByMatch(ctx, exec, match.ID); err != nil {
			return err
		}
		match.Team1Score = nil
		match.Team2Score = nil
		match.Status = models.MatchStatusActive
		return s.matchRepo.Update(ctx, exec, match)
	})
	if err != nil {
		return nil, err
	}

	// The evidence photo belongs to the discarded submission.
	if result.PhotoKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *result.PhotoKey); err != nil {
			s.logger.Error("failed to delete evidence for rejected result",
				slog.Int("match_id", match.ID),
				slog.String("photo_key", *result.PhotoKey),
				slog.Any("error", err),
			)
		}
	}

	s.logger.Info("result rejected, match reverted to active",
		slog.Int("match_id", match.ID),
		slog.Int("tournament_id", match.TournamentID),
	)
	return match, nil
}

func (s *matchService) confirmResult(ctx context.Context, match *models.Match, result *models.MatchResult, validatorID int) (*models.Match, error) {
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		now := time.Now()
		if err := s.resultRepo.SetValidated(ctx, exec, result.ID, validatorID, now); err != nil {
			return err
		}

		match.Status = models.MatchStatusCompleted
		match.EndTime = &now
		if match.StartTime != nil {
			d := now.Sub(*match.StartTime)
			match.Duration = &d
		}
		if match.Team1Score != nil && match.Team2Score != nil && *match.Team1Score != *match.Team2Score {
			if *match.Team1Score > *match.Team2Score {
				match.WinnerTeamID = &match.Team1ID
				match.LoserTeamID = &match.Team2ID
			} else {
				match.WinnerTeamID = &match.Team2ID
				match.LoserTeamID = &match.Team1ID
			}
		} else {
			s.logger.Warn("match completed without a decisive score",
				slog.Int("match_id", match.ID),
			)
		}
		if err := s.matchRepo.Update(ctx, exec, match); err != nil {
			return err
		}
		return s.recordOpponents(ctx, exec, match)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(match.TournamentID, live.EventMatchCompleted, match)
	s.afterCompletion(ctx, match)
	return match, nil
}

// recordOpponents keeps the no-rematch history used by Swiss pairing.
func (s *matchService) recordOpponents(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	entry1, err := s.ttRepo.GetByTeam(ctx, match.TournamentID, match.Team1ID)
	if err != nil {
		return fmt.Errorf("failed to load tournament entry for team %d: %w", match.Team1ID, err)
	}
	entry2, err := s.ttRepo.GetByTeam(ctx, match.TournamentID, match.Team2ID)
	if err != nil {
		return fmt.Errorf("failed to load tournament entry for team %d: %w", match.Team2ID, err)
	}
	if err := s.ttRepo.AddOpponent(ctx, exec, entry1.ID, match.Team2ID); err != nil {
		return err
	}
	return s.ttRepo.AddOpponent(ctx, exec, entry2.ID, match.Team1ID)
}

// afterCompletion runs the side effects of a completed match. Each one
// is isolated: a failing hook is logged and the completion stands.
func (s *matchService) afterCompletion(ctx context.Context, match *models.Match) {
	if match.CourtID != nil {
		reassigned, err := s.courtService.ReleaseAndReassign(ctx, match.TournamentID, *match.CourtID)
		if err != nil {
			s.logger.Error("failed to release court after completion",
				slog.Int("match_id", match.ID),
				slog.Int("court_id", *match.CourtID),
				slog.Any("error", err),
			)
		} else if reassigned != nil {
			s.publisher.Publish(match.TournamentID, live.EventCourtReassigned, reassigned)
		}
	}

	if s.rating != nil {
		completed := *match
		go s.rating.MatchCompleted(context.Background(), &completed)
	}

	if s.progression != nil {
		if err := s.progression.Advance(ctx, match.TournamentID); err != nil {
			s.logger.Error("progression failed after match completion",
				slog.Int("tournament_id", match.TournamentID),
				slog.Int("match_id", match.ID),
				slog.Any("error", err),
			)
		}
	}
}

func (s *matchService) Cancel(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return nil, ErrMatchAlreadyTerminal
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match.Status = models.MatchStatusCancelled
		match.WaitingForCourt = false
		return s.matchRepo.Update(ctx, exec, match)
	})
	if err != nil {
		return nil, err
	}

	if match.CourtID != nil {
		reassigned, err := s.courtService.ReleaseAndReassign(ctx, match.TournamentID, *match.CourtID)
		if err != nil {
			s.logger.Error("failed to release court after cancellation",
				slog.Int("match_id", match.ID),
				slog.Any("error", err),
			)
		} else if reassigned != nil {
			s.publisher.Publish(match.TournamentID, live.EventCourtReassigned, reassigned)
		}
	}

	s.publisher.Publish(match.TournamentID, live.EventMatchCancelled, match)
	return match, nil
}

func (s *matchService) AssignWaitingCourts(ctx context.Context, tournamentID int) (int, error) {
	waiting, err := s.matchRepo.ListWaitingForCourt(ctx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to list waiting matches for tournament %d: %w", tournamentID, err)
	}

	assigned := 0
	for _, match := range waiting {
		match := match
		err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			court, err := s.courtService.Allocate(ctx, exec, tournamentID, match.ID)
			if err != nil {
				return err
			}
			now := time.Now()
			match.CourtID = &court.ID
			match.WaitingForCourt = false
			match.Status = models.MatchStatusActive
			match.StartTime = &now
			return s.matchRepo.Update(ctx, exec, match)
		})
		if err != nil {
			if errors.Is(err, ErrNoCourtAvailable) {
				break
			}
			return assigned, err
		}
		assigned++
		s.publisher.Publish(tournamentID, live.EventMatchActivated, match)
	}
	return assigned, nil
}

func (s *matchService) AttachResultEvidence(ctx context.Context, matchID, teamID int, pin, contentType string, body io.Reader) (*models.MatchResult, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusWaitingValidation {
		return nil, ErrEvidenceNotAllowed
	}
	if !match.HasTeam(teamID) {
		return nil, ErrTeamNotInMatch
	}
	if _, err := s.teamService.VerifyPIN(ctx, teamID, pin); err != nil {
		return nil, err
	}

	result, err := s.resultRepo.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load result for match %d: %w", matchID, err)
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, ErrUnsupportedFileFormat
	}
	key := fmt.Sprintf("results/match_%d%s", matchID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, body); err != nil {
		return nil, fmt.Errorf("failed to upload evidence for match %d: %w", matchID, err)
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.resultRepo.SetPhotoKey(ctx, exec, result.ID, key)
	})
	if err != nil {
		return nil, err
	}

	// A resubmitted photo with a different extension leaves the old
	// object orphaned; remove it once the new key is recorded.
	if old := result.PhotoKey; old != nil && *old != key {
		if err := s.uploader.Delete(ctx, *old); err != nil {
			s.logger.Error("failed to delete replaced evidence",
				slog.Int("match_id", matchID),
				slog.String("photo_key", *old),
				slog.Any("error", err),
			)
		}
	}

	result.PhotoKey = &key
	populateResultPhotoURL(result, s.uploader)
	return result, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*MatchDetail, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	players, err := s.matchPlayerRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for match %d: %w", matchID, err)
	}
	activations, err := s.activationRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activations for match %d: %w", matchID, err)
	}

	detail := &MatchDetail{
		Match:       match,
		Players:     players,
		Activations: activations,
	}
	result, err := s.resultRepo.GetByMatch(ctx, matchID)
	if err == nil {
		populateResultPhotoURL(result, s.uploader)
		detail.Result = result
	} else if !errors.Is(err, repositories.ErrResultNotFound) {
		return nil, fmt.Errorf("failed to load result for match %d: %w", matchID, err)
	}
	return detail, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (s *matchService) NextMatchForTeam(ctx context.Context, teamID int) (*models.Match, error) {
	match, err := s.matchRepo.FirstAwaitingOpponent(ctx, teamID)
	if err == nil {
		return match, nil
	}
	if !errors.Is(err, repositories.ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to find awaiting match for team %d: %w", teamID, err)
	}

	match, err = s.matchRepo.FirstPendingForTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to find pending match for team %d: %w", teamID, err)
	}
	return match, nil
}

func (s *matchService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	return match, nil
}

func (s *matchService) getTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}

func (s *matchService) checkRoster(ctx context.Context, teamID int, selections []PlayerSelection) error {
	players, err := s.teamService.ListPlayers(ctx, teamID)
	if err != nil {
		return err
	}
	onTeam := make(map[int]bool, len(players))
	for _, p := range players {
		onTeam[p.ID] = true
	}
	seen := make(map[int]bool, len(selections))
	for _, sel := range selections {
		if !onTeam[sel.PlayerID] {
			return fmt.Errorf("%w: player %d", ErrPlayerNotOnTeam, sel.PlayerID)
		}
		if seen[sel.PlayerID] {
			return fmt.Errorf("%w: player %d selected twice", ErrValidationFailed, sel.PlayerID)
		}
		seen[sel.PlayerID] = true
	}
	return nil
}
