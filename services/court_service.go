package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
)

// CourtService manages the shared court pool: allocation on activation
// and FIFO reassignment when a court frees up.
type CourtService interface {
	ListCourts(ctx context.Context) ([]*models.Court, error)
	// Allocate claims the first free court usable by the tournament.
	// Courts held by other in-play matches are skipped even if their
	// availability flag is out of sync. Returns ErrNoCourtAvailable when
	// the pool is exhausted.
	Allocate(ctx context.Context, exec repositories.SQLExecutor, tournamentID, excludeMatchID int) (*models.Court, error)
	// ReleaseAndReassign hands the court to the oldest match waiting for
	// one, which becomes active. When nothing is waiting the court goes
	// back to the pool. Returns the reassigned match, if any.
	ReleaseAndReassign(ctx context.Context, tournamentID, courtID int) (*models.Match, error)
}

type courtService struct {
	courtRepo  repositories.CourtRepository
	matchRepo  repositories.MatchRepository
	transactor repositories.Transactor
	logger     *slog.Logger
}

func NewCourtService(
	courtRepo repositories.CourtRepository,
	matchRepo repositories.MatchRepository,
	transactor repositories.Transactor,
	logger *slog.Logger,
) CourtService {
	return &courtService{
		courtRepo:  courtRepo,
		matchRepo:  matchRepo,
		transactor: transactor,
		logger:     logger,
	}
}

func (s *courtService) ListCourts(ctx context.Context) ([]*models.Court, error) {
	courts, err := s.courtRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	return courts, nil
}

func (s *courtService) Allocate(ctx context.Context, exec repositories.SQLExecutor, tournamentID, excludeMatchID int) (*models.Court, error) {
	courts, err := s.courtRepo.ListForTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts for tournament %d: %w", tournamentID, err)
	}

	busyIDs, err := s.matchRepo.ListBusyCourtIDs(ctx, excludeMatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list busy courts: %w", err)
	}
	busy := make(map[int]bool, len(busyIDs))
	for _, id := range busyIDs {
		busy[id] = true
	}

	for _, court := range courts {
		if !court.IsAvailable || busy[court.ID] {
			continue
		}
		// Compare-and-swap: between listing and claiming, another match
		// may have taken the court. Losing the swap just moves us on.
		claimed, err := s.courtRepo.TryOccupy(ctx, exec, court.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to claim court %d: %w", court.ID, err)
		}
		if claimed {
			court.IsAvailable = false
			return court, nil
		}
	}
	return nil, ErrNoCourtAvailable
}

func (s *courtService) ReleaseAndReassign(ctx context.Context, tournamentID, courtID int) (*models.Match, error) {
	var reassigned *models.Match

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		waiting, err := s.matchRepo.ListWaitingForCourt(ctx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list waiting matches for tournament %d: %w", tournamentID, err)
		}
		if len(waiting) == 0 {
			if err := s.courtRepo.Release(ctx, exec, courtID); err != nil {
				return fmt.Errorf("failed to release court %d: %w", courtID, err)
			}
			return nil
		}

		// The court stays occupied and moves straight to the oldest
		// waiting match, which starts immediately.
		next := waiting[0]
		now := time.Now()
		next.CourtID = &courtID
		next.WaitingForCourt = false
		next.Status = models.MatchStatusActive
		next.StartTime = &now
		if err := s.matchRepo.Update(ctx, exec, next); err != nil {
			return fmt.Errorf("failed to hand court %d to match %d: %w", courtID, next.ID, err)
		}
		reassigned = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reassigned != nil {
		s.logger.Info("court reassigned to waiting match",
			slog.Int("court_id", courtID),
			slog.Int("match_id", reassigned.ID),
			slog.Int("tournament_id", tournamentID),
		)
	}
	return reassigned, nil
}
