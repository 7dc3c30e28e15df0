package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
)

// TournamentOverview is the aggregated read model for a tournament
// dashboard: entry list in standing order, stages, and all matches.
type TournamentOverview struct {
	Tournament *models.Tournament       `json:"tournament"`
	Standings  []*models.TournamentTeam `json:"standings"`
	Stages     []*models.Stage          `json:"stages"`
	Matches    []*models.Match          `json:"matches"`
}

type TournamentService interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, onlyActive bool) ([]*models.Tournament, error)
	// Overview fans the component queries out in parallel.
	Overview(ctx context.Context, id int) (*TournamentOverview, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	ttRepo         repositories.TournamentTeamRepository
	stageRepo      repositories.StageRepository
	matchRepo      repositories.MatchRepository
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	ttRepo repositories.TournamentTeamRepository,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		ttRepo:         ttRepo,
		stageRepo:      stageRepo,
		matchRepo:      matchRepo,
	}
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, onlyActive bool) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) Overview(ctx context.Context, id int) (*TournamentOverview, error) {
	overview := &TournamentOverview{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tournament, err := s.GetByID(gctx, id)
		if err != nil {
			return err
		}
		overview.Tournament = tournament
		return nil
	})
	g.Go(func() error {
		standings, err := s.ttRepo.ListActive(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to load standings for tournament %d: %w", id, err)
		}
		overview.Standings = standings
		return nil
	})
	g.Go(func() error {
		stages, err := s.stageRepo.ListByTournament(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to load stages for tournament %d: %w", id, err)
		}
		overview.Stages = stages
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, id, nil)
		if err != nil {
			return fmt.Errorf("failed to load matches for tournament %d: %w", id, err)
		}
		overview.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}
