package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/boulodrome/tournament-engine/models"
	"github.com/boulodrome/tournament-engine/repositories"
)

// TeamService authenticates team actions against the stored PIN hash.
type TeamService interface {
	// VerifyPIN checks the plain-text PIN against the team's bcrypt hash
	// and returns the team on success.
	VerifyPIN(ctx context.Context, teamID int, pin string) (*models.Team, error)
	GetByID(ctx context.Context, teamID int) (*models.Team, error)
	ListPlayers(ctx context.Context, teamID int) ([]*models.Player, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
}

func NewTeamService(teamRepo repositories.TeamRepository) TeamService {
	return &teamService{teamRepo: teamRepo}
}

func (s *teamService) VerifyPIN(ctx context.Context, teamID int, pin string) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(team.PinHash), []byte(pin)); err != nil {
		return nil, ErrInvalidPIN
	}
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
	}
	return team, nil
}

func (s *teamService) ListPlayers(ctx context.Context, teamID int) ([]*models.Player, error) {
	players, err := s.teamRepo.ListPlayers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for team %d: %w", teamID, err)
	}
	return players, nil
}
