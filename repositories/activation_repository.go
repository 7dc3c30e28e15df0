package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/boulodrome/tournament-engine/models"
)

var (
	// ErrActivationConflict means the team already activated this match.
	ErrActivationConflict = errors.New("team has already activated this match")
)

type MatchActivationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, activation *models.MatchActivation) error
	// ListByMatch returns activations in handshake order.
	ListByMatch(ctx context.Context, matchID int) ([]*models.MatchActivation, error)
}

type postgresMatchActivationRepository struct {
	db *sql.DB
}

func NewPostgresMatchActivationRepository(db *sql.DB) MatchActivationRepository {
	return &postgresMatchActivationRepository{db: db}
}

func (r *postgresMatchActivationRepository) Create(ctx context.Context, exec SQLExecutor, activation *models.MatchActivation) error {
	query := `
		INSERT INTO match_activations (match_id, team_id, is_initiator)
		VALUES ($1, $2, $3)
		RETURNING id, activated_at`

	err := exec.QueryRowContext(ctx, query,
		activation.MatchID,
		activation.TeamID,
		activation.IsInitiator,
	).Scan(&activation.ID, &activation.ActivatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrActivationConflict
		}
		return fmt.Errorf("failed to create activation for match %d team %d: %w", activation.MatchID, activation.TeamID, err)
	}
	return nil
}

func (r *postgresMatchActivationRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchActivation, error) {
	query := `
		SELECT id, match_id, team_id, is_initiator, activated_at
		FROM match_activations
		WHERE match_id = $1
		ORDER BY activated_at, id`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activations for match %d: %w", matchID, err)
	}
	defer rows.Close()

	activations := make([]*models.MatchActivation, 0)
	for rows.Next() {
		var a models.MatchActivation
		if scanErr := rows.Scan(&a.ID, &a.MatchID, &a.TeamID, &a.IsInitiator, &a.ActivatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan activation row: %w", scanErr)
		}
		activations = append(activations, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during activation rows iteration: %w", err)
	}
	return activations, nil
}
