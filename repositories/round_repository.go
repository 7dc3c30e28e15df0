package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/boulodrome/tournament-engine/models"
)

var ErrRoundNotFound = errors.New("round not found")

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, id int) (*models.Round, error)
	GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error)
	// Latest returns the round with the highest number in the tournament.
	Latest(ctx context.Context, tournamentID int) (*models.Round, error)
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		INSERT INTO rounds (tournament_id, stage_id, number, number_in_stage, name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		round.TournamentID,
		round.StageID,
		round.Number,
		round.NumberInStage,
		round.Name,
	).Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create round %d for tournament %d: %w", round.Number, round.TournamentID, err)
	}
	return nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	query := `
		SELECT id, tournament_id, stage_id, number, number_in_stage, name, created_at
		FROM rounds
		WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRoundRepository) GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error) {
	query := `
		SELECT id, tournament_id, stage_id, number, number_in_stage, name, created_at
		FROM rounds
		WHERE tournament_id = $1 AND number = $2`

	return r.scanOne(r.db.QueryRowContext(ctx, query, tournamentID, number))
}

func (r *postgresRoundRepository) Latest(ctx context.Context, tournamentID int) (*models.Round, error) {
	query := `
		SELECT id, tournament_id, stage_id, number, number_in_stage, name, created_at
		FROM rounds
		WHERE tournament_id = $1
		ORDER BY number DESC
		LIMIT 1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, tournamentID))
}

func (r *postgresRoundRepository) scanOne(row *sql.Row) (*models.Round, error) {
	round := &models.Round{}
	err := row.Scan(
		&round.ID,
		&round.TournamentID,
		&round.StageID,
		&round.Number,
		&round.NumberInStage,
		&round.Name,
		&round.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}
	return round, nil
}
