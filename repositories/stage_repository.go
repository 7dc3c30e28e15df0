package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/boulodrome/tournament-engine/models"
)

var ErrStageNotFound = errors.New("stage not found")

type StageRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error
	GetByID(ctx context.Context, id int) (*models.Stage, error)
	GetByNumber(ctx context.Context, tournamentID, stageNumber int) (*models.Stage, error)
	// Latest returns the stage with the highest stage number.
	Latest(ctx context.Context, tournamentID int) (*models.Stage, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error)
	SetComplete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

const stageColumns = `id, tournament_id, stage_number, name, format, num_qualifiers, num_rounds_in_stage, is_complete`

func (r *postgresStageRepository) Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error {
	query := `
		INSERT INTO stages (tournament_id, stage_number, name, format, num_qualifiers, num_rounds_in_stage)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := exec.QueryRowContext(ctx, query,
		stage.TournamentID,
		stage.StageNumber,
		stage.Name,
		stage.Format,
		stage.NumQualifiers,
		stage.NumRoundsInStage,
	).Scan(&stage.ID)
	if err != nil {
		return fmt.Errorf("failed to create stage %d for tournament %d: %w", stage.StageNumber, stage.TournamentID, err)
	}
	return nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresStageRepository) GetByNumber(ctx context.Context, tournamentID, stageNumber int) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE tournament_id = $1 AND stage_number = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tournamentID, stageNumber))
}

func (r *postgresStageRepository) Latest(ctx context.Context, tournamentID int) (*models.Stage, error) {
	query := `
		SELECT ` + stageColumns + `
		FROM stages
		WHERE tournament_id = $1
		ORDER BY stage_number DESC
		LIMIT 1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, tournamentID))
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error) {
	query := `
		SELECT ` + stageColumns + `
		FROM stages
		WHERE tournament_id = $1
		ORDER BY stage_number`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		var s models.Stage
		if scanErr := rows.Scan(&s.ID, &s.TournamentID, &s.StageNumber, &s.Name, &s.Format, &s.NumQualifiers, &s.NumRoundsInStage, &s.IsComplete); scanErr != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", scanErr)
		}
		stages = append(stages, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during stage rows iteration: %w", err)
	}
	return stages, nil
}

func (r *postgresStageRepository) SetComplete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE stages SET is_complete = TRUE WHERE id = $1`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to complete stage %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}

func (r *postgresStageRepository) scanOne(row *sql.Row) (*models.Stage, error) {
	s := &models.Stage{}
	err := row.Scan(&s.ID, &s.TournamentID, &s.StageNumber, &s.Name, &s.Format, &s.NumQualifiers, &s.NumRoundsInStage, &s.IsComplete)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to scan stage: %w", err)
	}
	return s, nil
}
