package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/boulodrome/tournament-engine/models"
)

var (
	ErrResultNotFound = errors.New("match result not found")
	ErrResultConflict = errors.New("a result has already been submitted for this match")
)

type MatchResultRepository interface {
	Create(ctx context.Context, exec SQLExecutor, result *models.MatchResult) error
	GetByMatch(ctx context.Context, matchID int) (*models.MatchResult, error)
	SetValidated(ctx context.Context, exec SQLExecutor, resultID, validatedByID int, at time.Time) error
	SetPhotoKey(ctx context.Context, exec SQLExecutor, resultID int, key string) error
	// DeleteByMatch removes the submission after a disagreement.
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
}

type postgresMatchResultRepository struct {
	db *sql.DB
}

func NewPostgresMatchResultRepository(db *sql.DB) MatchResultRepository {
	return &postgresMatchResultRepository{db: db}
}

func (r *postgresMatchResultRepository) Create(ctx context.Context, exec SQLExecutor, result *models.MatchResult) error {
	query := `
		INSERT INTO match_results (match_id, submitted_by_id, notes)
		VALUES ($1, $2, $3)
		RETURNING id, submitted_at`

	err := exec.QueryRowContext(ctx, query,
		result.MatchID,
		result.SubmittedByID,
		result.Notes,
	).Scan(&result.ID, &result.SubmittedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrResultConflict
		}
		return fmt.Errorf("failed to create result for match %d: %w", result.MatchID, err)
	}
	return nil
}

func (r *postgresMatchResultRepository) GetByMatch(ctx context.Context, matchID int) (*models.MatchResult, error) {
	query := `
		SELECT id, match_id, submitted_by_id, validated_by_id, notes, photo_key, submitted_at, validated_at
		FROM match_results
		WHERE match_id = $1`

	result := &models.MatchResult{}
	err := r.db.QueryRowContext(ctx, query, matchID).Scan(
		&result.ID,
		&result.MatchID,
		&result.SubmittedByID,
		&result.ValidatedByID,
		&result.Notes,
		&result.PhotoKey,
		&result.SubmittedAt,
		&result.ValidatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to scan result for match %d: %w", matchID, err)
	}
	return result, nil
}

func (r *postgresMatchResultRepository) SetValidated(ctx context.Context, exec SQLExecutor, resultID, validatedByID int, at time.Time) error {
	query := `
		UPDATE match_results
		SET validated_by_id = $1, validated_at = $2
		WHERE id = $3`

	result, err := exec.ExecContext(ctx, query, validatedByID, at, resultID)
	if err != nil {
		return fmt.Errorf("failed to validate result %d: %w", resultID, err)
	}
	return checkAffectedRows(result, ErrResultNotFound)
}

func (r *postgresMatchResultRepository) SetPhotoKey(ctx context.Context, exec SQLExecutor, resultID int, key string) error {
	query := `UPDATE match_results SET photo_key = $1 WHERE id = $2`

	result, err := exec.ExecContext(ctx, query, key, resultID)
	if err != nil {
		return fmt.Errorf("failed to attach photo to result %d: %w", resultID, err)
	}
	return checkAffectedRows(result, ErrResultNotFound)
}

func (r *postgresMatchResultRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	query := `DELETE FROM match_results WHERE match_id = $1`

	result, err := exec.ExecContext(ctx, query, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete result for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrResultNotFound)
}
