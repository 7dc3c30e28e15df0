package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/boulodrome/tournament-engine/models"
)

var ErrCourtNotFound = errors.New("court not found")

type CourtRepository interface {
	GetByID(ctx context.Context, id int) (*models.Court, error)
	List(ctx context.Context) ([]*models.Court, error)
	// ListForTournament returns the courts reserved for a tournament via
	// the tournament_courts link table, or every court when the
	// tournament has no reservations.
	ListForTournament(ctx context.Context, tournamentID int) ([]*models.Court, error)
	// TryOccupy atomically claims an available court. It returns false
	// without error when the court was already taken.
	TryOccupy(ctx context.Context, exec SQLExecutor, courtID int) (bool, error)
	Release(ctx context.Context, exec SQLExecutor, courtID int) error
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	query := `
		SELECT id, number, name, is_available
		FROM courts
		WHERE id = $1`

	court := &models.Court{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&court.ID,
		&court.Number,
		&court.Name,
		&court.IsAvailable,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to scan court %d: %w", id, err)
	}
	return court, nil
}

func (r *postgresCourtRepository) List(ctx context.Context) ([]*models.Court, error) {
	query := `
		SELECT id, number, name, is_available
		FROM courts
		ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts: %w", err)
	}
	defer rows.Close()

	return scanCourts(rows)
}

func (r *postgresCourtRepository) ListForTournament(ctx context.Context, tournamentID int) ([]*models.Court, error) {
	var reserved int
	countQuery := `SELECT COUNT(*) FROM tournament_courts WHERE tournament_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, tournamentID).Scan(&reserved); err != nil {
		return nil, fmt.Errorf("failed to count reserved courts for tournament %d: %w", tournamentID, err)
	}
	if reserved == 0 {
		return r.List(ctx)
	}

	query := `
		SELECT c.id, c.number, c.name, c.is_available
		FROM courts c
		JOIN tournament_courts tc ON tc.court_id = c.id
		WHERE tc.tournament_id = $1
		ORDER BY c.number`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	return scanCourts(rows)
}

func (r *postgresCourtRepository) TryOccupy(ctx context.Context, exec SQLExecutor, courtID int) (bool, error) {
	query := `
		UPDATE courts
		SET is_available = FALSE
		WHERE id = $1 AND is_available = TRUE`

	result, err := exec.ExecContext(ctx, query, courtID)
	if err != nil {
		return false, fmt.Errorf("failed to occupy court %d: %w", courtID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *postgresCourtRepository) Release(ctx context.Context, exec SQLExecutor, courtID int) error {
	query := `
		UPDATE courts
		SET is_available = TRUE
		WHERE id = $1`

	result, err := exec.ExecContext(ctx, query, courtID)
	if err != nil {
		return fmt.Errorf("failed to release court %d: %w", courtID, err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func scanCourts(rows *sql.Rows) ([]*models.Court, error) {
	courts := make([]*models.Court, 0)
	for rows.Next() {
		var c models.Court
		if err := rows.Scan(&c.ID, &c.Number, &c.Name, &c.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan court row: %w", err)
		}
		courts = append(courts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during court rows iteration: %w", err)
	}
	return courts, nil
}
