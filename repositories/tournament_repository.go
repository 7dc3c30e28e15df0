package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boulodrome/tournament-engine/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, onlyActive bool) ([]*models.Tournament, error)
	// BeginAutomation flips automation_status from idle to processing.
	// It returns false without error when the tournament is not idle,
	// which is how concurrent progression runs lose the race.
	BeginAutomation(ctx context.Context, exec SQLExecutor, id int) (bool, error)
	SetAutomationStatus(ctx context.Context, exec SQLExecutor, id int, status models.AutomationStatus) error
	SetCurrentRound(ctx context.Context, exec SQLExecutor, id int, roundNumber int) error
	SetWinner(ctx context.Context, exec SQLExecutor, id int, winnerTeamID *int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, name, description, format, start_date, end_date, is_active,
	current_round_number, automation_status, match_type_rules, score_cap,
	winner_team_id, created_at, updated_at`

func scanTournament(row interface{ Scan(dest ...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	var rulesRaw []byte
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.Format,
		&t.StartDate,
		&t.EndDate,
		&t.IsActive,
		&t.CurrentRoundNumber,
		&t.AutomationStatus,
		&rulesRaw,
		&t.ScoreCap,
		&t.WinnerTeamID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rulesRaw) > 0 {
		if err := json.Unmarshal(rulesRaw, &t.MatchTypeRules); err != nil {
			return nil, fmt.Errorf("failed to decode match_type_rules for tournament %d: %w", t.ID, err)
		}
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, onlyActive bool) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments`
	if onlyActive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY start_date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) BeginAutomation(ctx context.Context, exec SQLExecutor, id int) (bool, error) {
	query := `
		UPDATE tournaments
		SET automation_status = $1, updated_at = NOW()
		WHERE id = $2 AND automation_status = $3`

	result, err := exec.ExecContext(ctx, query, models.AutomationProcessing, id, models.AutomationIdle)
	if err != nil {
		return false, fmt.Errorf("failed to begin automation for tournament %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *postgresTournamentRepository) SetAutomationStatus(ctx context.Context, exec SQLExecutor, id int, status models.AutomationStatus) error {
	query := `
		UPDATE tournaments
		SET automation_status = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to set automation status for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetCurrentRound(ctx context.Context, exec SQLExecutor, id int, roundNumber int) error {
	query := `
		UPDATE tournaments
		SET current_round_number = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := exec.ExecContext(ctx, query, roundNumber, id)
	if err != nil {
		return fmt.Errorf("failed to set current round for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetWinner(ctx context.Context, exec SQLExecutor, id int, winnerTeamID *int) error {
	query := `
		UPDATE tournaments
		SET winner_team_id = $1, is_active = FALSE, updated_at = NOW()
		WHERE id = $2`

	result, err := exec.ExecContext(ctx, query, winnerTeamID, id)
	if err != nil {
		return fmt.Errorf("failed to set winner for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
