package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/boulodrome/tournament-engine/models"
)

var ErrTournamentTeamNotFound = errors.New("tournament team entry not found")

type TournamentTeamRepository interface {
	// ListActive returns the active entries ordered by Swiss standing:
	// points descending, Buchholz descending, then id as a stable tie
	// break. Opponent history is loaded for each entry.
	ListActive(ctx context.Context, tournamentID int) ([]*models.TournamentTeam, error)
	ListActiveByStage(ctx context.Context, tournamentID, stageNumber int) ([]*models.TournamentTeam, error)
	GetByTeam(ctx context.Context, tournamentID, teamID int) (*models.TournamentTeam, error)
	Update(ctx context.Context, exec SQLExecutor, tt *models.TournamentTeam) error
	AddOpponent(ctx context.Context, exec SQLExecutor, tournamentTeamID, opponentTeamID int) error
}

type postgresTournamentTeamRepository struct {
	db *sql.DB
}

func NewPostgresTournamentTeamRepository(db *sql.DB) TournamentTeamRepository {
	return &postgresTournamentTeamRepository{db: db}
}

const tournamentTeamColumns = `
	tt.id, tt.tournament_id, tt.team_id, tt.is_active, tt.seeding_position,
	tt.current_stage_number, tt.swiss_points, tt.buchholz_score,
	tt.received_bye_in_round, tt.created_at, t.id, t.name, t.pin_hash, t.created_at`

func scanTournamentTeam(row interface{ Scan(dest ...interface{}) error }) (*models.TournamentTeam, error) {
	tt := &models.TournamentTeam{Team: &models.Team{}}
	err := row.Scan(
		&tt.ID,
		&tt.TournamentID,
		&tt.TeamID,
		&tt.IsActive,
		&tt.SeedingPosition,
		&tt.CurrentStageNumber,
		&tt.SwissPoints,
		&tt.BuchholzScore,
		&tt.ReceivedByeInRound,
		&tt.CreatedAt,
		&tt.Team.ID,
		&tt.Team.Name,
		&tt.Team.PinHash,
		&tt.Team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tt, nil
}

func (r *postgresTournamentTeamRepository) ListActive(ctx context.Context, tournamentID int) ([]*models.TournamentTeam, error) {
	query := `
		SELECT ` + tournamentTeamColumns + `
		FROM tournament_teams tt
		JOIN teams t ON t.id = tt.team_id
		WHERE tt.tournament_id = $1 AND tt.is_active = TRUE
		ORDER BY tt.swiss_points DESC, tt.buchholz_score DESC, tt.id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament teams for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	entries, err := collectTournamentTeams(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadOpponents(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *postgresTournamentTeamRepository) ListActiveByStage(ctx context.Context, tournamentID, stageNumber int) ([]*models.TournamentTeam, error) {
	query := `
		SELECT ` + tournamentTeamColumns + `
		FROM tournament_teams tt
		JOIN teams t ON t.id = tt.team_id
		WHERE tt.tournament_id = $1 AND tt.is_active = TRUE AND tt.current_stage_number = $2
		ORDER BY tt.swiss_points DESC, tt.buchholz_score DESC, tt.id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, stageNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage %d teams for tournament %d: %w", stageNumber, tournamentID, err)
	}
	defer rows.Close()

	entries, err := collectTournamentTeams(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadOpponents(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *postgresTournamentTeamRepository) GetByTeam(ctx context.Context, tournamentID, teamID int) (*models.TournamentTeam, error) {
	query := `
		SELECT ` + tournamentTeamColumns + `
		FROM tournament_teams tt
		JOIN teams t ON t.id = tt.team_id
		WHERE tt.tournament_id = $1 AND tt.team_id = $2`

	tt, err := scanTournamentTeam(r.db.QueryRowContext(ctx, query, tournamentID, teamID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament team (tournament %d, team %d): %w", tournamentID, teamID, err)
	}
	if err := r.loadOpponents(ctx, []*models.TournamentTeam{tt}); err != nil {
		return nil, err
	}
	return tt, nil
}

func (r *postgresTournamentTeamRepository) Update(ctx context.Context, exec SQLExecutor, tt *models.TournamentTeam) error {
	query := `
		UPDATE tournament_teams
		SET is_active = $1, current_stage_number = $2, swiss_points = $3,
		    buchholz_score = $4, received_bye_in_round = $5
		WHERE id = $6`

	result, err := exec.ExecContext(ctx, query,
		tt.IsActive,
		tt.CurrentStageNumber,
		tt.SwissPoints,
		tt.BuchholzScore,
		tt.ReceivedByeInRound,
		tt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tournament team %d: %w", tt.ID, err)
	}
	return checkAffectedRows(result, ErrTournamentTeamNotFound)
}

func (r *postgresTournamentTeamRepository) AddOpponent(ctx context.Context, exec SQLExecutor, tournamentTeamID, opponentTeamID int) error {
	query := `
		INSERT INTO tournament_team_opponents (tournament_team_id, opponent_team_id)
		VALUES ($1, $2)
		ON CONFLICT (tournament_team_id, opponent_team_id) DO NOTHING`

	if _, err := exec.ExecContext(ctx, query, tournamentTeamID, opponentTeamID); err != nil {
		return fmt.Errorf("failed to record opponent %d for tournament team %d: %w", opponentTeamID, tournamentTeamID, err)
	}
	return nil
}

func (r *postgresTournamentTeamRepository) loadOpponents(ctx context.Context, entries []*models.TournamentTeam) error {
	for _, tt := range entries {
		query := `
			SELECT opponent_team_id
			FROM tournament_team_opponents
			WHERE tournament_team_id = $1
			ORDER BY opponent_team_id`

		rows, err := r.db.QueryContext(ctx, query, tt.ID)
		if err != nil {
			return fmt.Errorf("failed to query opponents for tournament team %d: %w", tt.ID, err)
		}
		opponents := make([]int, 0)
		for rows.Next() {
			var id int
			if scanErr := rows.Scan(&id); scanErr != nil {
				rows.Close()
				return fmt.Errorf("failed to scan opponent row: %w", scanErr)
			}
			opponents = append(opponents, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("error during opponent rows iteration: %w", err)
		}
		rows.Close()
		tt.OpponentsPlayed = opponents
	}
	return nil
}

func collectTournamentTeams(rows *sql.Rows) ([]*models.TournamentTeam, error) {
	entries := make([]*models.TournamentTeam, 0)
	for rows.Next() {
		tt, err := scanTournamentTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament team row: %w", err)
		}
		entries = append(entries, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament team rows iteration: %w", err)
	}
	return entries, nil
}
