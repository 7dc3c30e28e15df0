package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/boulodrome/tournament-engine/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// Update persists every mutable field of the match.
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	ListByTournament(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Match, error)
	ListByStage(ctx context.Context, stageID int) ([]*models.Match, error)
	// ListWaitingForCourt returns verified matches queued for a court,
	// oldest first. The queue is drained in FIFO order.
	ListWaitingForCourt(ctx context.Context, tournamentID int) ([]*models.Match, error)
	// ListBusyCourtIDs returns courts held by matches currently in play,
	// excluding the given match.
	ListBusyCourtIDs(ctx context.Context, excludeMatchID int) ([]int, error)
	// FirstAwaitingOpponent returns the oldest match where the given
	// team's opponent has activated but the team itself has not.
	FirstAwaitingOpponent(ctx context.Context, teamID int) (*models.Match, error)
	// FirstPendingForTeam returns the team's oldest untouched match.
	FirstPendingForTeam(ctx context.Context, teamID int) (*models.Match, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, stage_id, round_id, team1_id, team2_id,
	team1_score, team2_score, status, court_id, proposed_court_id,
	waiting_for_court, start_time, end_time, duration_ns, winner_team_id,
	loser_team_id, match_type, team1_player_count, team2_player_count,
	created_at, updated_at`

func scanMatch(row interface{ Scan(dest ...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	var durationNS sql.NullInt64
	err := row.Scan(
		&m.ID,
		&m.TournamentID,
		&m.StageID,
		&m.RoundID,
		&m.Team1ID,
		&m.Team2ID,
		&m.Team1Score,
		&m.Team2Score,
		&m.Status,
		&m.CourtID,
		&m.ProposedCourtID,
		&m.WaitingForCourt,
		&m.StartTime,
		&m.EndTime,
		&durationNS,
		&m.WinnerTeamID,
		&m.LoserTeamID,
		&m.MatchType,
		&m.Team1PlayerCount,
		&m.Team2PlayerCount,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if durationNS.Valid {
		d := time.Duration(durationNS.Int64)
		m.Duration = &d
	}
	return m, nil
}

func durationNanos(d *time.Duration) interface{} {
	if d == nil {
		return nil
	}
	return int64(*d)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (tournament_id, stage_id, round_id, team1_id, team2_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		match.TournamentID,
		match.StageID,
		match.RoundID,
		match.Team1ID,
		match.Team2ID,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match for tournament %d: %w", match.TournamentID, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET team1_score = $1, team2_score = $2, status = $3, court_id = $4,
		    proposed_court_id = $5, waiting_for_court = $6, start_time = $7,
		    end_time = $8, duration_ns = $9, winner_team_id = $10,
		    loser_team_id = $11, match_type = $12, team1_player_count = $13,
		    team2_player_count = $14, updated_at = NOW()
		WHERE id = $15`

	result, err := exec.ExecContext(ctx, query,
		match.Team1Score,
		match.Team2Score,
		match.Status,
		match.CourtID,
		match.ProposedCourtID,
		match.WaitingForCourt,
		match.StartTime,
		match.EndTime,
		durationNanos(match.Duration),
		match.WinnerTeamID,
		match.LoserTeamID,
		match.MatchType,
		match.Team1PlayerCount,
		match.Team2PlayerCount,
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE round_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for round %d: %w", roundID, err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE stage_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for stage %d: %w", stageID, err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *postgresMatchRepository) ListWaitingForCourt(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		  AND status = $2
		  AND waiting_for_court = TRUE
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, models.MatchStatusPendingVerification)
	if err != nil {
		return nil, fmt.Errorf("failed to query waiting matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *postgresMatchRepository) ListBusyCourtIDs(ctx context.Context, excludeMatchID int) ([]int, error) {
	query := `
		SELECT court_id
		FROM matches
		WHERE status = $1 AND court_id IS NOT NULL AND id <> $2`

	rows, err := r.db.QueryContext(ctx, query, models.MatchStatusActive, excludeMatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query busy courts: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan busy court row: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during busy court rows iteration: %w", err)
	}
	return ids, nil
}

func (r *postgresMatchRepository) FirstAwaitingOpponent(ctx context.Context, teamID int) (*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches m
		WHERE (m.team1_id = $1 OR m.team2_id = $1)
		  AND m.status = $2
		  AND NOT EXISTS (
		      SELECT 1 FROM match_activations a
		      WHERE a.match_id = m.id AND a.team_id = $1)
		ORDER BY m.created_at
		LIMIT 1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, teamID, models.MatchStatusPendingVerification))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan awaiting match for team %d: %w", teamID, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) FirstPendingForTeam(ctx context.Context, teamID int) (*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (team1_id = $1 OR team2_id = $1) AND status = $2
		ORDER BY created_at
		LIMIT 1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, teamID, models.MatchStatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan pending match for team %d: %w", teamID, err)
	}
	return m, nil
}

func collectMatches(rows *sql.Rows) ([]*models.Match, error) {
	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}
