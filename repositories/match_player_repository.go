package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/boulodrome/tournament-engine/models"
)

var ErrMatchPlayerConflict = errors.New("player is already registered for this match")

type MatchPlayerRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, players []*models.MatchPlayer) error
	ListByMatch(ctx context.Context, matchID int) ([]*models.MatchPlayer, error)
	ListByMatchAndTeam(ctx context.Context, matchID, teamID int) ([]*models.MatchPlayer, error)
	// SetFormatForMatch stamps the detected format on every roster entry
	// once both teams have checked in.
	SetFormatForMatch(ctx context.Context, exec SQLExecutor, matchID int, format models.MatchType) error
}

type postgresMatchPlayerRepository struct {
	db *sql.DB
}

func NewPostgresMatchPlayerRepository(db *sql.DB) MatchPlayerRepository {
	return &postgresMatchPlayerRepository{db: db}
}

func (r *postgresMatchPlayerRepository) CreateBatch(ctx context.Context, exec SQLExecutor, players []*models.MatchPlayer) error {
	query := `
		INSERT INTO match_players (match_id, player_id, team_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	for _, p := range players {
		err := exec.QueryRowContext(ctx, query, p.MatchID, p.PlayerID, p.TeamID, p.Role).Scan(&p.ID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return ErrMatchPlayerConflict
			}
			return fmt.Errorf("failed to register player %d for match %d: %w", p.PlayerID, p.MatchID, err)
		}
	}
	return nil
}

func (r *postgresMatchPlayerRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchPlayer, error) {
	query := `
		SELECT id, match_id, player_id, team_id, role, match_format
		FROM match_players
		WHERE match_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for match %d: %w", matchID, err)
	}
	defer rows.Close()

	return collectMatchPlayers(rows)
}

func (r *postgresMatchPlayerRepository) ListByMatchAndTeam(ctx context.Context, matchID, teamID int) ([]*models.MatchPlayer, error) {
	query := `
		SELECT id, match_id, player_id, team_id, role, match_format
		FROM match_players
		WHERE match_id = $1 AND team_id = $2
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, matchID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for match %d team %d: %w", matchID, teamID, err)
	}
	defer rows.Close()

	return collectMatchPlayers(rows)
}

func (r *postgresMatchPlayerRepository) SetFormatForMatch(ctx context.Context, exec SQLExecutor, matchID int, format models.MatchType) error {
	query := `UPDATE match_players SET match_format = $1 WHERE match_id = $2`

	if _, err := exec.ExecContext(ctx, query, format, matchID); err != nil {
		return fmt.Errorf("failed to set format for match %d roster: %w", matchID, err)
	}
	return nil
}

func collectMatchPlayers(rows *sql.Rows) ([]*models.MatchPlayer, error) {
	players := make([]*models.MatchPlayer, 0)
	for rows.Next() {
		var p models.MatchPlayer
		if err := rows.Scan(&p.ID, &p.MatchID, &p.PlayerID, &p.TeamID, &p.Role, &p.MatchFormat); err != nil {
			return nil, fmt.Errorf("failed to scan match player row: %w", err)
		}
		players = append(players, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match player rows iteration: %w", err)
	}
	return players, nil
}
