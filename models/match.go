package models

import "time"

type MatchStatus string

const (
	MatchStatusPending             MatchStatus = "pending"
	MatchStatusPendingVerification MatchStatus = "pending_verification"
	MatchStatusActive              MatchStatus = "active"
	MatchStatusWaitingValidation   MatchStatus = "waiting_validation"
	MatchStatusCompleted           MatchStatus = "completed"
	MatchStatusCancelled           MatchStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusCancelled
}

type Match struct {
	ID               int            `json:"id" db:"id"`
	TournamentID     int            `json:"tournament_id" db:"tournament_id"`
	StageID          *int           `json:"stage_id,omitempty" db:"stage_id"`
	RoundID          *int           `json:"round_id,omitempty" db:"round_id"`
	Team1ID          int            `json:"team1_id" db:"team1_id"`
	Team2ID          int            `json:"team2_id" db:"team2_id"`
	Team1Score       *int           `json:"team1_score,omitempty" db:"team1_score"`
	Team2Score       *int           `json:"team2_score,omitempty" db:"team2_score"`
	Status           MatchStatus    `json:"status" db:"status"`
	CourtID          *int           `json:"court_id,omitempty" db:"court_id"`
	ProposedCourtID  *int           `json:"proposed_court_id,omitempty" db:"proposed_court_id"`
	WaitingForCourt  bool           `json:"waiting_for_court" db:"waiting_for_court"`
	StartTime        *time.Time     `json:"start_time,omitempty" db:"start_time"`
	EndTime          *time.Time     `json:"end_time,omitempty" db:"end_time"`
	Duration         *time.Duration `json:"duration,omitempty" db:"duration"`
	WinnerTeamID     *int           `json:"winner_team_id,omitempty" db:"winner_team_id"`
	LoserTeamID      *int           `json:"loser_team_id,omitempty" db:"loser_team_id"`
	MatchType        *MatchType     `json:"match_type,omitempty" db:"match_type"`
	Team1PlayerCount *int           `json:"team1_player_count,omitempty" db:"team1_player_count"`
	Team2PlayerCount *int           `json:"team2_player_count,omitempty" db:"team2_player_count"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// HasTeam reports whether the given team plays in this match.
func (m *Match) HasTeam(teamID int) bool {
	return m.Team1ID == teamID || m.Team2ID == teamID
}

// Opponent returns the other team of the match.
func (m *Match) Opponent(teamID int) int {
	if m.Team1ID == teamID {
		return m.Team2ID
	}
	return m.Team1ID
}

// MatchActivation records one team's half of the activation handshake.
// At most one activation exists per (match, team).
type MatchActivation struct {
	ID          int       `json:"id" db:"id"`
	MatchID     int       `json:"match_id" db:"match_id"`
	TeamID      int       `json:"team_id" db:"team_id"`
	IsInitiator bool      `json:"is_initiator" db:"is_initiator"`
	ActivatedAt time.Time `json:"activated_at" db:"activated_at"`
}

type PlayerRole string

const (
	RolePointer PlayerRole = "pointer"
	RoleMilieu  PlayerRole = "milieu"
	RoleTirer   PlayerRole = "tirer"
	RoleFlex    PlayerRole = "flex"
)

// MatchPlayer is one roster entry, created at activation time. Unique per
// (match, player).
type MatchPlayer struct {
	ID          int        `json:"id" db:"id"`
	MatchID     int        `json:"match_id" db:"match_id"`
	PlayerID    int        `json:"player_id" db:"player_id"`
	TeamID      int        `json:"team_id" db:"team_id"`
	Role        PlayerRole `json:"role" db:"role"`
	MatchFormat *MatchType `json:"match_format,omitempty" db:"match_format"`
}

// MatchResult is the single live result submission for a match. A
// disagreement deletes it and reverts the match to active.
type MatchResult struct {
	ID            int        `json:"id" db:"id"`
	MatchID       int        `json:"match_id" db:"match_id"`
	SubmittedByID int        `json:"submitted_by_id" db:"submitted_by_id"`
	ValidatedByID *int       `json:"validated_by_id,omitempty" db:"validated_by_id"`
	Notes         *string    `json:"notes,omitempty" db:"notes"`
	PhotoKey      *string    `json:"-" db:"photo_key"`
	PhotoURL      *string    `json:"photo_url,omitempty" db:"-"`
	SubmittedAt   time.Time  `json:"submitted_at" db:"submitted_at"`
	ValidatedAt   *time.Time `json:"validated_at,omitempty" db:"validated_at"`
}
