package models

import "time"

// Team is owned by the teams module; the engine only reads identity and
// verifies actions against the stored PIN hash.
type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	PinHash   string    `json:"-" db:"pin_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Player struct {
	ID     int    `json:"id" db:"id"`
	TeamID int    `json:"team_id" db:"team_id"`
	Name   string `json:"name" db:"name"`
}

// TournamentTeam is a team's membership in one tournament, with the
// Swiss-system bookkeeping fields.
type TournamentTeam struct {
	ID                 int       `json:"id" db:"id"`
	TournamentID       int       `json:"tournament_id" db:"tournament_id"`
	TeamID             int       `json:"team_id" db:"team_id"`
	IsActive           bool      `json:"is_active" db:"is_active"`
	SeedingPosition    *int      `json:"seeding_position,omitempty" db:"seeding_position"`
	CurrentStageNumber int       `json:"current_stage_number" db:"current_stage_number"`
	SwissPoints        int       `json:"swiss_points" db:"swiss_points"`
	BuchholzScore      float64   `json:"buchholz_score" db:"buchholz_score"`
	ReceivedByeInRound *int      `json:"received_bye_in_round,omitempty" db:"received_bye_in_round"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`

	// OpponentsPlayed holds the team IDs this team has already faced in
	// this tournament. Loaded by the repository, not a column.
	OpponentsPlayed []int `json:"opponents_played,omitempty" db:"-"`

	Team *Team `json:"team,omitempty" db:"-"`
}

// HasPlayed reports whether the team already faced the given opponent.
func (tt *TournamentTeam) HasPlayed(teamID int) bool {
	for _, id := range tt.OpponentsPlayed {
		if id == teamID {
			return true
		}
	}
	return false
}
