package models

import "time"

type TournamentFormat string

const (
	FormatRoundRobin TournamentFormat = "round_robin"
	FormatKnockout   TournamentFormat = "knockout"
	FormatSwiss      TournamentFormat = "swiss"
	FormatMultiStage TournamentFormat = "multi_stage"
)

// AutomationStatus is the per-tournament single-flight guard for the
// progression engine. Transitions happen via compare-and-swap: only an
// idle tournament may enter processing.
type AutomationStatus string

const (
	AutomationIdle       AutomationStatus = "idle"
	AutomationProcessing AutomationStatus = "processing"
	AutomationError      AutomationStatus = "error"
	AutomationCompleted  AutomationStatus = "completed"
)

type Tournament struct {
	ID                 int              `json:"id" db:"id"`
	Name               string           `json:"name" db:"name"`
	Description        *string          `json:"description,omitempty" db:"description"`
	Format             TournamentFormat `json:"format" db:"format"`
	StartDate          time.Time        `json:"start_date" db:"start_date"`
	EndDate            time.Time        `json:"end_date" db:"end_date"`
	IsActive           bool             `json:"is_active" db:"is_active"`
	CurrentRoundNumber int              `json:"current_round_number" db:"current_round_number"`
	AutomationStatus   AutomationStatus `json:"automation_status" db:"automation_status"`
	MatchTypeRules     MatchTypeRules   `json:"match_type_rules" db:"match_type_rules"`
	// ScoreCap bounds submitted scores when set; nil means uncapped.
	ScoreCap     *int      `json:"score_cap,omitempty" db:"score_cap"`
	WinnerTeamID *int      `json:"winner_team_id,omitempty" db:"winner_team_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// StageFormat mirrors TournamentFormat for the formats a stage may use.
type StageFormat string

const (
	StageFormatRoundRobin StageFormat = "round_robin"
	StageFormatKnockout   StageFormat = "knockout"
	StageFormatSwiss      StageFormat = "swiss"
)

// Stage is one phase of a multi-stage tournament with its own format.
type Stage struct {
	ID               int         `json:"id" db:"id"`
	TournamentID     int         `json:"tournament_id" db:"tournament_id"`
	StageNumber      int         `json:"stage_number" db:"stage_number"`
	Name             string      `json:"name" db:"name"`
	Format           StageFormat `json:"format" db:"format"`
	NumQualifiers    int         `json:"num_qualifiers" db:"num_qualifiers"`
	NumRoundsInStage int         `json:"num_rounds_in_stage" db:"num_rounds_in_stage"`
	IsComplete       bool        `json:"is_complete" db:"is_complete"`
}

// Round groups the matches generated together. Number is the overall
// round number within the tournament; NumberInStage counts within the
// owning stage when there is one.
type Round struct {
	ID            int       `json:"id" db:"id"`
	TournamentID  int       `json:"tournament_id" db:"tournament_id"`
	StageID       *int      `json:"stage_id,omitempty" db:"stage_id"`
	Number        int       `json:"number" db:"number"`
	NumberInStage int       `json:"number_in_stage" db:"number_in_stage"`
	Name          string    `json:"name" db:"name"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
