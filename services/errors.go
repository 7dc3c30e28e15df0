package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rule errors
	ErrValidationFailed      = errors.New("validation failed")
	ErrInvalidPIN            = errors.New("invalid team PIN")
	ErrTeamNotInMatch        = errors.New("team does not play in this match")
	ErrPlayersRequired       = errors.New("at least one player must be selected")
	ErrPlayerNotOnTeam       = errors.New("selected player does not belong to the team")
	ErrInvalidScore          = errors.New("scores must be non-negative and not equal")
	ErrScoreAboveCap         = errors.New("score exceeds the tournament score cap")
	ErrEvidenceNotAllowed    = errors.New("result evidence can only be attached while awaiting validation")
	ErrUnsupportedFileFormat = errors.New("unsupported photo content type")

	// State machine errors
	ErrMatchNotActivatable        = errors.New("match cannot be activated in its current status")
	ErrMatchNotActive             = errors.New("match is not active")
	ErrMatchNotAwaitingValidation = errors.New("match is not awaiting result validation")
	ErrMatchAlreadyTerminal       = errors.New("match is already completed or cancelled")
	ErrValidatorIsSubmitter       = errors.New("the submitting team cannot validate its own result")

	// Conflict errors
	ErrResultAlreadySubmitted = errors.New("a result has already been submitted for this match")

	// Entity lookups
	ErrTeamNotFound       = errors.New("team not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrCourtNotFound      = errors.New("court not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrStageNotFound      = errors.New("stage not found")
	ErrResultNotFound     = errors.New("match result not found")

	// Court pool
	ErrNoCourtAvailable = errors.New("no court is currently available")

	// Progression engine
	ErrAutomationBusy      = errors.New("tournament progression is already running")
	ErrNotEnoughTeams      = errors.New("not enough active teams to generate matches")
	ErrUnsupportedFormat   = errors.New("unsupported tournament format")
	ErrTournamentNotActive = errors.New("tournament is not active")
)
