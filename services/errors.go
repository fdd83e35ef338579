package services

import "errors"

// Shared error taxonomy for the service layer. Handlers map these onto HTTP
// status codes in one place.
var (
	// Not found
	ErrNotFound           = errors.New("requested resource not found")
	ErrFixtureNotFound    = errors.New("scheduled match not found")
	ErrMatchNotFound      = errors.New("played match not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrVenueNotFound      = errors.New("venue not found")
	ErrPlayerNotFound     = errors.New("player not found")

	// Invalid input
	ErrInvalidGoalScore  = errors.New("goal score must be two non-negative integers in A-B form")
	ErrSameTeams         = errors.New("a match requires two different teams")
	ErrTeamNotRegistered = errors.New("both teams must be registered in this tournament")
	ErrPlayerNotOnTeams  = errors.New("player of the match must belong to one of the playing teams")
	ErrInvalidOutcome    = errors.New("invalid match outcome")
	ErrPlayerNotOnRoster = errors.New("player is not on this team's roster for this tournament")

	// Conflicts
	ErrMatchConflict        = errors.New("a match with this number already exists in this tournament")
	ErrTournamentConflict   = errors.New("a tournament with this id already exists")
	ErrRegistrationConflict = errors.New("team is already registered for this tournament")
	ErrRosterConflict       = errors.New("player is already on this team for this tournament")

	// Store failures during a multi-statement sequence. Always wraps the
	// underlying cause; the whole unit of work has been rolled back.
	ErrTransactionFailed = errors.New("transaction failed")

	// Deployment-level unavailability
	ErrCrestStorageDisabled = errors.New("crest storage is not configured")

	// Auth
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username is already taken")
)
