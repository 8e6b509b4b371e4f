package domain

import "errors"

var (
	// ErrDuplicateName is returned when a join reuses a currently registered name.
	ErrDuplicateName = errors.New("display name already taken")
	// ErrPlayerNotFound is returned when an address has no registered player.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrGameInProgress rejects joins outside the lobby phase.
	ErrGameInProgress = errors.New("game in progress")
	// ErrNoPlayers rejects a start command with an empty registry.
	ErrNoPlayers = errors.New("no players registered")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates loaded quiz content failed validation.
	ErrInvalidQuiz = errors.New("invalid quiz")
)
