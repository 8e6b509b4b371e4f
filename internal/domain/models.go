package domain

import (
	"fmt"
	"strings"
)

// Phase is the session state machine's current state.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseAsking   Phase = "asking"
	PhaseGrading  Phase = "grading"
	PhaseFinished Phase = "finished"
)

// Outcome is the grading result for one player on one question. Every player
// registered when a question opens receives exactly one of these.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeTimedOut  Outcome = "timeout"
)

// Player is a registered participant, keyed by their remote UDP address.
// Players are only ever removed by an explicit leave or an admin reset,
// never because they went quiet.
type Player struct {
	ID   string
	Addr string
	Name string
	// Seq is the registration order, used as the leaderboard tie-break.
	Seq   int
	Score int
}

// Question models a multiple-choice question. Immutable after load.
type Question struct {
	Prompt  string   `json:"prompt" yaml:"prompt"`
	Options []string `json:"options" yaml:"options"`
	// Correct is the zero-based index into Options.
	Correct int `json:"correct" yaml:"correct"`
	// Points overrides the configured per-correct delta when positive.
	Points int `json:"points,omitempty" yaml:"points,omitempty"`
}

// Quiz is an ordered sequence of questions; a question is identified by its
// position in the sequence.
type Quiz struct {
	ID        string     `json:"id" yaml:"id"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Validate checks loaded quiz content before it can back a session.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz %q has no questions", ErrInvalidQuiz, q.ID)
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Prompt) == "" {
			return fmt.Errorf("%w: question %d has no prompt", ErrInvalidQuiz, i)
		}
		if len(question.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidQuiz, i)
		}
		seen := make(map[string]struct{}, len(question.Options))
		for _, opt := range question.Options {
			key := strings.ToLower(strings.TrimSpace(opt))
			if _, dup := seen[key]; dup {
				return fmt.Errorf("%w: question %d has duplicate option %q", ErrInvalidQuiz, i, opt)
			}
			seen[key] = struct{}{}
		}
		if question.Correct < 0 || question.Correct >= len(question.Options) {
			return fmt.Errorf("%w: question %d correct index out of range", ErrInvalidQuiz, i)
		}
	}
	return nil
}

// PlayerOutcome is one player's grading result for a single question.
type PlayerOutcome struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
	Awarded int     `json:"awarded"`
}

// LeaderboardEntry is a snapshot-friendly view of a player.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Leaderboard is the deterministic ranking: score descending, ties broken
// by registration order. Recomputed from scratch after every grading pass.
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// Snapshot is a read-only view of the session published to spectators and
// rendered by the admin status command.
type Snapshot struct {
	Phase       Phase       `json:"phase"`
	Question    int         `json:"question"`
	Total       int         `json:"total"`
	Leaderboard Leaderboard `json:"leaderboard"`
}
