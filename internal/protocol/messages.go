// Package protocol defines the JSON datagram framing shared by server and
// clients. Every datagram is a single envelope; payloads are kept small
// enough to fit one UDP packet.
package protocol

import (
	"encoding/json"
	"fmt"

	"udp-trivia-service/internal/domain"
)

// Message types, client to server.
const (
	TypeJoin   = "join"
	TypeAnswer = "answer"
	TypeLeave  = "leave"
)

// Message types, server to client.
const (
	TypeWelcome     = "welcome"
	TypeQuestion    = "question"
	TypeAnswerAck   = "answer_ack"
	TypeResult      = "result"
	TypeLeaderboard = "leaderboard"
	TypeRejected    = "rejected"
	TypeTerminated  = "terminated"
)

// Rejection reason codes.
const (
	ReasonDuplicateName  = "duplicate-name"
	ReasonGameInProgress = "game-in-progress"
)

// Envelope frames every datagram in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	Name string `json:"name"`
}

type AnswerPayload struct {
	// Question is the zero-based index of the question being answered.
	Question int `json:"question"`
	// Answer is either a 1-based option number or literal option text.
	Answer string `json:"answer"`
}

type WelcomePayload struct {
	Message string `json:"message"`
}

type QuestionPayload struct {
	Question int      `json:"question"`
	Total    int      `json:"total"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
}

type AnswerAckPayload struct {
	Question int `json:"question"`
	// Duplicate marks a repeat submission; it was acknowledged but the
	// first answer stands.
	Duplicate bool `json:"duplicate,omitempty"`
}

type ResultPayload struct {
	Question int                    `json:"question"`
	Correct  string                 `json:"correct"`
	Outcomes []domain.PlayerOutcome `json:"outcomes"`
}

type LeaderboardPayload struct {
	Final   bool                      `json:"final,omitempty"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}

type RejectedPayload struct {
	Reason string `json:"reason"`
}

type TerminatedPayload struct {
	Reason string `json:"reason"`
}

// Encode marshals a typed payload into a framed datagram.
func Encode(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		raw = data
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// Decode unmarshals a datagram into its envelope. Payload decoding is left
// to the handler for the specific type.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}
