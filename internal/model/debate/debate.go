package debate

import (
	"time"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
)

// Stage is the position of a session in its linear lifecycle.
type Stage int

const (
	StageNotStarted Stage = iota
	StageRound1
	StageRound2
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageNotStarted:
		return "not_started"
	case StageRound1:
		return "round1"
	case StageRound2:
		return "round2"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText renders the stage name in JSON payloads.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Round tags a message with the round it was spoken in.
type Round string

const (
	RoundInitial  Round = "initial"
	RoundRebuttal Round = "rebuttal"
)

// Message is one transcript entry. Entries are never mutated after append.
type Message struct {
	ID          string       `json:"id"`
	PersonaType persona.Type `json:"persona"`
	Character   string       `json:"character"`
	Text        string       `json:"text"`
	Round       Round        `json:"type"`
	Timestamp   time.Time    `json:"timestamp"`
	Fallback    bool         `json:"fallback,omitempty"`
}

// Session is a single Battle Arena run.
type Session struct {
	ID            string            `json:"id"`
	Question      string            `json:"question"`
	Participants  []persona.Persona `json:"participants"`
	Transcript    []Message         `json:"transcript"`
	Stage         Stage             `json:"stage"`
	ActiveSpeaker *int              `json:"activeSpeaker"`
}

// Round returns the round tag for the current stage.
func (s *Session) Round() Round {
	if s.Stage == StageRound2 {
		return RoundRebuttal
	}
	return RoundInitial
}

// Speaker returns the persona whose turn it is.
func (s *Session) Speaker() (persona.Persona, bool) {
	if s.ActiveSpeaker == nil || *s.ActiveSpeaker >= len(s.Participants) {
		return persona.Persona{}, false
	}
	return s.Participants[*s.ActiveSpeaker], true
}
