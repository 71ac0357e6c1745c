// Package debate sequences the two-round Battle Arena between financial personas.
package debate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	model "github.com/zhouzirui/money-wrapped/backend/internal/model/debate"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
)

const (
	MinParticipants = 2
	MaxParticipants = 4

	defaultTurnTimeout = 20 * time.Second
)

var (
	// ErrValidation marks caller input rejected before any collaborator call.
	ErrValidation = errors.New("validation error")
	// ErrNotRunning is returned when advancing a session that is not in a round.
	ErrNotRunning = errors.New("debate is not running")
)

// TurnRequest is the prompt context handed to a Responder for one turn.
type TurnRequest struct {
	Question string
	Persona  persona.Persona
	Round    model.Round
	Context  string
}

// Responder generates one persona statement. Implementations may fail; the
// orchestrator recovers every failure locally.
type Responder interface {
	Respond(ctx context.Context, req TurnRequest) (string, error)
}

// Config tunes the orchestrator.
type Config struct {
	TurnTimeout time.Duration
}

// Orchestrator runs debate sessions turn by turn.
type Orchestrator struct {
	responder   Responder
	turnTimeout time.Duration
	now         func() time.Time
}

// New creates an orchestrator. A nil responder makes every turn a fallback turn.
func New(responder Responder, cfg Config) *Orchestrator {
	timeout := cfg.TurnTimeout
	if timeout <= 0 {
		timeout = defaultTurnTimeout
	}
	return &Orchestrator{
		responder:   responder,
		turnTimeout: timeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Reset returns an empty session in the not-started stage.
func (o *Orchestrator) Reset() *model.Session {
	return &model.Session{Stage: model.StageNotStarted}
}

// StartDebate validates the input and opens round one with the first
// participant to speak. Speaking order is selection order.
func (o *Orchestrator) StartDebate(question string, participants []persona.Persona) (*model.Session, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrValidation)
	}
	if len(participants) < MinParticipants || len(participants) > MaxParticipants {
		return nil, fmt.Errorf("%w: need %d to %d personas, got %d", ErrValidation, MinParticipants, MaxParticipants, len(participants))
	}

	seen := make(map[persona.Type]struct{}, len(participants))
	for _, p := range participants {
		if p.Type == "" {
			return nil, fmt.Errorf("%w: persona type is required", ErrValidation)
		}
		if _, dup := seen[p.Type]; dup {
			return nil, fmt.Errorf("%w: persona %s selected twice", ErrValidation, p.Type)
		}
		seen[p.Type] = struct{}{}
	}

	first := 0
	return &model.Session{
		ID:            uuid.NewString(),
		Question:      question,
		Participants:  append([]persona.Persona(nil), participants...),
		Transcript:    make([]model.Message, 0, 2*len(participants)),
		Stage:         model.StageRound1,
		ActiveSpeaker: &first,
	}, nil
}

// Advance produces the next transcript entry and returns the updated session.
// The input session is left untouched. Collaborator failures never surface as
// errors; only misuse of a session that is not running does.
func (o *Orchestrator) Advance(ctx context.Context, session *model.Session) (*model.Session, error) {
	if session == nil || session.ActiveSpeaker == nil ||
		(session.Stage != model.StageRound1 && session.Stage != model.StageRound2) {
		return nil, ErrNotRunning
	}

	speaker, ok := session.Speaker()
	if !ok {
		return nil, ErrNotRunning
	}

	round := session.Round()
	req := TurnRequest{
		Question: session.Question,
		Persona:  speaker,
		Round:    round,
		Context:  BuildContext(session, *session.ActiveSpeaker),
	}

	text, fallback := o.generate(ctx, session.ID, req)

	next := cloneSession(session)
	next.Transcript = append(next.Transcript, model.Message{
		ID:          uuid.NewString(),
		PersonaType: speaker.Type,
		Character:   speaker.Character,
		Text:        text,
		Round:       round,
		Timestamp:   o.now(),
		Fallback:    fallback,
	})
	advanceSpeaker(next)
	return next, nil
}

// Run advances the session until it completes, calling onMessage after every
// appended entry. Cancellation is checked between turns; a turn whose result
// arrives after cancellation is discarded.
func (o *Orchestrator) Run(ctx context.Context, session *model.Session, onMessage func(model.Message)) (*model.Session, error) {
	current := session
	for current.Stage != model.StageComplete {
		if err := ctx.Err(); err != nil {
			return current, err
		}

		next, err := o.Advance(ctx, current)
		if err != nil {
			return current, err
		}
		if err := ctx.Err(); err != nil {
			return current, err
		}

		current = next
		if onMessage != nil {
			onMessage(current.Transcript[len(current.Transcript)-1])
		}
	}
	return current, nil
}

func (o *Orchestrator) generate(ctx context.Context, sessionID string, req TurnRequest) (string, bool) {
	if o.responder == nil {
		return req.Persona.FallbackLine(req.Round == model.RoundRebuttal), true
	}

	turnCtx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	text, err := o.responder.Respond(turnCtx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		log.Printf("[debate] turn failed session=%s persona=%s round=%s, using fallback: %v", sessionID, req.Persona.Type, req.Round, err)
		return req.Persona.FallbackLine(req.Round == model.RoundRebuttal), true
	}
	return strings.TrimSpace(text), false
}

// BuildContext returns the prompt context for the participant at index.
// Round one sees only the question. Round two additionally sees every
// round-one statement except the speaker's own.
func BuildContext(session *model.Session, index int) string {
	if session.Stage != model.StageRound2 {
		return session.Question
	}

	var speakerType persona.Type
	if index >= 0 && index < len(session.Participants) {
		speakerType = session.Participants[index].Type
	}

	others := make([]string, 0, len(session.Participants))
	for _, msg := range session.Transcript {
		if msg.Round != model.RoundInitial || msg.PersonaType == speakerType {
			continue
		}
		others = append(others, fmt.Sprintf("%s (%s) said: %s", msg.Character, msg.PersonaType, msg.Text))
	}

	var builder strings.Builder
	builder.WriteString(session.Question)
	builder.WriteString("\n\nNow give your final statement and brief responses to what others have said:\n")
	builder.WriteString(strings.Join(others, "\n\n"))
	return builder.String()
}

func advanceSpeaker(s *model.Session) {
	idx := *s.ActiveSpeaker + 1
	if idx < len(s.Participants) {
		s.ActiveSpeaker = &idx
		return
	}

	switch s.Stage {
	case model.StageRound1:
		first := 0
		s.Stage = model.StageRound2
		s.ActiveSpeaker = &first
	case model.StageRound2:
		s.Stage = model.StageComplete
		s.ActiveSpeaker = nil
	}
}

func cloneSession(s *model.Session) *model.Session {
	out := *s
	out.Participants = append([]persona.Persona(nil), s.Participants...)
	out.Transcript = append(make([]model.Message, 0, 2*len(s.Participants)), s.Transcript...)
	if s.ActiveSpeaker != nil {
		idx := *s.ActiveSpeaker
		out.ActiveSpeaker = &idx
	}
	return &out
}
