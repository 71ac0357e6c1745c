package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/chat"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
)

// Apology is stored as the character's reply when no answer could be produced.
const Apology = "I'm having trouble connecting right now. Could you try again?"

var (
	ErrPersonaRequired = errors.New("persona is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message is empty")
)

// Replier produces a character reply for the latest user message.
type Replier interface {
	Reply(ctx context.Context, p *persona.Persona, history []chat.Message, userMessage string) (string, error)
}

// Service encapsulates conversation state management.
type Service struct {
	personas persona.Store

	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
}

// NewService bootstraps the in-memory chat service.
func NewService(personas persona.Store) *Service {
	return &Service{
		personas: personas,
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
	}
}

// CreateSession provisions an anonymous session bound to a persona and seeds
// the persona greeting as the first message.
func (s *Service) CreateSession(_ context.Context, personaType string) (chat.Session, error) {
	if strings.TrimSpace(personaType) == "" {
		return chat.Session{}, ErrPersonaRequired
	}
	p := s.personas.Lookup(personaType)

	session := chat.Session{
		ID:          uuid.NewString(),
		PersonaType: p.Type,
		Character:   p.Character,
		CreatedAt:   time.Now().UTC(),
	}

	messages := make([]chat.Message, 0, 16)
	if p.Greeting != "" {
		messages = append(messages, chat.Message{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			Sender:    chat.SenderCharacter,
			Content:   p.Greeting,
			CreatedAt: session.CreatedAt,
		})
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = messages
	s.mu.Unlock()

	return session, nil
}

// SaveMessage appends a message to the session history.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return message, nil
}

// Reply stores the user message, asks replier for an answer and stores it.
// A failing or empty reply is replaced by Apology and is not an error.
func (s *Service) Reply(ctx context.Context, sessionID, text string, replier Replier) (chat.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}
	history, err := s.LoadTranscript(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}
	if _, err := s.SaveMessage(ctx, chat.Message{SessionID: sessionID, Sender: chat.SenderUser, Content: text}); err != nil {
		return chat.Message{}, err
	}

	p := s.personas.Lookup(string(session.PersonaType))
	answer := chat.Message{SessionID: sessionID, Sender: chat.SenderCharacter}

	var reply string
	if replier != nil {
		reply, err = replier.Reply(ctx, &p, history, text)
	} else {
		err = errors.New("no replier configured")
	}
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		log.Printf("[chat] reply failed session=%s persona=%s, using apology: %v", sessionID, p.Type, err)
		answer.Content = Apology
		answer.Fallback = true
	} else {
		answer.Content = reply
	}

	return s.SaveMessage(ctx, answer)
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}
