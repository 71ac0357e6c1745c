package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/chat"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	chatService "github.com/zhouzirui/money-wrapped/backend/internal/service/chat"
	"github.com/zhouzirui/money-wrapped/backend/pkg/utils"
)

// Generator is the AI surface the stream handler needs.
type Generator interface {
	StreamingEnabled() bool
	Reply(ctx context.Context, p *persona.Persona, history []chat.Message, userMessage string) (string, error)
	StreamReply(ctx context.Context, p *persona.Persona, history []chat.Message, userMessage string) (*schema.StreamReader[*schema.Message], error)
}

// Handler manages streaming AI responses via Server-Sent Events
type Handler struct {
	generator Generator
	chatSvc   *chatService.Service
	personas  persona.Store
}

// New creates a new stream handler
func New(generator Generator, chatSvc *chatService.Service, personas persona.Store) *Handler {
	return &Handler{
		generator: generator,
		chatSvc:   chatSvc,
		personas:  personas,
	}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Fallback  bool   `json:"fallback,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest processes streaming AI responses for a chat session.
// A failed generation is answered with the chat apology, not an error event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return chatService.ErrEmptyMessage
	}

	session, p, err := h.getSessionPersona(ctx, sessionID)
	if err != nil {
		return err
	}

	messages, err := h.chatSvc.LoadTranscript(ctx, session.ID)
	if err != nil {
		return err
	}

	utils.SetupSSEHeaders(w)

	// The client may have already persisted the message via REST.
	history := messages
	if hasMatchingUserMessage(messages, sessionID, userMessage) {
		history = messages[:len(messages)-1]
	} else if _, err := h.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Content:   userMessage,
	}); err != nil {
		log.Printf("[stream] failed to save user message: %v", err)
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Content:   p.Character,
	})

	content, err := h.dispatchAIResponse(ctx, w, flusher, sessionID, p, history, userMessage)
	fallback := false
	if err != nil || strings.TrimSpace(content) == "" {
		log.Printf("[stream] generation failed session=%s persona=%s, using apology: %v", sessionID, p.Type, err)
		content = chatService.Apology
		fallback = true
		utils.SendSSEChunk(w, flusher, StreamResponse{
			Event:     "message",
			SessionID: sessionID,
			Content:   content,
			Fallback:  true,
		})
	}

	if _, err := h.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderCharacter,
		Content:   strings.TrimSpace(content),
		Fallback:  fallback,
	}); err != nil {
		log.Printf("[stream] failed to save assistant message: %v", err)
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s, persona=%s", sessionID, p.Type)
	return nil
}

// dispatchAIResponse streams deltas when enabled, otherwise sends one message
func (h *Handler) dispatchAIResponse(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, p *persona.Persona, history []chat.Message, userMessage string) (string, error) {
	if h.generator == nil {
		return "", errors.New("ai service unavailable")
	}

	if h.generator.StreamingEnabled() {
		return h.streamAIResponse(ctx, w, flusher, sessionID, p, history, userMessage)
	}

	reply, err := h.generator.Reply(ctx, p, history, userMessage)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", nil
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   reply,
	})
	return reply, nil
}

// getSessionPersona retrieves session and associated persona information
func (h *Handler) getSessionPersona(ctx context.Context, sessionID string) (*chat.Session, *persona.Persona, error) {
	session, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	p, ok := h.personas.FindByType(session.PersonaType)
	if !ok {
		return nil, nil, fmt.Errorf("persona %s not found", session.PersonaType)
	}

	return &session, &p, nil
}

func hasMatchingUserMessage(messages []chat.Message, sessionID, content string) bool {
	if len(messages) == 0 {
		return false
	}

	last := messages[len(messages)-1]
	return last.SessionID == sessionID && last.Sender == chat.SenderUser && last.Content == content
}

func (h *Handler) streamAIResponse(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, p *persona.Persona, history []chat.Message, userMessage string) (string, error) {
	stream, err := h.generator.StreamReply(ctx, p, history, userMessage)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			utils.SendSSEChunk(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: sessionID,
				Content:   chunk.Content,
			})
		}
	}

	if len(chunks) == 0 {
		return "", nil
	}
	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(response.Content) == "" {
		return "", nil
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   response.Content,
	})

	return response.Content, nil
}
