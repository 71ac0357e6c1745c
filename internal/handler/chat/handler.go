package chat

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	chatService "github.com/zhouzirui/money-wrapped/backend/internal/service/chat"
	"github.com/zhouzirui/money-wrapped/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc      *chatService.Service
	personaStore persona.Store
	replier      chatService.Replier
}

// New 创建聊天处理器。replier 为空时 /chat 使用关键词兜底回复。
func New(chatSvc *chatService.Service, personaStore persona.Store, replier chatService.Replier) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		personaStore: personaStore,
		replier:      replier,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/chat/session", h.handleCreateSession)
	r.Post("/chat/messages", h.handleSendMessage)
	r.Get("/chat/sessions/{sessionID}/messages", h.handleTranscript)
}

// handleChat 无状态的一问一答接口
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message   string `json:"message"`
		Character string `json:"character"`
		Persona   string `json:"persona"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	p := h.resolvePersona(payload.Persona, payload.Character)

	var reply string
	var err error
	if h.replier != nil {
		reply, err = h.replier.Reply(r.Context(), &p, nil, message)
	}
	reply = strings.TrimSpace(reply)
	if h.replier == nil || err != nil || reply == "" {
		if err != nil {
			log.Printf("[chat] reply failed persona=%s, using keyword fallback: %v", p.Type, err)
		}
		reply = p.KeywordFallback(message)
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"response":  reply,
		"character": p.Character,
	})
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Persona string `json:"persona"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Persona) == "" {
		utils.RespondError(w, http.StatusBadRequest, "persona is required")
		return
	}
	if _, ok := persona.ParseType(payload.Persona); !ok {
		utils.RespondError(w, http.StatusBadRequest, "persona not found")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.Persona)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleSendMessage 保存用户消息并返回角色回复
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Text      string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.chatSvc.Reply(r.Context(), payload.SessionID, payload.Text, h.replier)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

// handleTranscript 返回会话的全部消息
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// resolvePersona 优先按类型查找，其次按角色名，都没有时使用默认 persona
func (h *Handler) resolvePersona(rawType, character string) persona.Persona {
	if _, ok := persona.ParseType(rawType); ok {
		return h.personaStore.Lookup(rawType)
	}
	character = strings.TrimSpace(character)
	if character != "" {
		for _, p := range h.personaStore.List() {
			if strings.EqualFold(p.Character, character) {
				return p
			}
		}
	}
	return h.personaStore.Lookup(string(persona.DefaultType))
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrEmptyMessage), errors.Is(err, chatService.ErrPersonaRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
