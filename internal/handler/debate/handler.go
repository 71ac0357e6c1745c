package debate

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	debateModel "github.com/zhouzirui/money-wrapped/backend/internal/model/debate"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	debateService "github.com/zhouzirui/money-wrapped/backend/internal/service/debate"
	"github.com/zhouzirui/money-wrapped/backend/pkg/utils"
)

// Handler Battle Arena 的HTTP处理器
type Handler struct {
	personas     persona.Store
	responder    debateService.Responder
	orchestrator *debateService.Orchestrator
	upgrader     websocket.Upgrader
}

// New 创建辩论处理器。responder 为空时单人发言接口返回 503，整场辩论仍使用兜底发言。
func New(personas persona.Store, responder debateService.Responder, orchestrator *debateService.Orchestrator) *Handler {
	return &Handler{
		personas:     personas,
		responder:    responder,
		orchestrator: orchestrator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册辩论相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/persona-response", h.handlePersonaResponse)
	r.Post("/battle-arena", h.handleBattle)
	r.Get("/battle-arena/ws", h.handleBattleStream)
}

type personaRequest struct {
	Question    string   `json:"question"`
	Personas    []string `json:"personas"`
	Context     string   `json:"context"`
	MessageType string   `json:"messageType"`
}

type personaResponse struct {
	Persona   string `json:"persona"`
	Character string `json:"character"`
	Response  string `json:"response"`
}

type battleRequest struct {
	Question string   `json:"question"`
	Personas []string `json:"personas"`
}

// handlePersonaResponse 为单个 persona 生成一次发言
func (h *Handler) handlePersonaResponse(w http.ResponseWriter, r *http.Request) {
	var payload personaRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	question := strings.TrimSpace(payload.Question)
	if question == "" {
		utils.RespondError(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(payload.Personas) != 1 {
		utils.RespondError(w, http.StatusBadRequest, "exactly one persona is required")
		return
	}
	speakers, err := h.resolvePersonas(payload.Personas)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.responder == nil {
		utils.RespondAIUnavailable(w, "service")
		return
	}

	round := debateModel.RoundInitial
	if strings.EqualFold(strings.TrimSpace(payload.MessageType), string(debateModel.RoundRebuttal)) {
		round = debateModel.RoundRebuttal
	}
	promptContext := strings.TrimSpace(payload.Context)
	if promptContext == "" {
		promptContext = question
	}

	speaker := speakers[0]
	text, err := h.responder.Respond(r.Context(), debateService.TurnRequest{
		Question: question,
		Persona:  speaker,
		Round:    round,
		Context:  promptContext,
	})
	if err != nil {
		log.Printf("[debate] persona response failed persona=%s: %v", speaker.Type, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to generate response")
		return
	}

	utils.RespondJSON(w, http.StatusOK, personaResponse{
		Persona:   speaker.Type.Titled(),
		Character: speaker.Character,
		Response:  strings.TrimSpace(text),
	})
}

// handleBattle 一次性跑完整场辩论并返回完整记录
func (h *Handler) handleBattle(w http.ResponseWriter, r *http.Request) {
	var payload battleRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.startSession(payload)
	if err != nil {
		status := http.StatusInternalServerError
		if isValidation(err) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	final, err := h.orchestrator.Run(r.Context(), session, nil)
	if err != nil {
		log.Printf("[debate] battle aborted session=%s: %v", session.ID, err)
		utils.RespondError(w, http.StatusInternalServerError, "debate aborted")
		return
	}

	log.Printf("[debate] battle complete session=%s turns=%d", final.ID, len(final.Transcript))
	utils.RespondJSON(w, http.StatusOK, final)
}

// startSession 解析参与者并开启第一轮，超过上限的 persona 会被截断
func (h *Handler) startSession(payload battleRequest) (*debateModel.Session, error) {
	names := payload.Personas
	if len(names) > debateService.MaxParticipants {
		names = names[:debateService.MaxParticipants]
	}
	participants, err := h.resolvePersonas(names)
	if err != nil {
		return nil, err
	}
	return h.orchestrator.StartDebate(payload.Question, participants)
}

func (h *Handler) resolvePersonas(names []string) ([]persona.Persona, error) {
	out := make([]persona.Persona, 0, len(names))
	for _, name := range names {
		t, ok := persona.ParseType(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown persona %q", debateService.ErrValidation, name)
		}
		p, found := h.personas.FindByType(t)
		if !found {
			return nil, fmt.Errorf("%w: unknown persona %q", debateService.ErrValidation, name)
		}
		out = append(out, p)
	}
	return out, nil
}

func isValidation(err error) bool {
	return errors.Is(err, debateService.ErrValidation)
}
