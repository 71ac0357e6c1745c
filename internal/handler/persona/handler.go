package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/pkg/utils"
)

// Handler persona服务的HTTP处理器
type Handler struct {
	personas persona.Store
}

// New 创建persona处理器
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/personas/{personaID}", h.handleGetPersona)
}

// handleListPersonas 列出所有persona
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

// handleGetPersona 按数字 id 或类型名查找 persona
func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "personaID")

	t, ok := persona.ParseType(raw)
	if !ok {
		t, ok = typeFromID(raw)
	}
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}

	p, found := h.personas.FindByType(t)
	if !found {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func typeFromID(raw string) (persona.Type, bool) {
	if len(raw) != 1 || raw[0] < '1' || raw[0] > '9' {
		return "", false
	}
	return persona.TypeByID(int(raw[0] - '0'))
}
