package settings

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	settingsService "github.com/zhouzirui/money-wrapped/backend/internal/service/settings"
	"github.com/zhouzirui/money-wrapped/backend/pkg/utils"
)

// Handler 隐私设置与分享链接的HTTP处理器
type Handler struct {
	svc           *settingsService.Service
	defaultUserID string
}

// New 创建设置处理器
func New(svc *settingsService.Service, defaultUserID string) *Handler {
	return &Handler{svc: svc, defaultUserID: defaultUserID}
}

// RegisterRoutes 注册设置相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/privacy-settings", h.handleGetSettings)
	r.Post("/privacy-settings", h.handleSetPrivacyLevel)
	r.Post("/categories", h.handleSetCategories)
	r.Post("/share", h.handleShare)
	r.Get("/share/{shareID}", h.handleLookupShare)
}

// handleGetSettings 返回用户当前的设置
func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID := utils.QueryUserID(r, h.defaultUserID)
	utils.RespondJSON(w, http.StatusOK, h.svc.Get(r.Context(), userID))
}

// handleSetPrivacyLevel 更新隐私级别
func (h *Handler) handleSetPrivacyLevel(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Level string `json:"level"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := utils.QueryUserID(r, h.defaultUserID)
	updated, err := h.svc.SetPrivacyLevel(r.Context(), userID, payload.Level)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, finance.ErrInvalidPrivacyLevel) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

// handleSetCategories 更新展示的消费类别
func (h *Handler) handleSetCategories(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Selected []string `json:"selected"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := utils.QueryUserID(r, h.defaultUserID)
	utils.RespondJSON(w, http.StatusOK, h.svc.SetCategories(r.Context(), userID, payload.Selected))
}

// handleShare 生成分享链接，请求体可以为空
func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Kind string `json:"kind"`
	}
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(w, r, &payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	userID := utils.QueryUserID(r, h.defaultUserID)
	utils.RespondJSON(w, http.StatusOK, h.svc.Share(r.Context(), userID, payload.Kind))
}

// handleLookupShare 查询已生成的分享链接
func (h *Handler) handleLookupShare(w http.ResponseWriter, r *http.Request) {
	share, ok := h.svc.LookupShare(r.Context(), chi.URLParam(r, "shareID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "share not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, share)
}
