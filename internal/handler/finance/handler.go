package finance

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/repository/transactions"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/insight"
	"github.com/zhouzirui/money-wrapped/backend/pkg/utils"
)

// SummaryService 提供年度财务摘要与原始交易
type SummaryService interface {
	Snapshot(ctx context.Context, userID string) (*finance.Snapshot, error)
	Transactions(ctx context.Context, userID string) ([]finance.Transaction, error)
}

// SettingsReader 读取用户当前的隐私级别
type SettingsReader interface {
	Get(ctx context.Context, userID string) finance.Settings
}

// Handler 财务摘要的HTTP处理器
type Handler struct {
	summary       SummaryService
	settings      SettingsReader
	defaultUserID string
}

// New 创建财务处理器
func New(summary SummaryService, settings SettingsReader, defaultUserID string) *Handler {
	return &Handler{
		summary:       summary,
		settings:      settings,
		defaultUserID: defaultUserID,
	}
}

// RegisterRoutes 注册财务相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/financial-summary", h.handleSummary)
	r.Get("/transactions", h.handleTransactions)
	r.Get("/insights", h.handleInsights)
}

// handleSummary 返回完整的财务快照
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := utils.QueryUserID(r, h.defaultUserID)
	snapshot, err := h.summary.Snapshot(r.Context(), userID)
	if err != nil {
		h.respondLoadError(w, userID, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot)
}

// handleTransactions 返回用户的交易列表
func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	userID := utils.QueryUserID(r, h.defaultUserID)
	txns, err := h.summary.Transactions(r.Context(), userID)
	if err != nil {
		h.respondLoadError(w, userID, err)
		return
	}
	if txns == nil {
		txns = []finance.Transaction{}
	}
	utils.RespondJSON(w, http.StatusOK, txns)
}

// handleInsights 按隐私级别裁剪快照，未指定级别时使用用户保存的设置
func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	userID := utils.QueryUserID(r, h.defaultUserID)

	var level finance.PrivacyLevel
	if raw := r.URL.Query().Get("level"); raw != "" {
		parsed, err := finance.ParsePrivacyLevel(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		level = parsed
	} else if h.settings != nil {
		level = h.settings.Get(r.Context(), userID).PrivacyLevel
	} else {
		level = finance.PrivacyBalanced
	}

	snapshot, err := h.summary.Snapshot(r.Context(), userID)
	if err != nil {
		h.respondLoadError(w, userID, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, insight.Project(snapshot, level))
}

func (h *Handler) respondLoadError(w http.ResponseWriter, userID string, err error) {
	if errors.Is(err, transactions.ErrUnknownUser) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Printf("[finance] load failed user=%s: %v", userID, err)
	utils.RespondError(w, http.StatusInternalServerError, "failed to load financial data")
}
