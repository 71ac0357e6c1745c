package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse 所有非 2xx 响应的 JSON 结构，客户端按同一结构解析
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] encode response status=%d: %v", status, err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

// RespondAIUnavailable 未配置模型时依赖 AI 的接口统一返回 503
func RespondAIUnavailable(w http.ResponseWriter, feature string) {
	RespondError(w, http.StatusServiceUnavailable, "ai "+feature+" unavailable")
}
