package utils

import (
	"encoding/json"
	"net/http"
	"strings"
)

// maxBodyBytes 限制 JSON 请求体大小
const maxBodyBytes = 1 << 20

// QueryUserID 读取 userId 查询参数，缺省时返回 fallback
func QueryUserID(r *http.Request, fallback string) string {
	if id := strings.TrimSpace(r.URL.Query().Get("userId")); id != "" {
		return id
	}
	return fallback
}

// DecodeJSON 解析请求体，拒绝超长或格式错误的内容
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
