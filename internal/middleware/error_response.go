package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/testeam/internal/model"
)

// errorDetail はフィールド情報付きエラーのdetail部。
type errorDetail struct {
	Message string  `json:"message"`
	Field   *string `json:"field"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// ボディは {"detail": <string>} または {"detail": {"message", "field"}} の形式。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)

	var detail any
	if apiErr.Field != "" {
		field := apiErr.Field
		detail = errorDetail{Message: apiErr.Message, Field: &field}
	} else {
		detail = apiErr.Message
	}
	json.NewEncoder(w).Encode(map[string]any{"detail": detail})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, &model.APIError{
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
	})
}
