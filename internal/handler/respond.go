// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/testeam/internal/middleware"
	"github.com/hitoshi/testeam/internal/model"
)

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to encode response", slog.String("error", err.Error()))
		}
	}
}

// decodeJSONBody はリクエストボディをJSONとしてデコードする。
// 失敗した場合は400レスポンスを書き込み、falseを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("request body is not valid JSON", ""))
		return false
	}
	return true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPレスポンスに変換する。
// APIErrorはそのステータスコードで返し、それ以外はログに記録して500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, apiErr)
		return
	}

	slog.Error("unexpected service error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// claimsOrUnauthorized はコンテキストから確定済みクレームを取得する。
// 取得できない場合は401レスポンスを書き込み、nilを返す。
func claimsOrUnauthorized(w http.ResponseWriter, r *http.Request) *authClaims {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError("authorization token is missing"))
		return nil
	}
	return &authClaims{UserID: claims.UserID, Email: claims.Email}
}

// authClaims はハンドラー内で使用する認証済みユーザーの識別情報。
type authClaims struct {
	UserID string
	Email  string
}
