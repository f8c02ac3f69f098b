package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// レスポンスボディは {"detail": <string>} または
// {"detail": {"message": <string>, "field": <string|null>}} の形式になる。
// Fieldが空でない場合、クライアントはエラーを入力フォームの項目に紐付けられる。
type APIError struct {
	Status  int    // HTTPステータスコード
	Message string // エラーメッセージ
	Field   string // エラーの原因となった入力フィールド名（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%d] %s (field: %s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("[%d] %s", e.Status, e.Message)
}

// NewNotFoundError はリソース未検出エラー（404）を生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s is not found", resource),
	}
}

// NewPermissionDeniedError は権限不足エラー（403）を生成する。
// リソースの存在確認は呼び出し側で先に行うこと（存在しない場合は404が優先）。
func NewPermissionDeniedError() *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Message: "Forbidden",
	}
}

// NewUnauthorizedError は認証エラー（401）を生成する。
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Message: message,
	}
}

// NewValidationError は入力値・ビジネスルール違反エラー（400）を生成する。
// fieldはエラーの原因となったフィールド名。特定できない場合は空文字を渡す。
func NewValidationError(message, field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Message: message,
		Field:   field,
	}
}

// NewConflictError は一意制約違反などの競合エラー（409）を生成する。
func NewConflictError(message, field string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Message: message,
		Field:   field,
	}
}
