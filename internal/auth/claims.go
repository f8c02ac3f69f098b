// Package auth はトークン発行・検証、パスワードライフサイクル、Auth0連携を提供する。
package auth

import "errors"

// トークン検証で発生するエラー。ミドルウェアが401レスポンスへ変換する。
var (
	ErrTokenMissing       = errors.New("authorization token is missing")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenKeyResolution = errors.New("failed to resolve signing key")
)

// TokenClaims は検証済みトークンから抽出したクレーム。
// Federatedがtrueの場合はAuth0発行トークンであり、UserIDは空でありうる。
type TokenClaims struct {
	Email     string
	UserID    string
	Federated bool
}

// ResolvedClaims はユーザー照合後の確定済みクレーム。
// UserIDは必ずusersテーブルに存在するレコードを指す。
type ResolvedClaims struct {
	UserID string
	Email  string
}
