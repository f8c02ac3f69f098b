// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/testeam/internal/auth"
	"github.com/hitoshi/testeam/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストに確定済みクレームを格納するためのキー。
var claimsContextKey = contextKey("claims")

// TokenVerifier はトークンの検証に必要なインターフェース。
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*auth.TokenClaims, error)
}

// ClaimsResolver はクレームとローカルユーザーの突き合わせに必要なインターフェース。
type ClaimsResolver interface {
	Resolve(ctx context.Context, claims *auth.TokenClaims) (*auth.ResolvedClaims, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 確定済みクレームをリクエストコンテキストに注入するミドルウェアを返す。
// トークン検証エラーはすべて401に変換される。
func NewAuthMiddleware(verifier TokenVerifier, resolver ClaimsResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				WriteErrorResponse(w, model.NewUnauthorizedError("authorization token is missing"))
				return
			}

			claims, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				WriteErrorResponse(w, unauthorizedFor(err))
				return
			}

			resolved, err := resolver.Resolve(r.Context(), claims)
			if err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) {
					WriteErrorResponse(w, apiErr)
					return
				}
				if errors.Is(err, auth.ErrTokenInvalid) {
					WriteErrorResponse(w, model.NewUnauthorizedError("token is invalid"))
					return
				}
				slog.Error("failed to resolve claims", slog.String("error", err.Error()))
				WriteInternalServerError(w)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, resolved)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// unauthorizedFor はトークン検証エラーを401のAPIErrorに変換する。
func unauthorizedFor(err error) *model.APIError {
	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		return model.NewUnauthorizedError("authorization token is missing")
	case errors.Is(err, auth.ErrTokenExpired):
		return model.NewUnauthorizedError("token has expired")
	case errors.Is(err, auth.ErrTokenKeyResolution):
		return model.NewUnauthorizedError("failed to resolve signing key")
	default:
		return model.NewUnauthorizedError("token is invalid")
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// ClaimsFromContext はリクエストコンテキストから確定済みクレームを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*auth.ResolvedClaims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.ResolvedClaims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("claims not found in context")
	}
	return claims, nil
}

// ContextWithClaims はコンテキストに確定済みクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *auth.ResolvedClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
