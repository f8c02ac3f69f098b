package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// KeyProvider はJWT署名鍵の解決インターフェース。
// 本番ではJWKSエンドポイントを参照し、テストでは固定鍵を返す実装に差し替える。
type KeyProvider interface {
	Keyfunc(token *jwt.Token) (any, error)
}

// JWKSKeyProvider はAuth0のJWKSエンドポイントから署名鍵を取得するKeyProvider。
type JWKSKeyProvider struct {
	jwks keyfunc.Keyfunc
}

// NewJWKSKeyProvider はJWKSエンドポイントを監視するKeyProviderを生成する。
func NewJWKSKeyProvider(ctx context.Context, jwksURL string) (*JWKSKeyProvider, error) {
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWKS client: %w", err)
	}
	return &JWKSKeyProvider{jwks: jwks}, nil
}

// Keyfunc はトークンヘッダのkidに対応する署名鍵を返す。
func (p *JWKSKeyProvider) Keyfunc(token *jwt.Token) (any, error) {
	return p.jwks.Keyfunc(token)
}

// Auth0Verifier はAuth0発行のRS256トークンを検証する。
type Auth0Verifier struct {
	keys     KeyProvider
	audience string
	issuer   string
}

// NewAuth0Verifier はAuth0Verifierを生成する。
func NewAuth0Verifier(keys KeyProvider, audience, issuer string) *Auth0Verifier {
	return &Auth0Verifier{
		keys:     keys,
		audience: audience,
		issuer:   issuer,
	}
}

// Verify はAuth0発行トークンを検証しクレームを返す。
// 署名鍵が解決できない場合はErrTokenKeyResolution、それ以外の検証失敗はErrTokenInvalidを返す。
func (v *Auth0Verifier) Verify(ctx context.Context, tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, v.keys.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenUnverifiable) {
			slog.Warn("failed to resolve JWKS signing key", slog.String("error", err.Error()))
			return nil, ErrTokenKeyResolution
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	email := extractEmail(claims)
	if email == "" {
		return nil, ErrTokenInvalid
	}

	return &TokenClaims{Email: email, Federated: true}, nil
}

// extractEmail はAuth0トークンのクレームからメールアドレスを取り出す。
// カスタムクレームが設定されていない場合はsubにメールアドレスが入るケースも許容する。
func extractEmail(claims jwt.MapClaims) string {
	if email, ok := claims["email"].(string); ok && email != "" {
		return email
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

// compile-time interface check
var _ FederatedVerifier = (*Auth0Verifier)(nil)
var _ KeyProvider = (*JWKSKeyProvider)(nil)
