package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FederatedVerifier はAuth0発行トークンの検証インターフェース。
type FederatedVerifier interface {
	// Verify はAuth0発行トークンを検証し、クレームを返す。
	Verify(ctx context.Context, tokenString string) (*TokenClaims, error)
}

// TokenManager はローカルHS256トークンの発行と、Auth0へのフォールバック付き検証を行う。
type TokenManager struct {
	secret    []byte
	ttl       time.Duration
	federated FederatedVerifier
	metrics   Metrics
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(secret string, ttl time.Duration, federated FederatedVerifier) *TokenManager {
	return &TokenManager{
		secret:    []byte(secret),
		ttl:       ttl,
		federated: federated,
	}
}

// WithMetrics はフォールバック検証の結果をメトリクスとして記録するよう設定する。
func (m *TokenManager) WithMetrics(metrics Metrics) *TokenManager {
	m.metrics = metrics
	return m
}

// Issue はユーザーに対するローカルアクセストークンを発行する。
func (m *TokenManager) Issue(email, userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": email,
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証しクレームを返す。
// まずローカルHS256トークンとして検証し、有効期限切れはErrTokenExpiredを返す。
// 署名不一致などローカルトークンとして成立しない場合はAuth0トークンとして検証する。
func (m *TokenManager) Verify(ctx context.Context, tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err == nil && token.Valid {
		return localClaims(token)
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}

	// ローカルトークンとして成立しない場合はAuth0発行トークンの可能性がある
	claims, ferr := m.federated.Verify(ctx, tokenString)
	if m.metrics != nil {
		m.metrics.RecordFederatedVerification(ferr == nil)
	}
	return claims, ferr
}

// localClaims はローカルトークンからクレームを抽出する。
func localClaims(token *jwt.Token) (*TokenClaims, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	email, _ := claims["sub"].(string)
	userID, _ := claims["id"].(string)
	if email == "" || userID == "" {
		return nil, ErrTokenInvalid
	}
	return &TokenClaims{Email: email, UserID: userID, Federated: false}, nil
}
