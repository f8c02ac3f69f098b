package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// --- モック ---

type stubFederatedVerifier struct {
	verifyFn func(ctx context.Context, tokenString string) (*TokenClaims, error)
}

func (s *stubFederatedVerifier) Verify(ctx context.Context, tokenString string) (*TokenClaims, error) {
	if s.verifyFn != nil {
		return s.verifyFn(ctx, tokenString)
	}
	return nil, ErrTokenInvalid
}

// --- テスト ---

// TestTokenManager_IssueAndVerify は発行したトークンの検証往復を検証する。
func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, &stubFederatedVerifier{})

	token, err := m.Issue("alice@example.com", "user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := m.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "alice@example.com")
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-1")
	}
	if claims.Federated {
		t.Error("local token must not be marked federated")
	}
}

// TestTokenManager_Verify_Missing は空トークンでErrTokenMissingになることを検証する。
func TestTokenManager_Verify_Missing(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, &stubFederatedVerifier{})

	_, err := m.Verify(context.Background(), "")
	if !errors.Is(err, ErrTokenMissing) {
		t.Errorf("err = %v, want ErrTokenMissing", err)
	}
}

// TestTokenManager_Verify_Expired は期限切れローカルトークンが
// Auth0へフォールバックせずErrTokenExpiredになることを検証する。
func TestTokenManager_Verify_Expired(t *testing.T) {
	federatedCalled := false
	federated := &stubFederatedVerifier{
		verifyFn: func(ctx context.Context, tokenString string) (*TokenClaims, error) {
			federatedCalled = true
			return nil, ErrTokenInvalid
		},
	}
	m := NewTokenManager("test-secret", -time.Minute, federated)

	token, err := m.Issue("alice@example.com", "user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	_, err = m.Verify(context.Background(), token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
	if federatedCalled {
		t.Error("expired local token must not be delegated to the federated verifier")
	}
}

// TestTokenManager_Verify_WrongSecret は署名不一致のトークンが
// Auth0検証へ委譲されることを検証する。
func TestTokenManager_Verify_WrongSecret(t *testing.T) {
	other := NewTokenManager("other-secret", time.Hour, &stubFederatedVerifier{})
	token, err := other.Issue("alice@example.com", "user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	federatedCalled := false
	federated := &stubFederatedVerifier{
		verifyFn: func(ctx context.Context, tokenString string) (*TokenClaims, error) {
			federatedCalled = true
			return &TokenClaims{Email: "alice@example.com", Federated: true}, nil
		},
	}
	m := NewTokenManager("test-secret", time.Hour, federated)

	claims, err := m.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !federatedCalled {
		t.Fatal("expected delegation to the federated verifier")
	}
	if !claims.Federated {
		t.Error("expected federated claims")
	}
}

// TestTokenManager_Verify_MissingIDClaim はidクレームを欠くローカルトークンが
// 無効扱いになることを検証する。
func TestTokenManager_Verify_MissingIDClaim(t *testing.T) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice@example.com",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString returned error: %v", err)
	}

	m := NewTokenManager("test-secret", time.Hour, &stubFederatedVerifier{})

	_, err = m.Verify(context.Background(), signed)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

// TestTokenManager_Verify_RecordsFederatedOutcome はAuth0検証の成否が
// メトリクスに記録されることを検証する。
func TestTokenManager_Verify_RecordsFederatedOutcome(t *testing.T) {
	success := &stubFederatedVerifier{
		verifyFn: func(ctx context.Context, tokenString string) (*TokenClaims, error) {
			return &TokenClaims{Email: "alice@example.com", Federated: true}, nil
		},
	}
	m := &stubMetrics{}

	manager := NewTokenManager("test-secret", time.Hour, success).WithMetrics(m)
	if _, err := manager.Verify(context.Background(), "not-a-local-token"); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	manager = NewTokenManager("test-secret", time.Hour, &stubFederatedVerifier{}).WithMetrics(m)
	if _, err := manager.Verify(context.Background(), "not-a-local-token"); err == nil {
		t.Fatal("expected error from the federated verifier")
	}

	want := []bool{true, false}
	if len(m.federated) != len(want) {
		t.Fatalf("federated outcomes = %v, want %v", m.federated, want)
	}
	for i, v := range want {
		if m.federated[i] != v {
			t.Errorf("federated[%d] = %v, want %v", i, m.federated[i], v)
		}
	}
}
