package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/testeam/internal/auth"
	"github.com/hitoshi/testeam/internal/middleware"
	"github.com/hitoshi/testeam/internal/model"
)

// --- モック定義 ---

type stubTokenVerifier struct {
	claims *auth.TokenClaims
	err    error
}

func (s *stubTokenVerifier) Verify(ctx context.Context, tokenString string) (*auth.TokenClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

type stubClaimsResolver struct{}

func (s *stubClaimsResolver) Resolve(ctx context.Context, claims *auth.TokenClaims) (*auth.ResolvedClaims, error) {
	return &auth.ResolvedClaims{UserID: claims.UserID, Email: claims.Email}, nil
}

// --- テストヘルパー ---

// newTestRouter は全サービスをモックで差し替えたルーターを生成する。
func newTestRouter(t *testing.T, deps *RouterDeps) http.Handler {
	t.Helper()

	if deps.TokenVerifier == nil {
		deps.TokenVerifier = &stubTokenVerifier{
			claims: &auth.TokenClaims{UserID: "user-1", Email: "alice@example.com"},
		}
	}
	if deps.ClaimsResolver == nil {
		deps.ClaimsResolver = &stubClaimsResolver{}
	}
	deps.CORSAllowedOrigin = "https://app.example.com"
	if deps.RateLimiter == nil {
		deps.RateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			GeneralRate:     rate.Inf,
			GeneralBurst:    1,
			AuthRate:        rate.Inf,
			AuthBurst:       1,
			CleanupInterval: time.Hour,
		})
	}
	t.Cleanup(deps.RateLimiter.Stop)
	deps.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

	if deps.AuthService == nil {
		deps.AuthService = &mockAuthService{}
	}
	if deps.ResetService == nil {
		deps.ResetService = &mockResetService{}
	}
	if deps.UserService == nil {
		deps.UserService = &mockUserService{}
	}
	if deps.CompanyService == nil {
		deps.CompanyService = &mockCompanyService{}
	}
	if deps.TagService == nil {
		deps.TagService = &mockTagService{}
	}
	if deps.QuizService == nil {
		deps.QuizService = &mockQuizService{}
	}
	if deps.AttemptService == nil {
		deps.AttemptService = &mockAttemptService{}
	}

	return NewRouter(deps)
}

// --- テスト ---

func TestRouter_Health_NoAuthRequired(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("status = %q, want %q", got["status"], "ok")
	}
}

func TestRouter_Login_ReachesAuthHandler(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		AuthService: &mockAuthService{
			loginFn: func(ctx context.Context, email, password string) (string, error) {
				return "signed-jwt", nil
			},
		},
	})

	body := `{"email": "alice@example.com", "password": "passw0rd123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /auth/login status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if got.AccessToken != "signed-jwt" {
		t.Errorf("access_token = %q, want %q", got.AccessToken, "signed-jwt")
	}
}

func TestRouter_ProtectedRoute_WithoutToken_ReturnsUnauthorized(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		TokenVerifier: &stubTokenVerifier{err: auth.ErrTokenMissing},
	})

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /users/me status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestRouter_ProtectedRoute_WithToken_ReachesHandler(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		UserService: &mockUserService{
			getProfileFn: func(ctx context.Context, userID string) (*auth.Profile, error) {
				return &auth.Profile{
					User: &model.User{ID: userID, Email: "alice@example.com", Name: "Alice"},
				}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /users/me status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("id = %q, want %q", got.ID, "user-1")
	}
}

func TestRouter_AttemptRoutes_PassURLParams(t *testing.T) {
	var gotQuizID string
	router := newTestRouter(t, &RouterDeps{
		AttemptService: &mockAttemptService{
			startFn: func(ctx context.Context, userID, quizID string) (*model.Attempt, error) {
				gotQuizID = quizID
				return &model.Attempt{ID: "attempt-1", QuizID: quizID, UserID: userID}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/quizzes/quiz-1/attempts", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /quizzes/quiz-1/attempts status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if gotQuizID != "quiz-1" {
		t.Errorf("quizID = %q, want %q", gotQuizID, "quiz-1")
	}
}

func TestRouter_SetsCORSAndSecurityHeaders(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://app.example.com")
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
}

func TestRouter_UnknownRoute_ReturnsNotFound(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /unknown status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
