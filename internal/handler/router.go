package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/testeam/internal/metrics"
	"github.com/hitoshi/testeam/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	ClaimsResolver    middleware.ClaimsResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	MetricsCollector  metrics.MetricsCollector
	MetricsGatherer   prometheus.Gatherer

	// サービス
	AuthService    AuthServiceInterface
	ResetService   ResetServiceInterface
	UserService    UserServiceInterface
	CompanyService CompanyServiceInterface
	TagService     TagServiceInterface
	QuizService    QuizServiceInterface
	AttemptService AttemptServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Metrics → Auth → RateLimit(General)
//
// 認証ルート（/auth/*）はAuthミドルウェアの外に置き、IP単位のレート制限をかける。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.MetricsCollector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsCollector))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.ResetService)
	userHandler := NewUserHandler(deps.UserService)
	companyHandler := NewCompanyHandler(deps.CompanyService)
	tagHandler := NewTagHandler(deps.TagService)
	quizHandler := NewQuizHandler(deps.QuizService)
	attemptHandler := NewAttemptHandler(deps.AttemptService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())

		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/verify-reset-code", authHandler.VerifyResetCode)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.ClaimsResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// プロフィール管理
		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", userHandler.Me)
			r.Patch("/", userHandler.UpdateMe)
			r.Post("/change-password", userHandler.ChangePassword)
			r.Delete("/", userHandler.Withdraw)
		})

		// 企業・メンバー管理
		r.Route("/companies", func(r chi.Router) {
			r.Post("/", companyHandler.Create)
			r.Get("/", companyHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", companyHandler.Get)
				r.Patch("/", companyHandler.Update)
				r.Delete("/", companyHandler.Delete)

				r.Get("/members", companyHandler.ListMembers)
				r.Post("/members", companyHandler.AddMember)
				r.Patch("/members/{userID}", companyHandler.UpdateMember)
				r.Delete("/members/{userID}", companyHandler.RemoveMember)

				r.Get("/tags", tagHandler.ListByCompany)

				r.Get("/quizzes", quizHandler.ListByCompany)
				r.Get("/quizzes/for-me", quizHandler.ListForMe)
			})
		})

		// タグ管理
		r.Route("/tags", func(r chi.Router) {
			r.Post("/", tagHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", tagHandler.Get)
				r.Patch("/", tagHandler.Update)
				r.Delete("/", tagHandler.Delete)
			})
		})

		// クイズ管理・受験
		r.Route("/quizzes", func(r chi.Router) {
			r.Post("/", quizHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", quizHandler.Get)
				r.Patch("/", quizHandler.Update)
				r.Delete("/", quizHandler.Delete)

				r.Post("/attempts", attemptHandler.Start)
			})
		})

		// 回答提出
		r.Post("/attempts/{id}/answers/{questionID}", attemptHandler.SubmitAnswer)
	})

	return r
}
