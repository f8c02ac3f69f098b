// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/testeam/internal/attempt"
	"github.com/hitoshi/testeam/internal/auth"
	"github.com/hitoshi/testeam/internal/company"
	"github.com/hitoshi/testeam/internal/config"
	"github.com/hitoshi/testeam/internal/database"
	"github.com/hitoshi/testeam/internal/handler"
	"github.com/hitoshi/testeam/internal/logger"
	"github.com/hitoshi/testeam/internal/mail"
	"github.com/hitoshi/testeam/internal/metrics"
	"github.com/hitoshi/testeam/internal/middleware"
	"github.com/hitoshi/testeam/internal/quiz"
	"github.com/hitoshi/testeam/internal/repository"
	"github.com/hitoshi/testeam/internal/security"
	"github.com/hitoshi/testeam/internal/tag"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DBとRedisへの接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. Redis接続（パスワードリセットコードのTTLストア）
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis connection established")

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	companyRepo := repository.NewPostgresCompanyRepo(db)
	tagRepo := repository.NewPostgresTagRepo(db)
	quizRepo := repository.NewPostgresQuizRepo(db)
	attemptRepo := repository.NewPostgresAttemptRepo(db)
	resetCodes := repository.NewRedisResetCodeStore(redisClient)

	// 4. 認証基盤の初期化
	jwksCtx, cancelJWKS := context.WithTimeout(context.Background(), cfg.JWKSFetchTimeout)
	defer cancelJWKS()
	keyProvider, err := auth.NewJWKSKeyProvider(jwksCtx, cfg.JWKSURL())
	if err != nil {
		return fmt.Errorf("failed to initialize JWKS key provider: %w", err)
	}
	auth0Verifier := auth.NewAuth0Verifier(keyProvider, cfg.Auth0APIAudience, cfg.Auth0Issuer)
	reconciler := auth.NewReconciler(userRepo)

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, auth0Verifier).WithMetrics(collector)

	// 6. ドメインサービスの初期化
	sanitizer := security.NewTextSanitizer()
	mailer := mail.NewMailer(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	authService := auth.NewService(userRepo, tagRepo, tokenManager).WithMetrics(collector)
	resetService := auth.NewResetService(userRepo, resetCodes, mailer, cfg.BaseURL, cfg.ResetCodeTTL)
	companyService := company.NewService(companyRepo, userRepo, tagRepo, sanitizer)
	tagService := tag.NewService(tagRepo, companyRepo, sanitizer)
	quizService := quiz.NewService(quizRepo, companyRepo, tagRepo, sanitizer)
	attemptService := attempt.NewService(attemptRepo, quizRepo, companyRepo, tagRepo).WithMetrics(collector)

	// 7. レート制限の初期化
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 8. ルーターの構築
	deps := &handler.RouterDeps{
		TokenVerifier:     tokenManager,
		ClaimsResolver:    reconciler,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		MetricsCollector:  collector,
		MetricsGatherer:   registry,

		AuthService:    authService,
		ResetService:   resetService,
		UserService:    authService,
		CompanyService: companyService,
		TagService:     tagService,
		QuizService:    quizService,
		AttemptService: attemptService,
	}

	router := handler.NewRouter(deps)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
