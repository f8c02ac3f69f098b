package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/testeam/internal/model"
	"github.com/hitoshi/testeam/internal/repository"
)

// Reconciler は検証済みクレームをusersテーブルのレコードへ突き合わせる。
// Auth0発行トークンで未登録のメールアドレスが来た場合はユーザーを自動作成する。
type Reconciler struct {
	userRepo repository.UserRepository
}

// NewReconciler はReconcilerを生成する。
func NewReconciler(userRepo repository.UserRepository) *Reconciler {
	return &Reconciler{userRepo: userRepo}
}

// Resolve はトークンクレームから確定済みクレームを解決する。
func (r *Reconciler) Resolve(ctx context.Context, claims *TokenClaims) (*ResolvedClaims, error) {
	user, err := r.userRepo.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if user != nil {
		return &ResolvedClaims{UserID: user.ID, Email: user.Email}, nil
	}

	if !claims.Federated {
		// ローカルトークンは発行時点でユーザーが存在するため、通常到達しない
		return nil, ErrTokenInvalid
	}

	user, err = r.provision(ctx, claims.Email)
	if err != nil {
		return nil, err
	}
	return &ResolvedClaims{UserID: user.ID, Email: user.Email}, nil
}

// provision はAuth0経由の初回アクセス時にユーザーを自動作成する。
// 同時リクエストによる一意制約違反は既存ユーザーの再取得で回復する。
func (r *Reconciler) provision(ctx context.Context, email string) (*model.User, error) {
	placeholder, err := GeneratePlaceholderPassword()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:              uuid.New().String(),
		Email:           email,
		PasswordHash:    placeholder,
		Auth0Registered: true,
		RegisteredAt:    now,
		UpdatedAt:       now,
	}

	if err := r.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			existing, findErr := r.userRepo.FindByEmail(ctx, email)
			if findErr != nil {
				return nil, fmt.Errorf("failed to re-fetch user after conflict: %w", findErr)
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to provision federated user: %w", err)
	}

	slog.Info("federated user provisioned",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)
	return user, nil
}
