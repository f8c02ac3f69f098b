package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/testeam/internal/model"
	"github.com/hitoshi/testeam/internal/repository"
)

// ResetMailer はパスワードリセットメールの送信インターフェース。
type ResetMailer interface {
	// SendPasswordReset はリセットリンクをメールで送信する。
	SendPasswordReset(to, name, link string) error
}

// ResetService はパスワードリセットフローを提供する。
type ResetService struct {
	userRepo repository.UserRepository
	codes    repository.ResetCodeStore
	mailer   ResetMailer
	baseURL  string
	codeTTL  time.Duration
}

// NewResetService はResetServiceを生成する。
func NewResetService(
	userRepo repository.UserRepository,
	codes repository.ResetCodeStore,
	mailer ResetMailer,
	baseURL string,
	codeTTL time.Duration,
) *ResetService {
	return &ResetService{
		userRepo: userRepo,
		codes:    codes,
		mailer:   mailer,
		baseURL:  baseURL,
		codeTTL:  codeTTL,
	}
}

// RequestReset はリセットコードを発行し、リンクをメールで送信する。
// メール送信は別ゴルーチンで行い、失敗してもリクエストは成功扱いとする。
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewNotFoundError("user")
	}

	code, err := GenerateResetCode()
	if err != nil {
		return err
	}
	if err := s.codes.Set(ctx, code, user.Email, s.codeTTL); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?code=%s", s.baseURL, code)
	go func() {
		if err := s.mailer.SendPasswordReset(user.Email, user.Name, link); err != nil {
			slog.Error("failed to send password reset email",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}()

	slog.Info("password reset requested", slog.String("user_id", user.ID))
	return nil
}

// VerifyCode はリセットコードが有効かどうかを確認する。コードは消費しない。
func (s *ResetService) VerifyCode(ctx context.Context, code string) error {
	if code == "" {
		return model.NewValidationError("code is required", "code")
	}
	email, err := s.codes.Get(ctx, code)
	if err != nil {
		return err
	}
	if email == "" {
		return model.NewValidationError("code is invalid or expired", "code")
	}
	return nil
}

// CompleteReset はリセットコードを検証し、パスワードを更新してコードを消費する。
func (s *ResetService) CompleteReset(ctx context.Context, code, newPassword string) error {
	if code == "" {
		return model.NewValidationError("code is required", "code")
	}
	email, err := s.codes.Get(ctx, code)
	if err != nil {
		return err
	}
	if email == "" {
		return model.NewValidationError("code is invalid or expired", "code")
	}

	if !ValidatePasswordPolicy(newPassword) {
		return model.NewValidationError(
			"password must be at least 8 characters and contain a letter and a digit", "password")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewNotFoundError("user")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// コードは一度しか使えない
	if err := s.codes.Delete(ctx, code); err != nil {
		slog.Warn("failed to delete consumed reset code", slog.String("error", err.Error()))
	}

	slog.Info("password reset completed", slog.String("user_id", user.ID))
	return nil
}
