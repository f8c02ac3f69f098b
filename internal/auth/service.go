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

// Service は認証とプロフィールに関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tagRepo  repository.TagRepository
	tokens   *TokenManager
	metrics  Metrics
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tagRepo repository.TagRepository, tokens *TokenManager) *Service {
	return &Service{
		userRepo: userRepo,
		tagRepo:  tagRepo,
		tokens:   tokens,
	}
}

// WithMetrics はログイン結果をメトリクスとして記録するよう設定する。
func (s *Service) WithMetrics(metrics Metrics) *Service {
	s.metrics = metrics
	return s
}

// SignupInput はユーザー登録のリクエスト内容。
type SignupInput struct {
	Email       string
	Name        string
	PhoneNumber string
	Password    string
}

// Signup はユーザーを登録する。
func (s *Service) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	if input.Email == "" {
		return nil, model.NewValidationError("email is required", "email")
	}
	if !ValidatePasswordPolicy(input.Password) {
		return nil, model.NewValidationError(
			"password must be at least 8 characters and contain a letter and a digit", "password")
	}

	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, model.NewConflictError("email is already registered", "email")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		Name:         input.Name,
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: hash,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("email is already registered", "email")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user signed up", slog.String("user_id", user.ID))
	return user, nil
}

// Login はメールアドレスとパスワードを検証しアクセストークンを発行する。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordLogin(false)
		return "", model.NewNotFoundError("user")
	}

	// Auth0経由で自動登録されたユーザーのプレースホルダーパスワードは
	// いかなる入力とも一致しないため、ここで自然に弾かれる
	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !ok {
		s.recordLogin(false)
		return "", model.NewValidationError("password is incorrect", "password")
	}

	token, err := s.tokens.Issue(user.Email, user.ID)
	if err != nil {
		return "", err
	}

	s.recordLogin(true)
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return token, nil
}

// recordLogin はログイン結果をメトリクスに記録する。
func (s *Service) recordLogin(success bool) {
	if s.metrics == nil {
		return
	}
	if success {
		s.metrics.RecordLoginSuccess()
	} else {
		s.metrics.RecordLoginFailure()
	}
}

// Profile はユーザーのプロフィールにタグと所属企業を合わせたもの。
type Profile struct {
	User      *model.User
	Tags      []model.Tag
	Companies []model.UserCompany
}

// GetProfile はユーザーのプロフィールを取得する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("user")
	}

	tags, err := s.tagRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user tags: %w", err)
	}

	companies, err := s.userRepo.ListCompanies(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user companies: %w", err)
	}

	return &Profile{User: user, Tags: tags, Companies: companies}, nil
}

// UpdateProfileInput はプロフィール更新のリクエスト内容。nilのフィールドは変更しない。
type UpdateProfileInput struct {
	Name        *string
	PhoneNumber *string
}

// UpdateProfile はユーザーのプロフィールを更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	if input.Name == nil && input.PhoneNumber == nil {
		return nil, model.NewValidationError("at least one field is required", "")
	}
	if input.Name != nil && *input.Name == "" {
		return nil, model.NewValidationError("name must not be empty", "name")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("user")
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = *input.PhoneNumber
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ChangePassword は認証済みユーザーのパスワードを変更する。
// 旧パスワードが一致しない場合は400、新旧が同一の場合は409を返す。
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewNotFoundError("user")
	}

	ok, err := VerifyPassword(user.PasswordHash, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewValidationError("old password is incorrect", "old_password")
	}

	if oldPassword == newPassword {
		return model.NewConflictError("new password must differ from the old one", "new_password")
	}
	if !ValidatePasswordPolicy(newPassword) {
		return model.NewValidationError(
			"password must be at least 8 characters and contain a letter and a digit", "new_password")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", slog.String("user_id", userID))
	return nil
}

// Withdraw はユーザーを退会させる。関連データはCASCADE削除される。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewNotFoundError("user")
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user withdrawn", slog.String("user_id", userID))
	return nil
}
