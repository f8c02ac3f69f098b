// Package company は企業とメンバー管理のビジネスロジックを提供する。
package company

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/testeam/internal/auth"
	"github.com/hitoshi/testeam/internal/model"
	"github.com/hitoshi/testeam/internal/permission"
	"github.com/hitoshi/testeam/internal/repository"
	"github.com/hitoshi/testeam/internal/security"
)

// Service は企業とメンバー管理に関するビジネスロジックを提供する。
type Service struct {
	companyRepo repository.CompanyRepository
	userRepo    repository.UserRepository
	tagRepo     repository.TagRepository
	sanitizer   security.TextSanitizer
}

// NewService はServiceを生成する。
func NewService(
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	tagRepo repository.TagRepository,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		tagRepo:     tagRepo,
		sanitizer:   sanitizer,
	}
}

// Create は企業を作成し、作成者をOwnerとして登録する。
func (s *Service) Create(ctx context.Context, ownerID, title, description string) (*model.Company, error) {
	title = s.sanitizer.Sanitize(title)
	if title == "" {
		return nil, model.NewValidationError("title is required", "title")
	}

	company := &model.Company{
		ID:          uuid.New().String(),
		Title:       title,
		Description: s.sanitizer.Sanitize(description),
		CreatedAt:   time.Now(),
	}
	if err := s.companyRepo.Create(ctx, company, ownerID); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("company title is already taken", "title")
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	slog.Info("company created",
		slog.String("company_id", company.ID),
		slog.String("owner_id", ownerID),
	)
	return company, nil
}

// ListForUser はユーザーが所属する企業の一覧をロール付きで返す。
func (s *Service) ListForUser(ctx context.Context, userID string) ([]model.UserCompany, error) {
	companies, err := s.userRepo.ListCompanies(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// Get は企業を取得する。メンバーのみ閲覧できる。
func (s *Service) Get(ctx context.Context, userID, companyID string) (*model.Company, error) {
	company, members, err := s.loadWithMembers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !permission.IsMember(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}
	return company, nil
}

// Update は企業情報を更新する。Ownerのみ実行できる。
func (s *Service) Update(ctx context.Context, userID, companyID string, title, description *string) (*model.Company, error) {
	company, members, err := s.loadWithMembers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !permission.HasRole(members, userID, model.RoleOwner) {
		return nil, model.NewPermissionDeniedError()
	}

	if title != nil {
		sanitized := s.sanitizer.Sanitize(*title)
		if sanitized == "" {
			return nil, model.NewValidationError("title must not be empty", "title")
		}
		company.Title = sanitized
	}
	if description != nil {
		company.Description = s.sanitizer.Sanitize(*description)
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("company title is already taken", "title")
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return company, nil
}

// Delete は企業を削除する。Ownerのみ実行できる。
func (s *Service) Delete(ctx context.Context, userID, companyID string) error {
	_, members, err := s.loadWithMembers(ctx, companyID)
	if err != nil {
		return err
	}
	if !permission.HasRole(members, userID, model.RoleOwner) {
		return model.NewPermissionDeniedError()
	}

	if err := s.companyRepo.DeleteByID(ctx, companyID); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	slog.Info("company deleted", slog.String("company_id", companyID))
	return nil
}

// ListMembers は企業のメンバー一覧を返す。メンバーのみ閲覧できる。
func (s *Service) ListMembers(ctx context.Context, userID, companyID string) ([]model.CompanyMember, error) {
	_, members, err := s.loadWithMembers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !permission.IsMember(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}
	return members, nil
}

// AddMemberInput はメンバー追加のリクエスト内容。
// 新規ユーザーを作成した上で企業に所属させる。
type AddMemberInput struct {
	Email       string
	Name        string
	PhoneNumber string
	Password    string
	Role        string
	TagIDs      []string
}

// AddMember は新規ユーザーを作成して企業のメンバーとして登録する。
// OwnerまたはAdminのみ実行できる。ユーザー作成・メンバーシップ・タグ紐付けは
// 同一トランザクションで行い、途中で失敗した場合は全体をロールバックする。
func (s *Service) AddMember(ctx context.Context, callerID, companyID string, input AddMemberInput) (*model.CompanyMember, error) {
	_, members, err := s.loadWithMembers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !permission.CanManageMembers(members, callerID) {
		return nil, model.NewPermissionDeniedError()
	}

	role, err := model.ParseRole(input.Role)
	if err != nil || !role.IsAssignable() {
		return nil, model.NewValidationError("role must be one of admin, tester, employee", "role")
	}

	if input.Email == "" {
		return nil, model.NewValidationError("email is required", "email")
	}
	if !auth.ValidatePasswordPolicy(input.Password) {
		return nil, model.NewValidationError(
			"password must be at least 8 characters and contain a letter and a digit", "password")
	}

	if len(input.TagIDs) > 0 {
		count, err := s.tagRepo.CountInCompany(ctx, companyID, input.TagIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to validate tags: %w", err)
		}
		if count != len(input.TagIDs) {
			return nil, model.NewValidationError("tags must belong to the company", "tags")
		}
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		Name:         s.sanitizer.Sanitize(input.Name),
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: hash,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	member := &model.CompanyMember{
		CompanyID: companyID,
		UserID:    user.ID,
		Role:      role,
		Name:      user.Name,
		Email:     user.Email,
	}

	if err := s.companyRepo.CreateMemberWithUser(ctx, user, member, input.TagIDs); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("email is already registered", "email")
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	slog.Info("member added",
		slog.String("company_id", companyID),
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
	)
	return member, nil
}

// UpdateMemberInput はメンバー更新のリクエスト内容。nilのフィールドは変更しない。
type UpdateMemberInput struct {
	Role   *string
	TagIDs []string
}

// UpdateMember はメンバーのロールとタグを更新する。OwnerまたはAdminのみ実行できる。
// Owner行の変更と自分自身の変更はできない。
func (s *Service) UpdateMember(ctx context.Context, callerID, companyID, targetID string, input UpdateMemberInput) error {
	_, members, err := s.loadWithMembers(ctx, companyID)
	if err != nil {
		return err
	}
	if !permission.CanManageMembers(members, callerID) {
		return model.NewPermissionDeniedError()
	}
	if callerID == targetID {
		return model.NewPermissionDeniedError()
	}

	target := permission.MemberOf(members, targetID)
	if target == nil {
		return model.NewNotFoundError("member")
	}
	if target.Role == model.RoleOwner {
		return model.NewValidationError("owner cannot be modified", "role")
	}

	if input.Role != nil {
		role, err := model.ParseRole(*input.Role)
		if err != nil || !role.IsAssignable() {
			return model.NewValidationError("role must be one of admin, tester, employee", "role")
		}
		if err := s.companyRepo.UpdateMemberRole(ctx, companyID, targetID, role); err != nil {
			return fmt.Errorf("failed to update member role: %w", err)
		}
	}

	if input.TagIDs != nil {
		if len(input.TagIDs) > 0 {
			count, err := s.tagRepo.CountInCompany(ctx, companyID, input.TagIDs)
			if err != nil {
				return fmt.Errorf("failed to validate tags: %w", err)
			}
			if count != len(input.TagIDs) {
				return model.NewValidationError("tags must belong to the company", "tags")
			}
		}
		if err := s.tagRepo.ReplaceUserTags(ctx, targetID, input.TagIDs); err != nil {
			return fmt.Errorf("failed to replace member tags: %w", err)
		}
	}

	return nil
}

// RemoveMember はメンバーシップを削除する。OwnerまたはAdminのみ実行できる。
// Owner行の削除と自分自身の削除はできない。
func (s *Service) RemoveMember(ctx context.Context, callerID, companyID, targetID string) error {
	_, members, err := s.loadWithMembers(ctx, companyID)
	if err != nil {
		return err
	}
	if !permission.CanManageMembers(members, callerID) {
		return model.NewPermissionDeniedError()
	}
	if callerID == targetID {
		return model.NewPermissionDeniedError()
	}

	target := permission.MemberOf(members, targetID)
	if target == nil {
		return model.NewNotFoundError("member")
	}
	if target.Role == model.RoleOwner {
		return model.NewValidationError("owner cannot be removed", "role")
	}

	if err := s.companyRepo.RemoveMember(ctx, companyID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	slog.Info("member removed",
		slog.String("company_id", companyID),
		slog.String("user_id", targetID),
	)
	return nil
}

// loadWithMembers は企業とそのメンバー一覧を取得する。
// 企業が存在しない場合はNotFoundを返す。権限判定より先に存在確認を行う。
func (s *Service) loadWithMembers(ctx context.Context, companyID string) (*model.Company, []model.CompanyMember, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find company: %w", err)
	}
	if company == nil {
		return nil, nil, model.NewNotFoundError("company")
	}

	members, err := s.companyRepo.ListMembers(ctx, companyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}
	return company, members, nil
}
