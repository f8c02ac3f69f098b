// Package tag はタグ管理のビジネスロジックを提供する。
package tag

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/testeam/internal/model"
	"github.com/hitoshi/testeam/internal/permission"
	"github.com/hitoshi/testeam/internal/repository"
	"github.com/hitoshi/testeam/internal/security"
)

// Service はタグ管理に関するビジネスロジックを提供する。
type Service struct {
	tagRepo     repository.TagRepository
	companyRepo repository.CompanyRepository
	sanitizer   security.TextSanitizer
}

// NewService はServiceを生成する。
func NewService(
	tagRepo repository.TagRepository,
	companyRepo repository.CompanyRepository,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		tagRepo:     tagRepo,
		companyRepo: companyRepo,
		sanitizer:   sanitizer,
	}
}

// ListByCompany は企業のタグ一覧を返す。メンバーのみ閲覧できる。
func (s *Service) ListByCompany(ctx context.Context, userID, companyID string) ([]model.Tag, error) {
	members, err := s.membersOf(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !permission.IsMember(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}
	return s.tagRepo.ListByCompany(ctx, companyID)
}

// Create はタグを作成する。企業のOwnerまたはAdminのみ実行できる。
func (s *Service) Create(ctx context.Context, userID, companyID, title, description string) (*model.Tag, error) {
	members, err := s.membersOf(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !permission.CanManageMembers(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}

	title = s.sanitizer.Sanitize(title)
	if title == "" {
		return nil, model.NewValidationError("title is required", "title")
	}

	tag := &model.Tag{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Title:       title,
		Description: s.sanitizer.Sanitize(description),
	}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("tag title is already taken in this company", "title")
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}

// Get はタグを取得する。タグが属する企業のメンバーのみ閲覧できる。
func (s *Service) Get(ctx context.Context, userID, tagID string) (*model.Tag, error) {
	tag, members, err := s.loadWithMembers(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if !permission.IsMember(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}
	return tag, nil
}

// Update はタグ情報を更新する。企業のOwnerまたはAdminのみ実行できる。
func (s *Service) Update(ctx context.Context, userID, tagID string, title, description *string) (*model.Tag, error) {
	tag, members, err := s.loadWithMembers(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if !permission.CanManageMembers(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}

	if title != nil {
		sanitized := s.sanitizer.Sanitize(*title)
		if sanitized == "" {
			return nil, model.NewValidationError("title must not be empty", "title")
		}
		tag.Title = sanitized
	}
	if description != nil {
		tag.Description = s.sanitizer.Sanitize(*description)
	}

	if err := s.tagRepo.Update(ctx, tag); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("tag title is already taken in this company", "title")
		}
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}
	return tag, nil
}

// Delete はタグを削除する。企業のOwnerまたはAdminのみ実行できる。
func (s *Service) Delete(ctx context.Context, userID, tagID string) error {
	_, members, err := s.loadWithMembers(ctx, tagID)
	if err != nil {
		return err
	}
	if !permission.CanManageMembers(members, userID) {
		return model.NewPermissionDeniedError()
	}

	if err := s.tagRepo.DeleteByID(ctx, tagID); err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return nil
}

// membersOf は企業の存在確認をした上でメンバー一覧を返す。
func (s *Service) membersOf(ctx context.Context, companyID string) ([]model.CompanyMember, error) {
	exists, err := s.companyRepo.ExistsByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check company existence: %w", err)
	}
	if !exists {
		return nil, model.NewNotFoundError("company")
	}

	members, err := s.companyRepo.ListMembers(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// loadWithMembers はタグとその企業のメンバー一覧を取得する。
func (s *Service) loadWithMembers(ctx context.Context, tagID string) (*model.Tag, []model.CompanyMember, error) {
	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find tag: %w", err)
	}
	if tag == nil {
		return nil, nil, model.NewNotFoundError("tag")
	}

	members, err := s.companyRepo.ListMembers(ctx, tag.CompanyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}
	return tag, members, nil
}
