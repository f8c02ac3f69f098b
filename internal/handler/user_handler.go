package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/testeam/internal/auth"
	"github.com/hitoshi/testeam/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*auth.Profile, error)
	UpdateProfile(ctx context.Context, userID string, input auth.UpdateProfileInput) (*model.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザープロフィールのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

type tagResponse struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type userCompanyResponse struct {
	CompanyID string `json:"company_id"`
	Title     string `json:"title"`
	Role      string `json:"role"`
}

type profileResponse struct {
	userResponse
	AverageScore float64               `json:"average_score"`
	Tags         []tagResponse         `json:"tags"`
	Companies    []userCompanyResponse `json:"companies"`
}

// Me は現在のユーザーのプロフィールを返す。
// GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProfileResponse(profile))
}

type updateProfileRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
}

// UpdateMe はプロフィールを更新する。
// PATCH /users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req updateProfileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), claims.UserID, auth.UpdateProfileInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, userResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		PhoneNumber: user.PhoneNumber,
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword は認証済みユーザーのパスワード変更を処理する。
// POST /users/me/change-password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req changePasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims.UserID, req.OldPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "password has been changed"})
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	if err := h.service.Withdraw(r.Context(), claims.UserID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toProfileResponse はドメインのProfileをレスポンス型に変換する。
func toProfileResponse(profile *auth.Profile) profileResponse {
	tags := make([]tagResponse, len(profile.Tags))
	for i, t := range profile.Tags {
		tags[i] = toTagResponse(t)
	}

	companies := make([]userCompanyResponse, len(profile.Companies))
	for i, c := range profile.Companies {
		companies[i] = userCompanyResponse{
			CompanyID: c.CompanyID,
			Title:     c.Title,
			Role:      string(c.Role),
		}
	}

	return profileResponse{
		userResponse: userResponse{
			ID:          profile.User.ID,
			Email:       profile.User.Email,
			Name:        profile.User.Name,
			PhoneNumber: profile.User.PhoneNumber,
		},
		AverageScore: profile.User.AverageScore,
		Tags:         tags,
		Companies:    companies,
	}
}

// toTagResponse はドメインのTagをレスポンス型に変換する。
func toTagResponse(t model.Tag) tagResponse {
	return tagResponse{
		ID:          t.ID,
		CompanyID:   t.CompanyID,
		Title:       t.Title,
		Description: t.Description,
	}
}
