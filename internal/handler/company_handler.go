package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/testeam/internal/company"
	"github.com/hitoshi/testeam/internal/model"
)

// CompanyServiceInterface は企業ハンドラーが必要とするサービスインターフェース。
type CompanyServiceInterface interface {
	Create(ctx context.Context, ownerID, title, description string) (*model.Company, error)
	ListForUser(ctx context.Context, userID string) ([]model.UserCompany, error)
	Get(ctx context.Context, userID, companyID string) (*model.Company, error)
	Update(ctx context.Context, userID, companyID string, title, description *string) (*model.Company, error)
	Delete(ctx context.Context, userID, companyID string) error
	ListMembers(ctx context.Context, userID, companyID string) ([]model.CompanyMember, error)
	AddMember(ctx context.Context, callerID, companyID string, input company.AddMemberInput) (*model.CompanyMember, error)
	UpdateMember(ctx context.Context, callerID, companyID, targetID string, input company.UpdateMemberInput) error
	RemoveMember(ctx context.Context, callerID, companyID, targetID string) error
}

// CompanyHandler は企業とメンバー管理のHTTPハンドラー。
type CompanyHandler struct {
	service CompanyServiceInterface
}

// NewCompanyHandler はCompanyHandlerを生成する。
func NewCompanyHandler(service CompanyServiceInterface) *CompanyHandler {
	return &CompanyHandler{service: service}
}

type companyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type companyResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type memberResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Create は企業を作成する。
// POST /companies
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req companyRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), claims.UserID, req.Title, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toCompanyResponse(created))
}

// List は呼び出しユーザーが所属する企業の一覧を返す。
// GET /companies
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	companies, err := h.service.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]userCompanyResponse, len(companies))
	for i, c := range companies {
		results[i] = userCompanyResponse{
			CompanyID: c.CompanyID,
			Title:     c.Title,
			Role:      string(c.Role),
		}
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// Get は企業を取得する。
// GET /companies/{id}
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	found, err := h.service.Get(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toCompanyResponse(found))
}

type updateCompanyRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Update は企業情報を更新する。
// PATCH /companies/{id}
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req updateCompanyRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), claims.UserID, chi.URLParam(r, "id"), req.Title, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toCompanyResponse(updated))
}

// Delete は企業を削除する。
// DELETE /companies/{id}
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	if err := h.service.Delete(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMembers は企業のメンバー一覧を返す。
// GET /companies/{id}/members
func (h *CompanyHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	members, err := h.service.ListMembers(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]memberResponse, len(members))
	for i, m := range members {
		results[i] = toMemberResponse(m)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

type addMemberRequest struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phone_number"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	TagIDs      []string `json:"tag_ids"`
}

// AddMember は新規ユーザーを作成して企業のメンバーとして登録する。
// POST /companies/{id}/members
func (h *CompanyHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req addMemberRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	member, err := h.service.AddMember(r.Context(), claims.UserID, chi.URLParam(r, "id"), company.AddMemberInput{
		Email:       req.Email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Role:        req.Role,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toMemberResponse(*member))
}

type updateMemberRequest struct {
	Role   *string  `json:"role"`
	TagIDs []string `json:"tag_ids"`
}

// UpdateMember はメンバーのロールとタグを更新する。
// PATCH /companies/{id}/members/{userID}
func (h *CompanyHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req updateMemberRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	err := h.service.UpdateMember(r.Context(), claims.UserID, chi.URLParam(r, "id"), chi.URLParam(r, "userID"), company.UpdateMemberInput{
		Role:   req.Role,
		TagIDs: req.TagIDs,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "member updated"})
}

// RemoveMember はメンバーシップを削除する。
// DELETE /companies/{id}/members/{userID}
func (h *CompanyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	if err := h.service.RemoveMember(r.Context(), claims.UserID, chi.URLParam(r, "id"), chi.URLParam(r, "userID")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toCompanyResponse はドメインのCompanyをレスポンス型に変換する。
func toCompanyResponse(c *model.Company) companyResponse {
	return companyResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

// toMemberResponse はドメインのCompanyMemberをレスポンス型に変換する。
func toMemberResponse(m model.CompanyMember) memberResponse {
	return memberResponse{
		UserID: m.UserID,
		Name:   m.Name,
		Email:  m.Email,
		Role:   string(m.Role),
	}
}
