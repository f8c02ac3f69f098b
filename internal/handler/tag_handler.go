package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/testeam/internal/model"
)

// TagServiceInterface はタグハンドラーが必要とするサービスインターフェース。
type TagServiceInterface interface {
	ListByCompany(ctx context.Context, userID, companyID string) ([]model.Tag, error)
	Create(ctx context.Context, userID, companyID, title, description string) (*model.Tag, error)
	Get(ctx context.Context, userID, tagID string) (*model.Tag, error)
	Update(ctx context.Context, userID, tagID string, title, description *string) (*model.Tag, error)
	Delete(ctx context.Context, userID, tagID string) error
}

// TagHandler はタグ管理のHTTPハンドラー。
type TagHandler struct {
	service TagServiceInterface
}

// NewTagHandler はTagHandlerを生成する。
func NewTagHandler(service TagServiceInterface) *TagHandler {
	return &TagHandler{service: service}
}

// ListByCompany は企業のタグ一覧を返す。
// GET /companies/{id}/tags
func (h *TagHandler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	tags, err := h.service.ListByCompany(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]tagResponse, len(tags))
	for i, t := range tags {
		results[i] = toTagResponse(t)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

type createTagRequest struct {
	CompanyID   string `json:"company_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Create はタグを作成する。
// POST /tags
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req createTagRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), claims.UserID, req.CompanyID, req.Title, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toTagResponse(*created))
}

// Get はタグを取得する。
// GET /tags/{id}
func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	found, err := h.service.Get(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toTagResponse(*found))
}

type updateTagRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Update はタグ情報を更新する。
// PATCH /tags/{id}
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req updateTagRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), claims.UserID, chi.URLParam(r, "id"), req.Title, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toTagResponse(*updated))
}

// Delete はタグを削除する。
// DELETE /tags/{id}
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
