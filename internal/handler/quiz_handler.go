package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/testeam/internal/model"
	"github.com/hitoshi/testeam/internal/quiz"
)

// QuizServiceInterface はクイズハンドラーが必要とするサービスインターフェース。
type QuizServiceInterface interface {
	Create(ctx context.Context, userID string, input quiz.CreateInput) (*model.Quiz, error)
	Get(ctx context.Context, userID, quizID string) (*model.Quiz, error)
	ListByCompany(ctx context.Context, userID, companyID string) ([]model.Quiz, error)
	ListForMe(ctx context.Context, userID, companyID string) ([]model.Quiz, error)
	Update(ctx context.Context, userID, quizID string, input quiz.UpdateInput) (*model.Quiz, error)
	Delete(ctx context.Context, userID, quizID string) error
}

// QuizHandler はクイズ管理のHTTPハンドラー。
type QuizHandler struct {
	service QuizServiceInterface
}

// NewQuizHandler はQuizHandlerを生成する。
func NewQuizHandler(service QuizServiceInterface) *QuizHandler {
	return &QuizHandler{service: service}
}

type answerRequest struct {
	Title     string `json:"title"`
	IsCorrect bool   `json:"is_correct"`
}

type questionRequest struct {
	Title   string          `json:"title"`
	Type    string          `json:"type"`
	Answers []answerRequest `json:"answers"`
}

type createQuizRequest struct {
	CompanyID             string            `json:"company_id"`
	Title                 string            `json:"title"`
	Description           string            `json:"description"`
	CompletionTimeMinutes int               `json:"completion_time_minutes"`
	MaxAttemptsCount      int               `json:"max_attempts_count"`
	StartsAt              time.Time         `json:"starts_at"`
	EndsAt                time.Time         `json:"ends_at"`
	TagIDs                []string          `json:"tag_ids"`
	Questions             []questionRequest `json:"questions"`
}

type answerResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	IsCorrect bool   `json:"is_correct"`
}

type questionResponse struct {
	ID      string           `json:"id"`
	Title   string           `json:"title"`
	Type    string           `json:"type"`
	Answers []answerResponse `json:"answers"`
}

type quizResponse struct {
	ID                    string             `json:"id"`
	CompanyID             string             `json:"company_id"`
	Title                 string             `json:"title"`
	Description           string             `json:"description"`
	CompletionTimeMinutes int                `json:"completion_time_minutes"`
	MaxAttemptsCount      int                `json:"max_attempts_count"`
	StartsAt              time.Time          `json:"starts_at"`
	EndsAt                time.Time          `json:"ends_at"`
	TagIDs                []string           `json:"tag_ids"`
	Questions             []questionResponse `json:"questions,omitempty"`
}

// Create はクイズを作成する。
// POST /quizzes
func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req createQuizRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	questions := make([]quiz.QuestionInput, len(req.Questions))
	for i, q := range req.Questions {
		answers := make([]quiz.AnswerInput, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = quiz.AnswerInput{Title: a.Title, IsCorrect: a.IsCorrect}
		}
		questions[i] = quiz.QuestionInput{Title: q.Title, Type: q.Type, Answers: answers}
	}

	created, err := h.service.Create(r.Context(), claims.UserID, quiz.CreateInput{
		CompanyID:             req.CompanyID,
		Title:                 req.Title,
		Description:           req.Description,
		CompletionTimeMinutes: req.CompletionTimeMinutes,
		MaxAttemptsCount:      req.MaxAttemptsCount,
		StartsAt:              req.StartsAt,
		EndsAt:                req.EndsAt,
		TagIDs:                req.TagIDs,
		Questions:             questions,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toQuizResponse(created, true))
}

// Get はクイズを取得する。
// GET /quizzes/{id}
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	found, err := h.service.Get(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toQuizResponse(found, true))
}

// ListByCompany は企業のクイズ一覧を返す。
// GET /companies/{id}/quizzes
func (h *QuizHandler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	quizzes, err := h.service.ListByCompany(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toQuizListResponse(quizzes))
}

// ListForMe は呼び出しユーザーが受験対象のクイズ一覧を返す。
// GET /companies/{id}/quizzes/for-me
func (h *QuizHandler) ListForMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	quizzes, err := h.service.ListForMe(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toQuizListResponse(quizzes))
}

type updateQuizRequest struct {
	Title                 *string    `json:"title"`
	Description           *string    `json:"description"`
	CompletionTimeMinutes *int       `json:"completion_time_minutes"`
	MaxAttemptsCount      *int       `json:"max_attempts_count"`
	StartsAt              *time.Time `json:"starts_at"`
	EndsAt                *time.Time `json:"ends_at"`
	TagIDs                []string   `json:"tag_ids"`
}

// Update はクイズの基本情報を更新する。
// PATCH /quizzes/{id}
func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req updateQuizRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), claims.UserID, chi.URLParam(r, "id"), quiz.UpdateInput{
		Title:                 req.Title,
		Description:           req.Description,
		CompletionTimeMinutes: req.CompletionTimeMinutes,
		MaxAttemptsCount:      req.MaxAttemptsCount,
		StartsAt:              req.StartsAt,
		EndsAt:                req.EndsAt,
		TagIDs:                req.TagIDs,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toQuizResponse(updated, false))
}

// Delete はクイズを削除する。
// DELETE /quizzes/{id}
func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// toQuizResponse はドメインのQuizをレスポンス型に変換する。
func toQuizResponse(q *model.Quiz, includeQuestions bool) quizResponse {
	resp := quizResponse{
		ID:                    q.ID,
		CompanyID:             q.CompanyID,
		Title:                 q.Title,
		Description:           q.Description,
		CompletionTimeMinutes: q.CompletionTimeMinutes,
		MaxAttemptsCount:      q.MaxAttemptsCount,
		StartsAt:              q.StartsAt,
		EndsAt:                q.EndsAt,
		TagIDs:                q.TagIDs,
	}
	if !includeQuestions {
		return resp
	}

	resp.Questions = make([]questionResponse, len(q.Questions))
	for i, question := range q.Questions {
		answers := make([]answerResponse, len(question.Answers))
		for j, a := range question.Answers {
			answers[j] = answerResponse{ID: a.ID, Title: a.Title, IsCorrect: a.IsCorrect}
		}
		resp.Questions[i] = questionResponse{
			ID:      question.ID,
			Title:   question.Title,
			Type:    string(question.Type),
			Answers: answers,
		}
	}
	return resp
}

// toQuizListResponse はクイズ一覧をレスポンス型に変換する（設問は含まない）。
func toQuizListResponse(quizzes []model.Quiz) []quizResponse {
	results := make([]quizResponse, len(quizzes))
	for i := range quizzes {
		results[i] = toQuizResponse(&quizzes[i], false)
	}
	return results
}
