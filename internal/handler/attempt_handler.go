package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/testeam/internal/attempt"
	"github.com/hitoshi/testeam/internal/model"
)

// AttemptServiceInterface は受験ハンドラーが必要とするサービスインターフェース。
type AttemptServiceInterface interface {
	Start(ctx context.Context, userID, quizID string) (*model.Attempt, error)
	SubmitAnswer(ctx context.Context, userID, attemptID, questionID string, input attempt.AnswerInput) (*model.AttemptAnswer, error)
}

// AttemptHandler はクイズ受験のHTTPハンドラー。
type AttemptHandler struct {
	service AttemptServiceInterface
}

// NewAttemptHandler はAttemptHandlerを生成する。
func NewAttemptHandler(service AttemptServiceInterface) *AttemptHandler {
	return &AttemptHandler{service: service}
}

type attemptResponse struct {
	ID        string    `json:"id"`
	QuizID    string    `json:"quiz_id"`
	UserID    string    `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Start はクイズの受験を開始する。
// POST /quizzes/{id}/attempts
func (h *AttemptHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	started, err := h.service.Start(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, attemptResponse{
		ID:        started.ID,
		QuizID:    started.QuizID,
		UserID:    started.UserID,
		StartTime: started.StartTime,
		EndTime:   started.EndTime,
	})
}

type submitAnswerRequest struct {
	AnswerIDs []string `json:"answer_ids"`
	Text      string   `json:"text"`
}

type submitAnswerResponse struct {
	AttemptID  string    `json:"attempt_id"`
	QuestionID string    `json:"question_id"`
	AnsweredAt time.Time `json:"answered_at"`
}

// SubmitAnswer は進行中の受験における設問への回答を保存する。
// POST /attempts/{id}/answers/{questionID}
func (h *AttemptHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	claims := claimsOrUnauthorized(w, r)
	if claims == nil {
		return
	}

	var req submitAnswerRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	answer, err := h.service.SubmitAnswer(r.Context(),
		claims.UserID, chi.URLParam(r, "id"), chi.URLParam(r, "questionID"),
		attempt.AnswerInput{AnswerIDs: req.AnswerIDs, Text: req.Text})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, submitAnswerResponse{
		AttemptID:  answer.AttemptID,
		QuestionID: answer.QuestionID,
		AnsweredAt: answer.AnsweredAt,
	})
}
