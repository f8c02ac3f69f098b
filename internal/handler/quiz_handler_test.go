package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/testeam/internal/model"
	"github.com/hitoshi/testeam/internal/quiz"
)

// --- モック定義 ---

type mockQuizService struct {
	createFn        func(ctx context.Context, userID string, input quiz.CreateInput) (*model.Quiz, error)
	getFn           func(ctx context.Context, userID, quizID string) (*model.Quiz, error)
	listByCompanyFn func(ctx context.Context, userID, companyID string) ([]model.Quiz, error)
	listForMeFn     func(ctx context.Context, userID, companyID string) ([]model.Quiz, error)
	updateFn        func(ctx context.Context, userID, quizID string, input quiz.UpdateInput) (*model.Quiz, error)
	deleteFn        func(ctx context.Context, userID, quizID string) error
}

func (m *mockQuizService) Create(ctx context.Context, userID string, input quiz.CreateInput) (*model.Quiz, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return nil, nil
}

func (m *mockQuizService) Get(ctx context.Context, userID, quizID string) (*model.Quiz, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, quizID)
	}
	return nil, nil
}

func (m *mockQuizService) ListByCompany(ctx context.Context, userID, companyID string) ([]model.Quiz, error) {
	if m.listByCompanyFn != nil {
		return m.listByCompanyFn(ctx, userID, companyID)
	}
	return nil, nil
}

func (m *mockQuizService) ListForMe(ctx context.Context, userID, companyID string) ([]model.Quiz, error) {
	if m.listForMeFn != nil {
		return m.listForMeFn(ctx, userID, companyID)
	}
	return nil, nil
}

func (m *mockQuizService) Update(ctx context.Context, userID, quizID string, input quiz.UpdateInput) (*model.Quiz, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, quizID, input)
	}
	return nil, nil
}

func (m *mockQuizService) Delete(ctx context.Context, userID, quizID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, quizID)
	}
	return nil
}

// --- テスト ---

func TestQuizHandler_Create_DecodesNestedQuestions(t *testing.T) {
	svc := &mockQuizService{
		createFn: func(ctx context.Context, userID string, input quiz.CreateInput) (*model.Quiz, error) {
			if input.CompanyID != "company-1" {
				t.Errorf("input.CompanyID = %q, want %q", input.CompanyID, "company-1")
			}
			if len(input.Questions) != 2 {
				t.Fatalf("len(input.Questions) = %d, want 2", len(input.Questions))
			}
			if input.Questions[0].Type != "single_choice" {
				t.Errorf("questions[0].Type = %q, want %q", input.Questions[0].Type, "single_choice")
			}
			if len(input.Questions[0].Answers) != 2 || !input.Questions[0].Answers[0].IsCorrect {
				t.Errorf("questions[0].Answers = %+v, want first answer correct", input.Questions[0].Answers)
			}
			return &model.Quiz{
				ID:        "quiz-1",
				CompanyID: input.CompanyID,
				Title:     input.Title,
				Questions: []model.Question{
					{ID: "question-1", Title: "What does TCP stand for?", Type: model.QuestionSingleChoice},
				},
			}, nil
		},
	}
	h := NewQuizHandler(svc)

	body := `{
		"company_id": "company-1",
		"title": "Networking basics",
		"completion_time_minutes": 30,
		"max_attempts_count": 3,
		"starts_at": "2026-03-02T12:00:00Z",
		"ends_at": "2026-03-03T12:00:00Z",
		"questions": [
			{
				"title": "What does TCP stand for?",
				"type": "single_choice",
				"answers": [
					{"title": "Transmission Control Protocol", "is_correct": true},
					{"title": "Total Control Protocol", "is_correct": false}
				]
			},
			{
				"title": "Name a language with goroutines",
				"type": "open_answer",
				"answers": [{"title": "go", "is_correct": true}]
			}
		]
	}`
	req := withClaims(httptest.NewRequest(http.MethodPost, "/quizzes", strings.NewReader(body)), "user-1")
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got quizResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if got.ID != "quiz-1" {
		t.Errorf("id = %q, want %q", got.ID, "quiz-1")
	}
	if len(got.Questions) != 1 {
		t.Errorf("len(questions) = %d, want 1", len(got.Questions))
	}
}

func TestQuizHandler_Create_ValidationError_ReturnsFieldDetail(t *testing.T) {
	svc := &mockQuizService{
		createFn: func(ctx context.Context, userID string, input quiz.CreateInput) (*model.Quiz, error) {
			return nil, model.NewValidationError("quiz must have at least 2 questions", "questions")
		},
	}
	h := NewQuizHandler(svc)

	body := `{"company_id": "company-1", "title": "Too short"}`
	req := withClaims(httptest.NewRequest(http.MethodPost, "/quizzes", strings.NewReader(body)), "user-1")
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var got struct {
		Detail struct {
			Message string `json:"message"`
			Field   string `json:"field"`
		} `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if got.Detail.Field != "questions" {
		t.Errorf("detail.field = %q, want %q", got.Detail.Field, "questions")
	}
}

func TestQuizHandler_Get_ReturnsQuizWithQuestions(t *testing.T) {
	starts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	svc := &mockQuizService{
		getFn: func(ctx context.Context, userID, quizID string) (*model.Quiz, error) {
			return &model.Quiz{
				ID:        quizID,
				CompanyID: "company-1",
				Title:     "Networking basics",
				StartsAt:  starts,
				Questions: []model.Question{
					{
						ID:    "question-1",
						Title: "What does TCP stand for?",
						Type:  model.QuestionSingleChoice,
						Answers: []model.Answer{
							{ID: "answer-1", Title: "Transmission Control Protocol", IsCorrect: true},
						},
					},
				},
			}, nil
		},
	}
	h := NewQuizHandler(svc)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/quizzes/quiz-1", nil), "user-1")
	req = withChiURLParam(req, "id", "quiz-1")
	w := httptest.NewRecorder()

	h.Get(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got quizResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if len(got.Questions) != 1 || got.Questions[0].ID != "question-1" {
		t.Fatalf("questions = %+v, want question-1", got.Questions)
	}
	if len(got.Questions[0].Answers) != 1 || !got.Questions[0].Answers[0].IsCorrect {
		t.Errorf("answers = %+v, want answer-1 correct", got.Questions[0].Answers)
	}
}

func TestQuizHandler_ListByCompany_OmitsQuestions(t *testing.T) {
	svc := &mockQuizService{
		listByCompanyFn: func(ctx context.Context, userID, companyID string) ([]model.Quiz, error) {
			return []model.Quiz{
				{
					ID:        "quiz-1",
					CompanyID: companyID,
					Title:     "Networking basics",
					Questions: []model.Question{{ID: "question-1"}},
				},
			}, nil
		},
	}
	h := NewQuizHandler(svc)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/companies/company-1/quizzes", nil), "user-1")
	req = withChiURLParam(req, "id", "company-1")
	w := httptest.NewRecorder()

	h.ListByCompany(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []quizResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if len(got[0].Questions) != 0 {
		t.Errorf("list response must not include questions, got %+v", got[0].Questions)
	}
}

func TestQuizHandler_Update_PassesPartialInput(t *testing.T) {
	svc := &mockQuizService{
		updateFn: func(ctx context.Context, userID, quizID string, input quiz.UpdateInput) (*model.Quiz, error) {
			if input.Title == nil || *input.Title != "Renamed" {
				t.Errorf("input.Title = %v, want Renamed", input.Title)
			}
			if input.StartsAt != nil {
				t.Errorf("input.StartsAt = %v, want nil", input.StartsAt)
			}
			return &model.Quiz{ID: quizID, Title: *input.Title}, nil
		},
	}
	h := NewQuizHandler(svc)

	body := `{"title": "Renamed"}`
	req := withClaims(httptest.NewRequest(http.MethodPatch, "/quizzes/quiz-1", strings.NewReader(body)), "user-1")
	req = withChiURLParam(req, "id", "quiz-1")
	w := httptest.NewRecorder()

	h.Update(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestQuizHandler_Delete_UnknownQuiz_ReturnsNotFound(t *testing.T) {
	svc := &mockQuizService{
		deleteFn: func(ctx context.Context, userID, quizID string) error {
			return model.NewNotFoundError("quiz")
		},
	}
	h := NewQuizHandler(svc)

	req := withClaims(httptest.NewRequest(http.MethodDelete, "/quizzes/unknown", nil), "user-1")
	req = withChiURLParam(req, "id", "unknown")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	var got struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if got.Detail != "quiz is not found" {
		t.Errorf("detail = %q, want %q", got.Detail, "quiz is not found")
	}
}
