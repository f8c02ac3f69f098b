// Package attempt はクイズ受験のビジネスロジックを提供する。
package attempt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/testeam/internal/model"
	"github.com/hitoshi/testeam/internal/permission"
	"github.com/hitoshi/testeam/internal/repository"
)

// Metrics は受験イベントの記録先。未設定の場合は何も記録しない。
type Metrics interface {
	RecordAttemptStarted()
	RecordAnswerSubmitted()
}

// Service はクイズ受験に関するビジネスロジックを提供する。
type Service struct {
	attemptRepo repository.AttemptRepository
	quizRepo    repository.QuizRepository
	companyRepo repository.CompanyRepository
	tagRepo     repository.TagRepository
	metrics     Metrics
	now         func() time.Time

	// 同一 (user, quiz) に対する受験開始の確認と作成を直列化する
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService はServiceを生成する。
func NewService(
	attemptRepo repository.AttemptRepository,
	quizRepo repository.QuizRepository,
	companyRepo repository.CompanyRepository,
	tagRepo repository.TagRepository,
) *Service {
	return &Service{
		attemptRepo: attemptRepo,
		quizRepo:    quizRepo,
		companyRepo: companyRepo,
		tagRepo:     tagRepo,
		now:         time.Now,
		locks:       map[string]*sync.Mutex{},
	}
}

// WithMetrics は受験開始と回答提出をメトリクスとして記録するよう設定する。
func (s *Service) WithMetrics(metrics Metrics) *Service {
	s.metrics = metrics
	return s
}

// Start はクイズの受験を開始する。
// 確認順: クイズの存在 → メンバーシップ → タグの重なり → 受験回数上限 →
// 進行中の受験なし。すべて通過した場合のみ受験を作成する。
func (s *Service) Start(ctx context.Context, userID, quizID string) (*model.Attempt, error) {
	quiz, err := s.quizRepo.FindByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to find quiz: %w", err)
	}
	if quiz == nil {
		return nil, model.NewNotFoundError("quiz")
	}

	members, err := s.companyRepo.ListMembers(ctx, quiz.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	if !permission.IsMember(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}

	eligible, err := s.hasTagOverlap(ctx, userID, quiz)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, model.NewValidationError("you can't pass this quiz", "quiz_id")
	}

	now := s.now()
	if now.Before(quiz.StartsAt) {
		return nil, model.NewValidationError("quiz has not started yet", "")
	}
	if now.After(quiz.EndsAt) {
		return nil, model.NewValidationError("quiz is over", "")
	}

	lock := s.lockFor(userID, quizID)
	lock.Lock()
	defer lock.Unlock()

	count, err := s.attemptRepo.CountByUserAndQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if count >= quiz.MaxAttemptsCount {
		return nil, model.NewValidationError("max attempts count is reached", "")
	}

	ongoing, err := s.attemptRepo.FindOngoing(ctx, userID, quizID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find ongoing attempt: %w", err)
	}
	if ongoing != nil {
		return nil, model.NewValidationError("an attempt is already in progress", "")
	}

	attempt := &model.Attempt{
		ID:        uuid.New().String(),
		QuizID:    quizID,
		UserID:    userID,
		StartTime: now,
		EndTime:   now.Add(quiz.CompletionTime()),
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAttemptStarted()
	}
	slog.Info("attempt started",
		slog.String("attempt_id", attempt.ID),
		slog.String("quiz_id", quizID),
		slog.String("user_id", userID),
	)
	return attempt, nil
}

// AnswerInput は回答のリクエスト内容。
// 選択式設問はAnswerIDs、記述式設問はTextを使用する。
type AnswerInput struct {
	AnswerIDs []string
	Text      string
}

// SubmitAnswer は進行中の受験における設問への回答を保存する。
func (s *Service) SubmitAnswer(ctx context.Context, userID, attemptID, questionID string, input AnswerInput) (*model.AttemptAnswer, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to find attempt: %w", err)
	}
	if attempt == nil {
		return nil, model.NewNotFoundError("attempt")
	}
	if attempt.UserID != userID {
		return nil, model.NewPermissionDeniedError()
	}

	now := s.now()
	if !attempt.IsOngoing(now) {
		return nil, model.NewValidationError("attempt is not in progress", "")
	}

	question, err := s.quizRepo.FindQuestionByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find question: %w", err)
	}
	if question == nil || question.QuizID != attempt.QuizID {
		return nil, model.NewNotFoundError("question")
	}

	answer, err := s.evaluate(question, input)
	if err != nil {
		return nil, err
	}
	answer.AttemptID = attemptID
	answer.QuestionID = questionID
	answer.AnsweredAt = now

	if err := s.attemptRepo.StoreAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("failed to store answer: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAnswerSubmitted()
	}
	return answer, nil
}

// evaluate は回答の形式を設問タイプごとに検証し、正誤を判定する。
func (s *Service) evaluate(question *model.Question, input AnswerInput) (*model.AttemptAnswer, error) {
	switch question.Type {
	case model.QuestionOpenAnswer:
		if input.Text == "" {
			return nil, model.NewValidationError("text is required for open answer question", "text")
		}
		if len(input.AnswerIDs) > 0 {
			return nil, model.NewValidationError("answer ids are not allowed for open answer question", "answers")
		}
		return &model.AttemptAnswer{
			Text:      input.Text,
			IsCorrect: matchesOpenAnswer(question, input.Text),
		}, nil

	case model.QuestionSingleChoice:
		if len(input.AnswerIDs) != 1 {
			return nil, model.NewValidationError("exactly one answer is required", "answers")
		}

	case model.QuestionMultipleChoice:
		if len(input.AnswerIDs) == 0 {
			return nil, model.NewValidationError("at least one answer is required", "answers")
		}
	}

	if input.Text != "" {
		return nil, model.NewValidationError("text is not allowed for choice question", "text")
	}

	seen := make(map[string]bool, len(input.AnswerIDs))
	for _, id := range input.AnswerIDs {
		if seen[id] {
			return nil, model.NewValidationError("answer ids must be unique", "answers")
		}
		seen[id] = true
		if !question.HasAnswer(id) {
			return nil, model.NewNotFoundError("answer")
		}
	}

	return &model.AttemptAnswer{
		AnswerIDs: input.AnswerIDs,
		IsCorrect: matchesChoices(question, seen),
	}, nil
}

// matchesOpenAnswer は記述式回答が正答文と一致するかどうかを返す。
// 前後の空白と大文字小文字は区別しない。
func matchesOpenAnswer(question *model.Question, text string) bool {
	for _, a := range question.Answers {
		if a.IsCorrect && strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(a.Title)) {
			return true
		}
	}
	return false
}

// matchesChoices は選択された選択肢の集合が正解の集合と一致するかどうかを返す。
func matchesChoices(question *model.Question, selected map[string]bool) bool {
	correct := 0
	for _, a := range question.Answers {
		if a.IsCorrect {
			correct++
			if !selected[a.ID] {
				return false
			}
		}
	}
	return len(selected) == correct
}

// hasTagOverlap はユーザーのタグとクイズのタグに重なりがあるかどうかを返す。
// タグが設定されていないクイズは全メンバーが受験できる。
func (s *Service) hasTagOverlap(ctx context.Context, userID string, quiz *model.Quiz) (bool, error) {
	if len(quiz.TagIDs) == 0 {
		return true, nil
	}

	userTags, err := s.tagRepo.ListByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to list user tags: %w", err)
	}

	quizTags := make(map[string]bool, len(quiz.TagIDs))
	for _, id := range quiz.TagIDs {
		quizTags[id] = true
	}
	for _, t := range userTags {
		if quizTags[t.ID] {
			return true, nil
		}
	}
	return false, nil
}

// lockFor は (user, quiz) の組に対応するミューテックスを返す。
func (s *Service) lockFor(userID, quizID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID + ":" + quizID
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
