// Package quiz はクイズと設問管理のビジネスロジックを提供する。
package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/testeam/internal/model"
	"github.com/hitoshi/testeam/internal/permission"
	"github.com/hitoshi/testeam/internal/repository"
	"github.com/hitoshi/testeam/internal/security"
)

// Service はクイズ管理に関するビジネスロジックを提供する。
type Service struct {
	quizRepo    repository.QuizRepository
	companyRepo repository.CompanyRepository
	tagRepo     repository.TagRepository
	sanitizer   security.TextSanitizer
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	quizRepo repository.QuizRepository,
	companyRepo repository.CompanyRepository,
	tagRepo repository.TagRepository,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		quizRepo:    quizRepo,
		companyRepo: companyRepo,
		tagRepo:     tagRepo,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// CreateInput はクイズ作成のリクエスト内容。
type CreateInput struct {
	CompanyID             string
	Title                 string
	Description           string
	CompletionTimeMinutes int
	MaxAttemptsCount      int
	StartsAt              time.Time
	EndsAt                time.Time
	TagIDs                []string
	Questions             []QuestionInput
}

// QuestionInput は設問のリクエスト内容。
type QuestionInput struct {
	Title   string
	Type    string
	Answers []AnswerInput
}

// AnswerInput は選択肢のリクエスト内容。
type AnswerInput struct {
	Title     string
	IsCorrect bool
}

// Create はクイズを作成する。企業のOwner・Admin・Testerのみ実行できる。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Quiz, error) {
	members, err := s.membersOf(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	if !permission.CanManageQuizzes(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}

	title := s.sanitizer.Sanitize(input.Title)
	if title == "" {
		return nil, model.NewValidationError("title is required", "title")
	}
	if input.CompletionTimeMinutes <= 0 {
		return nil, model.NewValidationError("completion time must be positive", "completion_time")
	}
	if input.MaxAttemptsCount <= 0 {
		return nil, model.NewValidationError("max attempts count must be positive", "max_attempts_count")
	}
	if err := s.validateWindow(input.StartsAt, input.EndsAt); err != nil {
		return nil, err
	}
	if err := s.validateTags(ctx, input.CompanyID, input.TagIDs); err != nil {
		return nil, err
	}

	questions, err := s.buildQuestions(input.Questions)
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		ID:                    uuid.New().String(),
		CompanyID:             input.CompanyID,
		Title:                 title,
		Description:           s.sanitizer.Sanitize(input.Description),
		CompletionTimeMinutes: input.CompletionTimeMinutes,
		MaxAttemptsCount:      input.MaxAttemptsCount,
		StartsAt:              input.StartsAt,
		EndsAt:                input.EndsAt,
		Questions:             questions,
		TagIDs:                input.TagIDs,
		CreatedAt:             s.now(),
	}
	for i := range quiz.Questions {
		quiz.Questions[i].QuizID = quiz.ID
	}

	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("quiz title is already taken in this company", "title")
		}
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	slog.Info("quiz created",
		slog.String("quiz_id", quiz.ID),
		slog.String("company_id", quiz.CompanyID),
	)
	return quiz, nil
}

// Get はクイズを取得する。企業のメンバーのみ閲覧でき、
// Employeeには正解フラグを含まないビューを返す。
func (s *Service) Get(ctx context.Context, userID, quizID string) (*model.Quiz, error) {
	quiz, members, err := s.loadWithMembers(ctx, quizID)
	if err != nil {
		return nil, err
	}
	member := permission.MemberOf(members, userID)
	if member == nil {
		return nil, model.NewPermissionDeniedError()
	}

	if member.Role == model.RoleEmployee {
		return redact(quiz), nil
	}
	return quiz, nil
}

// ListByCompany は企業のクイズ一覧を返す。Owner・Admin・Testerのみ閲覧できる。
func (s *Service) ListByCompany(ctx context.Context, userID, companyID string) ([]model.Quiz, error) {
	members, err := s.membersOf(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !permission.CanManageQuizzes(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}
	return s.quizRepo.ListByCompany(ctx, companyID)
}

// ListForMe は呼び出しユーザーのタグに紐付く企業のクイズ一覧を返す。メンバーのみ。
func (s *Service) ListForMe(ctx context.Context, userID, companyID string) ([]model.Quiz, error) {
	members, err := s.membersOf(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !permission.IsMember(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}

	userTags, err := s.tagRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user tags: %w", err)
	}
	if len(userTags) == 0 {
		return nil, nil
	}

	tagIDs := make([]string, len(userTags))
	for i, t := range userTags {
		tagIDs[i] = t.ID
	}
	return s.quizRepo.ListByCompanyForTags(ctx, companyID, tagIDs)
}

// UpdateInput はクイズ更新のリクエスト内容。nilのフィールドは変更しない。
type UpdateInput struct {
	Title                 *string
	Description           *string
	CompletionTimeMinutes *int
	MaxAttemptsCount      *int
	StartsAt              *time.Time
	EndsAt                *time.Time
	TagIDs                []string
}

// Update はクイズの基本情報を更新する。企業のOwner・Admin・Testerのみ実行できる。
// 公開期間が既に始まっている場合、開始時刻は変更できない。
func (s *Service) Update(ctx context.Context, userID, quizID string, input UpdateInput) (*model.Quiz, error) {
	quiz, members, err := s.loadWithMembers(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !permission.CanManageQuizzes(members, userID) {
		return nil, model.NewPermissionDeniedError()
	}

	now := s.now()
	if input.StartsAt != nil {
		if now.After(quiz.StartsAt) {
			return nil, model.NewValidationError("start time cannot be changed after the quiz window opened", "starts_at")
		}
		if input.StartsAt.Before(now) {
			return nil, model.NewValidationError("start time must be in the future", "starts_at")
		}
		quiz.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		if input.EndsAt.Before(now) {
			return nil, model.NewValidationError("end time must be in the future", "ends_at")
		}
		quiz.EndsAt = *input.EndsAt
	}
	if !quiz.EndsAt.After(quiz.StartsAt) {
		return nil, model.NewValidationError("end time must be after start time", "ends_at")
	}

	if input.Title != nil {
		sanitized := s.sanitizer.Sanitize(*input.Title)
		if sanitized == "" {
			return nil, model.NewValidationError("title must not be empty", "title")
		}
		quiz.Title = sanitized
	}
	if input.Description != nil {
		quiz.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.CompletionTimeMinutes != nil {
		if *input.CompletionTimeMinutes <= 0 {
			return nil, model.NewValidationError("completion time must be positive", "completion_time")
		}
		quiz.CompletionTimeMinutes = *input.CompletionTimeMinutes
	}
	if input.MaxAttemptsCount != nil {
		if *input.MaxAttemptsCount <= 0 {
			return nil, model.NewValidationError("max attempts count must be positive", "max_attempts_count")
		}
		quiz.MaxAttemptsCount = *input.MaxAttemptsCount
	}

	// タグの検証は永続化より先に行い、部分更新を残さない
	if input.TagIDs != nil {
		if err := s.validateTags(ctx, quiz.CompanyID, input.TagIDs); err != nil {
			return nil, err
		}
	}

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("quiz title is already taken in this company", "title")
		}
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	if input.TagIDs != nil {
		if err := s.tagRepo.ReplaceQuizTags(ctx, quizID, input.TagIDs); err != nil {
			return nil, fmt.Errorf("failed to replace quiz tags: %w", err)
		}
		quiz.TagIDs = input.TagIDs
	}

	return quiz, nil
}

// Delete はクイズを削除する。企業のOwner・Admin・Testerのみ実行できる。
func (s *Service) Delete(ctx context.Context, userID, quizID string) error {
	quiz, members, err := s.loadWithMembers(ctx, quizID)
	if err != nil {
		return err
	}
	if !permission.CanManageQuizzes(members, userID) {
		return model.NewPermissionDeniedError()
	}

	if err := s.quizRepo.DeleteByID(ctx, quizID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	slog.Info("quiz deleted", slog.String("quiz_id", quiz.ID))
	return nil
}

// validateWindow は公開期間を検証する。開始・終了とも未来であり、終了は開始より後でなければならない。
func (s *Service) validateWindow(startsAt, endsAt time.Time) error {
	now := s.now()
	if startsAt.Before(now) {
		return model.NewValidationError("start time must be in the future", "starts_at")
	}
	if endsAt.Before(now) {
		return model.NewValidationError("end time must be in the future", "ends_at")
	}
	if !endsAt.After(startsAt) {
		return model.NewValidationError("end time must be after start time", "ends_at")
	}
	return nil
}

// validateTags は指定タグがすべて企業に属することを検証する。
func (s *Service) validateTags(ctx context.Context, companyID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	count, err := s.tagRepo.CountInCompany(ctx, companyID, tagIDs)
	if err != nil {
		return fmt.Errorf("failed to validate tags: %w", err)
	}
	if count != len(tagIDs) {
		return model.NewValidationError("tags must belong to the company", "tags")
	}
	return nil
}

// buildQuestions は設問入力を検証しモデルへ変換する。
// 設問は2問以上、タイトルは設問間で一意。選択式は選択肢2つ以上、
// 記述式は選択肢ちょうど1つ。正解は単一選択・記述式でちょうど1つ、
// 複数選択で1つ以上。
func (s *Service) buildQuestions(inputs []QuestionInput) ([]model.Question, error) {
	if len(inputs) < 2 {
		return nil, model.NewValidationError("quiz must have at least 2 questions", "questions")
	}

	titles := make(map[string]bool, len(inputs))
	questions := make([]model.Question, 0, len(inputs))

	for _, in := range inputs {
		title := s.sanitizer.Sanitize(in.Title)
		if title == "" {
			return nil, model.NewValidationError("question title is required", "questions")
		}
		if titles[title] {
			return nil, model.NewValidationError("question titles must be unique", "questions")
		}
		titles[title] = true

		qType, err := model.ParseQuestionType(in.Type)
		if err != nil {
			return nil, model.NewValidationError("question type must be one of single_choice, multiple_choice, open_answer", "questions")
		}

		answers, err := s.buildAnswers(qType, in.Answers)
		if err != nil {
			return nil, err
		}

		questions = append(questions, model.Question{
			ID:      uuid.New().String(),
			Title:   title,
			Type:    qType,
			Answers: answers,
		})
	}

	for i := range questions {
		for j := range questions[i].Answers {
			questions[i].Answers[j].QuestionID = questions[i].ID
		}
	}
	return questions, nil
}

func (s *Service) buildAnswers(qType model.QuestionType, inputs []AnswerInput) ([]model.Answer, error) {
	switch qType {
	case model.QuestionOpenAnswer:
		if len(inputs) != 1 {
			return nil, model.NewValidationError("open answer question must have exactly 1 answer", "questions")
		}
	default:
		if len(inputs) < 2 {
			return nil, model.NewValidationError("choice question must have at least 2 answers", "questions")
		}
	}

	titles := make(map[string]bool, len(inputs))
	correct := 0
	answers := make([]model.Answer, 0, len(inputs))

	for _, in := range inputs {
		title := s.sanitizer.Sanitize(in.Title)
		if title == "" {
			return nil, model.NewValidationError("answer title is required", "questions")
		}
		if titles[title] {
			return nil, model.NewValidationError("answer titles must be unique within a question", "questions")
		}
		titles[title] = true

		isCorrect := in.IsCorrect
		if qType == model.QuestionOpenAnswer {
			// 記述式の唯一の選択肢が正解文そのもの
			isCorrect = true
		}
		if isCorrect {
			correct++
		}
		answers = append(answers, model.Answer{
			ID:        uuid.New().String(),
			Title:     title,
			IsCorrect: isCorrect,
		})
	}

	switch qType {
	case model.QuestionMultipleChoice:
		if correct < 1 {
			return nil, model.NewValidationError("multiple choice question must have at least 1 correct answer", "questions")
		}
	default:
		if correct != 1 {
			return nil, model.NewValidationError("question must have exactly 1 correct answer", "questions")
		}
	}
	return answers, nil
}

// redact は正解フラグを落としたクイズのコピーを返す。Employee向けビュー。
func redact(quiz *model.Quiz) *model.Quiz {
	copied := *quiz
	copied.Questions = make([]model.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		qc := q
		qc.Answers = make([]model.Answer, len(q.Answers))
		for j, a := range q.Answers {
			ac := a
			ac.IsCorrect = false
			qc.Answers[j] = ac
		}
		copied.Questions[i] = qc
	}
	return &copied
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

// loadWithMembers はクイズとその企業のメンバー一覧を取得する。
func (s *Service) loadWithMembers(ctx context.Context, quizID string) (*model.Quiz, []model.CompanyMember, error) {
	quiz, err := s.quizRepo.FindByID(ctx, quizID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find quiz: %w", err)
	}
	if quiz == nil {
		return nil, nil, model.NewNotFoundError("quiz")
	}

	members, err := s.companyRepo.ListMembers(ctx, quiz.CompanyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}
	return quiz, members, nil
}
