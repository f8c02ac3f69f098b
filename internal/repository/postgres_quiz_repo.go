package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/testeam/internal/model"
)

// PostgresQuizRepo はPostgreSQLを使用したクイズリポジトリ。
type PostgresQuizRepo struct {
	db *sql.DB
}

// NewPostgresQuizRepo はPostgresQuizRepoを生成する。
func NewPostgresQuizRepo(db *sql.DB) *PostgresQuizRepo {
	return &PostgresQuizRepo{db: db}
}

// ExistsByID は指定IDのクイズが存在するかどうかを返す。
func (r *PostgresQuizRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM quizzes WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check quiz existence: %w", err)
	}
	return exists, nil
}

const quizColumns = `id, company_id, title, description, completion_time_minutes, max_attempts_count, starts_at, ends_at, created_at`

func scanQuizRow(rows *sql.Rows) (*model.Quiz, error) {
	quiz := &model.Quiz{}
	err := rows.Scan(
		&quiz.ID, &quiz.CompanyID, &quiz.Title, &quiz.Description,
		&quiz.CompletionTimeMinutes, &quiz.MaxAttemptsCount,
		&quiz.StartsAt, &quiz.EndsAt, &quiz.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan quiz: %w", err)
	}
	return quiz, nil
}

// FindByID は指定IDのクイズを設問・選択肢・タグ込みで取得する。見つからない場合はnilを返す。
func (r *PostgresQuizRepo) FindByID(ctx context.Context, id string) (*model.Quiz, error) {
	quiz := &model.Quiz{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id,
	).Scan(
		&quiz.ID, &quiz.CompanyID, &quiz.Title, &quiz.Description,
		&quiz.CompletionTimeMinutes, &quiz.MaxAttemptsCount,
		&quiz.StartsAt, &quiz.EndsAt, &quiz.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find quiz by ID: %w", err)
	}

	questions, err := r.listQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions

	tagRows, err := r.db.QueryContext(ctx,
		`SELECT tag_id FROM tag_quiz WHERE quiz_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tagID string
		if err := tagRows.Scan(&tagID); err != nil {
			return nil, fmt.Errorf("failed to scan quiz tag: %w", err)
		}
		quiz.TagIDs = append(quiz.TagIDs, tagID)
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quiz tags: %w", err)
	}

	return quiz, nil
}

// listQuestions はクイズの設問一覧を選択肢込みで取得する。
func (r *PostgresQuizRepo) listQuestions(ctx context.Context, quizID string) ([]model.Question, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, quiz_id, title, type FROM questions WHERE quiz_id = $1 ORDER BY title`,
		quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Title, &q.Type); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}

	for i := range questions {
		answers, err := r.listAnswers(ctx, questions[i].ID)
		if err != nil {
			return nil, err
		}
		questions[i].Answers = answers
	}
	return questions, nil
}

func (r *PostgresQuizRepo) listAnswers(ctx context.Context, questionID string) ([]model.Answer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, question_id, title, is_correct FROM answers WHERE question_id = $1 ORDER BY title`,
		questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Title, &a.IsCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}
	return answers, nil
}

// Create はクイズ・設問・選択肢・タグ紐付けを同一トランザクションで作成する。
func (r *PostgresQuizRepo) Create(ctx context.Context, quiz *model.Quiz) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO quizzes (id, company_id, title, description, completion_time_minutes, max_attempts_count, starts_at, ends_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		quiz.ID, quiz.CompanyID, quiz.Title, quiz.Description,
		quiz.CompletionTimeMinutes, quiz.MaxAttemptsCount,
		quiz.StartsAt, quiz.EndsAt, quiz.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quiz: %w", err)
	}

	for _, q := range quiz.Questions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO questions (id, quiz_id, title, type) VALUES ($1, $2, $3, $4)`,
			q.ID, quiz.ID, q.Title, q.Type,
		)
		if err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}
		for _, a := range q.Answers {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO answers (id, question_id, title, is_correct) VALUES ($1, $2, $3, $4)`,
				a.ID, q.ID, a.Title, a.IsCorrect,
			)
			if err != nil {
				return fmt.Errorf("failed to insert answer: %w", err)
			}
		}
	}

	for _, tagID := range quiz.TagIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tag_quiz (tag_id, quiz_id) VALUES ($1, $2)`,
			tagID, quiz.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert quiz tag link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update はクイズの基本情報を更新する。
func (r *PostgresQuizRepo) Update(ctx context.Context, quiz *model.Quiz) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE quizzes SET title = $1, description = $2, completion_time_minutes = $3,
		 max_attempts_count = $4, starts_at = $5, ends_at = $6
		 WHERE id = $7`,
		quiz.Title, quiz.Description, quiz.CompletionTimeMinutes,
		quiz.MaxAttemptsCount, quiz.StartsAt, quiz.EndsAt, quiz.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのクイズを削除する。
func (r *PostgresQuizRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("quiz not found: %s", id)
	}
	return nil
}

// ListByCompany は企業のクイズ一覧を返す（設問は含まない）。
func (r *PostgresQuizRepo) ListByCompany(ctx context.Context, companyID string) ([]model.Quiz, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE company_id = $1 ORDER BY created_at DESC`,
		companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	defer rows.Close()
	return collectQuizzes(rows)
}

// ListByCompanyForTags は企業のクイズのうち、指定タグのいずれかが設定されたものの一覧を返す。
func (r *PostgresQuizRepo) ListByCompanyForTags(ctx context.Context, companyID string, tagIDs []string) ([]model.Quiz, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT q.id, q.company_id, q.title, q.description, q.completion_time_minutes,
		        q.max_attempts_count, q.starts_at, q.ends_at, q.created_at
		 FROM quizzes q
		 JOIN tag_quiz tq ON tq.quiz_id = q.id
		 WHERE q.company_id = $1 AND tq.tag_id = ANY($2)
		 ORDER BY q.created_at DESC`,
		companyID, pq.Array(tagIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes by tags: %w", err)
	}
	defer rows.Close()
	return collectQuizzes(rows)
}

func collectQuizzes(rows *sql.Rows) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	for rows.Next() {
		quiz, err := scanQuizRow(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quizzes: %w", err)
	}
	return quizzes, nil
}

// FindQuestionByID は指定IDの設問を選択肢込みで取得する。見つからない場合はnilを返す。
func (r *PostgresQuizRepo) FindQuestionByID(ctx context.Context, questionID string) (*model.Question, error) {
	question := &model.Question{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, quiz_id, title, type FROM questions WHERE id = $1`, questionID,
	).Scan(&question.ID, &question.QuizID, &question.Title, &question.Type)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find question by ID: %w", err)
	}

	answers, err := r.listAnswers(ctx, questionID)
	if err != nil {
		return nil, err
	}
	question.Answers = answers
	return question, nil
}

// compile-time interface check
var _ QuizRepository = (*PostgresQuizRepo)(nil)
