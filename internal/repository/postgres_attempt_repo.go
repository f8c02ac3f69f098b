package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/testeam/internal/model"
)

// PostgresAttemptRepo はPostgreSQLを使用した受験リポジトリ。
type PostgresAttemptRepo struct {
	db *sql.DB
}

// NewPostgresAttemptRepo はPostgresAttemptRepoを生成する。
func NewPostgresAttemptRepo(db *sql.DB) *PostgresAttemptRepo {
	return &PostgresAttemptRepo{db: db}
}

const attemptColumns = `id, user_id, quiz_id, start_time, end_time, result`

// FindByID は指定IDの受験を取得する。見つからない場合はnilを返す。
func (r *PostgresAttemptRepo) FindByID(ctx context.Context, id string) (*model.Attempt, error) {
	attempt := &model.Attempt{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id,
	).Scan(&attempt.ID, &attempt.UserID, &attempt.QuizID,
		&attempt.StartTime, &attempt.EndTime, &attempt.Result)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find attempt by ID: %w", err)
	}
	return attempt, nil
}

// CountByUserAndQuiz はユーザーの対象クイズに対する受験回数を返す。
func (r *PostgresAttemptRepo) CountByUserAndQuiz(ctx context.Context, userID, quizID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE user_id = $1 AND quiz_id = $2`,
		userID, quizID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}

// FindOngoing は指定時刻において進行中の受験を取得する。見つからない場合はnilを返す。
func (r *PostgresAttemptRepo) FindOngoing(ctx context.Context, userID, quizID string, now time.Time) (*model.Attempt, error) {
	attempt := &model.Attempt{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE user_id = $1 AND quiz_id = $2 AND start_time <= $3 AND $3 <= end_time
		 ORDER BY start_time DESC LIMIT 1`,
		userID, quizID, now,
	).Scan(&attempt.ID, &attempt.UserID, &attempt.QuizID,
		&attempt.StartTime, &attempt.EndTime, &attempt.Result)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ongoing attempt: %w", err)
	}
	return attempt, nil
}

// Create は受験を作成する。
func (r *PostgresAttemptRepo) Create(ctx context.Context, attempt *model.Attempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attempts (id, user_id, quiz_id, start_time, end_time, result)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.ID, attempt.UserID, attempt.QuizID,
		attempt.StartTime, attempt.EndTime, attempt.Result,
	)
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// StoreAnswer は回答を保存する。同一設問への再回答は上書きする。
func (r *PostgresAttemptRepo) StoreAnswer(ctx context.Context, answer *model.AttemptAnswer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attempt_answers (attempt_id, question_id, answer_ids, answer_text, is_correct, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (attempt_id, question_id)
		 DO UPDATE SET answer_ids = EXCLUDED.answer_ids, answer_text = EXCLUDED.answer_text,
		               is_correct = EXCLUDED.is_correct, answered_at = EXCLUDED.answered_at`,
		answer.AttemptID, answer.QuestionID, pq.Array(answer.AnswerIDs),
		answer.Text, answer.IsCorrect, answer.AnsweredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store answer: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AttemptRepository = (*PostgresAttemptRepo)(nil)
