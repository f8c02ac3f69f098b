package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/testeam/internal/model"
)

// PostgresTagRepo はPostgreSQLを使用したタグリポジトリ。
type PostgresTagRepo struct {
	db *sql.DB
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB) *PostgresTagRepo {
	return &PostgresTagRepo{db: db}
}

// FindByID は指定IDのタグを取得する。見つからない場合はnilを返す。
func (r *PostgresTagRepo) FindByID(ctx context.Context, id string) (*model.Tag, error) {
	tag := &model.Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, company_id, title, description FROM tags WHERE id = $1`, id,
	).Scan(&tag.ID, &tag.CompanyID, &tag.Title, &tag.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tag by ID: %w", err)
	}
	return tag, nil
}

// Create はタグを作成する。
func (r *PostgresTagRepo) Create(ctx context.Context, tag *model.Tag) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, company_id, title, description) VALUES ($1, $2, $3, $4)`,
		tag.ID, tag.CompanyID, tag.Title, tag.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	return nil
}

// Update はタグ情報を更新する。
func (r *PostgresTagRepo) Update(ctx context.Context, tag *model.Tag) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tags SET title = $1, description = $2 WHERE id = $3`,
		tag.Title, tag.Description, tag.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tag: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのタグを削除する。
func (r *PostgresTagRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("tag not found: %s", id)
	}
	return nil
}

func (r *PostgresTagRepo) listTags(ctx context.Context, query string, arg any) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Title, &t.Description); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

// ListByCompany は企業のタグ一覧を返す。
func (r *PostgresTagRepo) ListByCompany(ctx context.Context, companyID string) ([]model.Tag, error) {
	return r.listTags(ctx,
		`SELECT id, company_id, title, description FROM tags WHERE company_id = $1 ORDER BY title`,
		companyID)
}

// ListByUser はユーザーに付与されたタグ一覧を返す。
func (r *PostgresTagRepo) ListByUser(ctx context.Context, userID string) ([]model.Tag, error) {
	return r.listTags(ctx,
		`SELECT t.id, t.company_id, t.title, t.description
		 FROM tag_user tu JOIN tags t ON t.id = tu.tag_id
		 WHERE tu.user_id = $1 ORDER BY t.title`,
		userID)
}

// ListByQuiz はクイズに設定されたタグ一覧を返す。
func (r *PostgresTagRepo) ListByQuiz(ctx context.Context, quizID string) ([]model.Tag, error) {
	return r.listTags(ctx,
		`SELECT t.id, t.company_id, t.title, t.description
		 FROM tag_quiz tq JOIN tags t ON t.id = tq.tag_id
		 WHERE tq.quiz_id = $1 ORDER BY t.title`,
		quizID)
}

// CountInCompany は指定タグIDのうち、指定企業に属するものの数を返す。
func (r *PostgresTagRepo) CountInCompany(ctx context.Context, companyID string, tagIDs []string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE company_id = $1 AND id = ANY($2)`,
		companyID, pq.Array(tagIDs),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tags in company: %w", err)
	}
	return count, nil
}

// ReplaceUserTags はユーザーのタグ紐付けを置き換える。
func (r *PostgresTagRepo) ReplaceUserTags(ctx context.Context, userID string, tagIDs []string) error {
	return r.replaceLinks(ctx, "tag_user", "user_id", userID, tagIDs)
}

// ReplaceQuizTags はクイズのタグ紐付けを置き換える。
func (r *PostgresTagRepo) ReplaceQuizTags(ctx context.Context, quizID string, tagIDs []string) error {
	return r.replaceLinks(ctx, "tag_quiz", "quiz_id", quizID, tagIDs)
}

func (r *PostgresTagRepo) replaceLinks(ctx context.Context, table, column, ownerID string, tagIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, column), ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete tag links: %w", err)
	}

	for _, tagID := range tagIDs {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (tag_id, %s) VALUES ($1, $2)`, table, column),
			tagID, ownerID)
		if err != nil {
			return fmt.Errorf("failed to insert tag link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TagRepository = (*PostgresTagRepo)(nil)
