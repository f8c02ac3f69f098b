package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/testeam/internal/model"
)

// PostgresCompanyRepo はPostgreSQLを使用した企業リポジトリ。
type PostgresCompanyRepo struct {
	db *sql.DB
}

// NewPostgresCompanyRepo はPostgresCompanyRepoを生成する。
func NewPostgresCompanyRepo(db *sql.DB) *PostgresCompanyRepo {
	return &PostgresCompanyRepo{db: db}
}

// ExistsByID は指定IDの企業が存在するかどうかを返す。
func (r *PostgresCompanyRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check company existence: %w", err)
	}
	return exists, nil
}

// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
func (r *PostgresCompanyRepo) FindByID(ctx context.Context, id string) (*model.Company, error) {
	company := &model.Company{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, created_at FROM companies WHERE id = $1`, id,
	).Scan(&company.ID, &company.Title, &company.Description, &company.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company by ID: %w", err)
	}
	return company, nil
}

// Create は企業と作成者のOwnerメンバーシップを同一トランザクションで作成する。
func (r *PostgresCompanyRepo) Create(ctx context.Context, company *model.Company, ownerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO companies (id, title, description, created_at) VALUES ($1, $2, $3, $4)`,
		company.ID, company.Title, company.Description, company.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO company_members (company_id, user_id, role) VALUES ($1, $2, $3)`,
		company.ID, ownerID, model.RoleOwner,
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update は企業情報を更新する。
func (r *PostgresCompanyRepo) Update(ctx context.Context, company *model.Company) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE companies SET title = $1, description = $2 WHERE id = $3`,
		company.Title, company.Description, company.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの企業を削除する。
func (r *PostgresCompanyRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("company not found: %s", id)
	}
	return nil
}

// ListMembers は企業のメンバー一覧をロール付きで返す。
func (r *PostgresCompanyRepo) ListMembers(ctx context.Context, companyID string) ([]model.CompanyMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.company_id, m.user_id, m.role, u.name, u.email
		 FROM company_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.company_id = $1
		 ORDER BY u.name`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list company members: %w", err)
	}
	defer rows.Close()

	var members []model.CompanyMember
	for rows.Next() {
		var m model.CompanyMember
		if err := rows.Scan(&m.CompanyID, &m.UserID, &m.Role, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("failed to scan company member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate company members: %w", err)
	}
	return members, nil
}

// CreateMemberWithUser は新規ユーザー・メンバーシップ・タグ紐付けを
// 同一トランザクションで作成する。いずれかが失敗した場合は全体をロールバックする。
func (r *PostgresCompanyRepo) CreateMemberWithUser(ctx context.Context, user *model.User, member *model.CompanyMember, tagIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, phone_number, password_hash, auth0_registered, average_score, registered_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.Name, user.PhoneNumber,
		user.PasswordHash, user.Auth0Registered, user.AverageScore,
		user.RegisteredAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO company_members (company_id, user_id, role) VALUES ($1, $2, $3)`,
		member.CompanyID, member.UserID, member.Role,
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	for _, tagID := range tagIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tag_user (tag_id, user_id) VALUES ($1, $2)`,
			tagID, user.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert tag link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateMemberRole はメンバーのロールを更新する。
func (r *PostgresCompanyRepo) UpdateMemberRole(ctx context.Context, companyID, userID string, role model.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE company_members SET role = $1 WHERE company_id = $2 AND user_id = $3`,
		role, companyID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	return nil
}

// RemoveMember はメンバーシップを削除する。
func (r *PostgresCompanyRepo) RemoveMember(ctx context.Context, companyID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM company_members WHERE company_id = $1 AND user_id = $2`,
		companyID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CompanyRepository = (*PostgresCompanyRepo)(nil)
