// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/testeam/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。emailの一意制約違反はそのまま返す
	// （IsUniqueViolationで判別できる）。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーのプロフィール情報（name, phone_number）を更新する。
	Update(ctx context.Context, user *model.User) error

	// UpdatePassword はユーザーのパスワードハッシュを更新する。
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するmemberships、tag_user、attemptsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// ListCompanies はユーザーが所属する企業一覧をロール付きで返す。
	ListCompanies(ctx context.Context, userID string) ([]model.UserCompany, error)
}

// CompanyRepository は企業データの永続化インターフェース。
type CompanyRepository interface {
	// ExistsByID は指定IDの企業が存在するかどうかを返す。
	ExistsByID(ctx context.Context, id string) (bool, error)

	// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Company, error)

	// Create は企業と作成者のOwnerメンバーシップを同一トランザクションで作成する。
	Create(ctx context.Context, company *model.Company, ownerID string) error

	// Update は企業情報を更新する。
	Update(ctx context.Context, company *model.Company) error

	// DeleteByID は指定IDの企業を削除する。
	// 関連するmembers、tags、quizzesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// ListMembers は企業のメンバー一覧をロール付きで返す。
	ListMembers(ctx context.Context, companyID string) ([]model.CompanyMember, error)

	// CreateMemberWithUser は新規ユーザー・メンバーシップ・タグ紐付けを
	// 同一トランザクションで作成する。いずれかが失敗した場合は全体をロールバックする。
	CreateMemberWithUser(ctx context.Context, user *model.User, member *model.CompanyMember, tagIDs []string) error

	// UpdateMemberRole はメンバーのロールを更新する。
	UpdateMemberRole(ctx context.Context, companyID, userID string, role model.Role) error

	// RemoveMember はメンバーシップを削除する。
	RemoveMember(ctx context.Context, companyID, userID string) error
}

// TagRepository はタグデータの永続化インターフェース。
type TagRepository interface {
	// FindByID は指定IDのタグを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Tag, error)

	// Create はタグを作成する。
	Create(ctx context.Context, tag *model.Tag) error

	// Update はタグ情報を更新する。
	Update(ctx context.Context, tag *model.Tag) error

	// DeleteByID は指定IDのタグを削除する。
	DeleteByID(ctx context.Context, id string) error

	// ListByCompany は企業のタグ一覧を返す。
	ListByCompany(ctx context.Context, companyID string) ([]model.Tag, error)

	// ListByUser はユーザーに付与されたタグ一覧を返す。
	ListByUser(ctx context.Context, userID string) ([]model.Tag, error)

	// ListByQuiz はクイズに設定されたタグ一覧を返す。
	ListByQuiz(ctx context.Context, quizID string) ([]model.Tag, error)

	// CountInCompany は指定タグIDのうち、指定企業に属するものの数を返す。
	// 受け取ったIDがすべて企業内のタグかどうかの検証に使用する。
	CountInCompany(ctx context.Context, companyID string, tagIDs []string) (int, error)

	// ReplaceUserTags はユーザーのタグ紐付けを置き換える。
	ReplaceUserTags(ctx context.Context, userID string, tagIDs []string) error

	// ReplaceQuizTags はクイズのタグ紐付けを置き換える。
	ReplaceQuizTags(ctx context.Context, quizID string, tagIDs []string) error
}

// QuizRepository はクイズデータの永続化インターフェース。
type QuizRepository interface {
	// ExistsByID は指定IDのクイズが存在するかどうかを返す。
	ExistsByID(ctx context.Context, id string) (bool, error)

	// FindByID は指定IDのクイズを設問・選択肢・タグ込みで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Quiz, error)

	// Create はクイズ・設問・選択肢・タグ紐付けを同一トランザクションで作成する。
	Create(ctx context.Context, quiz *model.Quiz) error

	// Update はクイズの基本情報を更新する。
	Update(ctx context.Context, quiz *model.Quiz) error

	// DeleteByID は指定IDのクイズを削除する。
	DeleteByID(ctx context.Context, id string) error

	// ListByCompany は企業のクイズ一覧を返す（設問は含まない）。
	ListByCompany(ctx context.Context, companyID string) ([]model.Quiz, error)

	// ListByCompanyForTags は企業のクイズのうち、指定タグのいずれかが
	// 設定されたものの一覧を返す。
	ListByCompanyForTags(ctx context.Context, companyID string, tagIDs []string) ([]model.Quiz, error)

	// FindQuestionByID は指定IDの設問を選択肢込みで取得する。見つからない場合はnilを返す。
	FindQuestionByID(ctx context.Context, questionID string) (*model.Question, error)
}

// AttemptRepository は受験データの永続化インターフェース。
type AttemptRepository interface {
	// FindByID は指定IDの受験を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Attempt, error)

	// CountByUserAndQuiz はユーザーの指定クイズに対する受験回数を返す。
	CountByUserAndQuiz(ctx context.Context, userID, quizID string) (int, error)

	// FindOngoing は指定時刻の時点で進行中の受験を返す。なければnilを返す。
	FindOngoing(ctx context.Context, userID, quizID string, now time.Time) (*model.Attempt, error)

	// Create は受験を作成する。
	Create(ctx context.Context, attempt *model.Attempt) error

	// StoreAnswer は設問への回答を保存する。同一設問への再回答は上書きする。
	StoreAnswer(ctx context.Context, answer *model.AttemptAnswer) error
}

// ResetCodeStore はパスワードリセットコードのTTL付きキーバリューストア。
// エントリは書き込み後TTL経過で自動的に失効する。
type ResetCodeStore interface {
	// Set はコードと対象メールアドレスの対応をTTL付きで保存する。
	Set(ctx context.Context, code, email string, ttl time.Duration) error

	// Get はコードに対応するメールアドレスを返す。
	// コードが存在しない（または失効済みの）場合は空文字を返す。
	Get(ctx context.Context, code string) (string, error)

	// Delete はコードを削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, code string) error
}
