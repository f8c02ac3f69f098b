package model

import (
	"fmt"
	"time"
)

// Role は企業内でのメンバーのロールを表す閉じた列挙型。
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleTester   Role = "tester"
	RoleEmployee Role = "employee"
)

// ParseRole は文字列をRoleに変換する。未知の値はエラーを返す。
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleTester, RoleEmployee:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// AssignableRoles はメンバー追加・更新時に指定可能なロール。
// Ownerは企業作成時に作成者へ一度だけ割り当てられ、以後変更できない。
var AssignableRoles = []Role{RoleAdmin, RoleTester, RoleEmployee}

// IsAssignable はメンバー追加・更新時に指定可能なロールかどうかを返す。
func (r Role) IsAssignable() bool {
	for _, role := range AssignableRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Company は企業を表す。クイズ・タグ・メンバーの所有単位。
type Company struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
}

// CompanyMember は企業とユーザーのメンバーシップを表す。
// (CompanyID, UserID) の組は一意で、企業ごとにOwnerはちょうど1人存在する。
type CompanyMember struct {
	CompanyID string
	UserID    string
	Role      Role
	Name      string
	Email     string
}
