// Package permission は企業メンバーシップに基づく権限判定を提供する。
package permission

import "github.com/hitoshi/testeam/internal/model"

// MemberOf はメンバー一覧からユーザーのメンバーシップを返す。存在しない場合はnil。
func MemberOf(members []model.CompanyMember, userID string) *model.CompanyMember {
	for i := range members {
		if members[i].UserID == userID {
			return &members[i]
		}
	}
	return nil
}

// IsMember はユーザーが企業のメンバーかどうかを返す。
func IsMember(members []model.CompanyMember, userID string) bool {
	return MemberOf(members, userID) != nil
}

// HasRole はユーザーが指定ロールのいずれかを持つメンバーかどうかを返す。
// ロールを指定しない場合はメンバーシップのみを判定する。
func HasRole(members []model.CompanyMember, userID string, roles ...model.Role) bool {
	member := MemberOf(members, userID)
	if member == nil {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if member.Role == role {
			return true
		}
	}
	return false
}

// CanManageMembers はメンバー管理（追加・更新・削除）が可能なロールかどうかを返す。
func CanManageMembers(members []model.CompanyMember, userID string) bool {
	return HasRole(members, userID, model.RoleOwner, model.RoleAdmin)
}

// CanManageQuizzes はクイズとタグの管理が可能なロールかどうかを返す。
func CanManageQuizzes(members []model.CompanyMember, userID string) bool {
	return HasRole(members, userID, model.RoleOwner, model.RoleAdmin, model.RoleTester)
}
