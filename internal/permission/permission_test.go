package permission

import (
	"testing"

	"github.com/hitoshi/testeam/internal/model"
)

func testMembers() []model.CompanyMember {
	return []model.CompanyMember{
		{CompanyID: "company-1", UserID: "owner-1", Role: model.RoleOwner},
		{CompanyID: "company-1", UserID: "admin-1", Role: model.RoleAdmin},
		{CompanyID: "company-1", UserID: "tester-1", Role: model.RoleTester},
		{CompanyID: "company-1", UserID: "employee-1", Role: model.RoleEmployee},
	}
}

// TestMemberOf はメンバーシップの検索を検証する。
func TestMemberOf(t *testing.T) {
	members := testMembers()

	member := MemberOf(members, "admin-1")
	if member == nil {
		t.Fatal("expected member, got nil")
	}
	if member.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", member.Role, model.RoleAdmin)
	}

	if MemberOf(members, "outsider") != nil {
		t.Error("expected nil for non-member")
	}
}

// TestIsMember はメンバー判定を検証する。
func TestIsMember(t *testing.T) {
	members := testMembers()

	if !IsMember(members, "employee-1") {
		t.Error("expected employee-1 to be a member")
	}
	if IsMember(members, "outsider") {
		t.Error("expected outsider not to be a member")
	}
	if IsMember(nil, "owner-1") {
		t.Error("expected no membership in empty list")
	}
}

// TestHasRole はロール判定を検証する。
func TestHasRole(t *testing.T) {
	members := testMembers()

	if !HasRole(members, "owner-1", model.RoleOwner) {
		t.Error("expected owner-1 to have owner role")
	}
	if HasRole(members, "employee-1", model.RoleOwner, model.RoleAdmin) {
		t.Error("expected employee-1 not to have owner/admin role")
	}
	if HasRole(members, "outsider", model.RoleOwner, model.RoleAdmin, model.RoleTester, model.RoleEmployee) {
		t.Error("expected outsider to have no role")
	}

	// ロール指定なしはメンバーシップのみを判定する
	if !HasRole(members, "employee-1") {
		t.Error("expected member to pass an unrestricted check")
	}
	if HasRole(members, "outsider") {
		t.Error("expected outsider to fail an unrestricted check")
	}
}

// TestCanManageMembers はメンバー管理権限のロール別判定を検証する。
func TestCanManageMembers(t *testing.T) {
	members := testMembers()

	tests := []struct {
		userID string
		want   bool
	}{
		{userID: "owner-1", want: true},
		{userID: "admin-1", want: true},
		{userID: "tester-1", want: false},
		{userID: "employee-1", want: false},
		{userID: "outsider", want: false},
	}

	for _, tt := range tests {
		if got := CanManageMembers(members, tt.userID); got != tt.want {
			t.Errorf("CanManageMembers(%q) = %v, want %v", tt.userID, got, tt.want)
		}
	}
}

// TestCanManageQuizzes はクイズ管理権限のロール別判定を検証する。
func TestCanManageQuizzes(t *testing.T) {
	members := testMembers()

	tests := []struct {
		userID string
		want   bool
	}{
		{userID: "owner-1", want: true},
		{userID: "admin-1", want: true},
		{userID: "tester-1", want: true},
		{userID: "employee-1", want: false},
		{userID: "outsider", want: false},
	}

	for _, tt := range tests {
		if got := CanManageQuizzes(members, tt.userID); got != tt.want {
			t.Errorf("CanManageQuizzes(%q) = %v, want %v", tt.userID, got, tt.want)
		}
	}
}
