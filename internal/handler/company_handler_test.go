package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/testeam/internal/company"
	"github.com/hitoshi/testeam/internal/model"
)

// --- モック定義 ---

type mockCompanyService struct {
	createFn       func(ctx context.Context, ownerID, title, description string) (*model.Company, error)
	listForUserFn  func(ctx context.Context, userID string) ([]model.UserCompany, error)
	getFn          func(ctx context.Context, userID, companyID string) (*model.Company, error)
	updateFn       func(ctx context.Context, userID, companyID string, title, description *string) (*model.Company, error)
	deleteFn       func(ctx context.Context, userID, companyID string) error
	listMembersFn  func(ctx context.Context, userID, companyID string) ([]model.CompanyMember, error)
	addMemberFn    func(ctx context.Context, callerID, companyID string, input company.AddMemberInput) (*model.CompanyMember, error)
	updateMemberFn func(ctx context.Context, callerID, companyID, targetID string, input company.UpdateMemberInput) error
	removeMemberFn func(ctx context.Context, callerID, companyID, targetID string) error
}

func (m *mockCompanyService) Create(ctx context.Context, ownerID, title, description string) (*model.Company, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, title, description)
	}
	return nil, nil
}

func (m *mockCompanyService) ListForUser(ctx context.Context, userID string) ([]model.UserCompany, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockCompanyService) Get(ctx context.Context, userID, companyID string) (*model.Company, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, companyID)
	}
	return nil, nil
}

func (m *mockCompanyService) Update(ctx context.Context, userID, companyID string, title, description *string) (*model.Company, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, companyID, title, description)
	}
	return nil, nil
}

func (m *mockCompanyService) Delete(ctx context.Context, userID, companyID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, companyID)
	}
	return nil
}

func (m *mockCompanyService) ListMembers(ctx context.Context, userID, companyID string) ([]model.CompanyMember, error) {
	if m.listMembersFn != nil {
		return m.listMembersFn(ctx, userID, companyID)
	}
	return nil, nil
}

func (m *mockCompanyService) AddMember(ctx context.Context, callerID, companyID string, input company.AddMemberInput) (*model.CompanyMember, error) {
	if m.addMemberFn != nil {
		return m.addMemberFn(ctx, callerID, companyID, input)
	}
	return nil, nil
}

func (m *mockCompanyService) UpdateMember(ctx context.Context, callerID, companyID, targetID string, input company.UpdateMemberInput) error {
	if m.updateMemberFn != nil {
		return m.updateMemberFn(ctx, callerID, companyID, targetID, input)
	}
	return nil
}

func (m *mockCompanyService) RemoveMember(ctx context.Context, callerID, companyID, targetID string) error {
	if m.removeMemberFn != nil {
		return m.removeMemberFn(ctx, callerID, companyID, targetID)
	}
	return nil
}

// --- テスト ---

func TestCompanyHandler_Create_ReturnsCreatedCompany(t *testing.T) {
	svc := &mockCompanyService{
		createFn: func(ctx context.Context, ownerID, title, description string) (*model.Company, error) {
			if ownerID != "user-1" {
				t.Errorf("ownerID = %q, want %q", ownerID, "user-1")
			}
			return &model.Company{ID: "company-1", Title: title, Description: description}, nil
		},
	}
	h := NewCompanyHandler(svc)

	body := `{"title": "Acme", "description": "Testing company"}`
	req := withClaims(httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(body)), "user-1")
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got companyResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if got.ID != "company-1" {
		t.Errorf("id = %q, want %q", got.ID, "company-1")
	}
	if got.Title != "Acme" {
		t.Errorf("title = %q, want %q", got.Title, "Acme")
	}
}

func TestCompanyHandler_List_ReturnsUserCompanies(t *testing.T) {
	svc := &mockCompanyService{
		listForUserFn: func(ctx context.Context, userID string) ([]model.UserCompany, error) {
			return []model.UserCompany{
				{CompanyID: "company-1", Title: "Acme", Role: model.RoleOwner},
				{CompanyID: "company-2", Title: "Globex", Role: model.RoleEmployee},
			}, nil
		},
	}
	h := NewCompanyHandler(svc)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/companies", nil), "user-1")
	w := httptest.NewRecorder()

	h.List(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []userCompanyResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Role != "owner" {
		t.Errorf("companies[0].role = %q, want %q", got[0].Role, "owner")
	}
}

func TestCompanyHandler_Get_Outsider_ReturnsForbidden(t *testing.T) {
	svc := &mockCompanyService{
		getFn: func(ctx context.Context, userID, companyID string) (*model.Company, error) {
			return nil, model.NewPermissionDeniedError()
		},
	}
	h := NewCompanyHandler(svc)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/companies/company-1", nil), "outsider-1")
	req = withChiURLParam(req, "id", "company-1")
	w := httptest.NewRecorder()

	h.Get(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}

	var got struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if got.Detail != "Forbidden" {
		t.Errorf("detail = %q, want %q", got.Detail, "Forbidden")
	}
}

func TestCompanyHandler_AddMember_PassesInput(t *testing.T) {
	svc := &mockCompanyService{
		addMemberFn: func(ctx context.Context, callerID, companyID string, input company.AddMemberInput) (*model.CompanyMember, error) {
			if companyID != "company-1" {
				t.Errorf("companyID = %q, want %q", companyID, "company-1")
			}
			if input.Role != "tester" {
				t.Errorf("input.Role = %q, want %q", input.Role, "tester")
			}
			if len(input.TagIDs) != 1 || input.TagIDs[0] != "tag-1" {
				t.Errorf("input.TagIDs = %v, want [tag-1]", input.TagIDs)
			}
			return &model.CompanyMember{
				UserID: "user-2",
				Name:   input.Name,
				Email:  input.Email,
				Role:   model.RoleTester,
			}, nil
		},
	}
	h := NewCompanyHandler(svc)

	body := `{"email": "bob@example.com", "name": "Bob", "password": "passw0rd123", "role": "tester", "tag_ids": ["tag-1"]}`
	req := withClaims(httptest.NewRequest(http.MethodPost, "/companies/company-1/members", strings.NewReader(body)), "user-1")
	req = withChiURLParam(req, "id", "company-1")
	w := httptest.NewRecorder()

	h.AddMember(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got memberResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if got.UserID != "user-2" {
		t.Errorf("user_id = %q, want %q", got.UserID, "user-2")
	}
	if got.Role != "tester" {
		t.Errorf("role = %q, want %q", got.Role, "tester")
	}
}

func TestCompanyHandler_UpdateMember_PassesURLParams(t *testing.T) {
	var gotCompanyID, gotTargetID string
	svc := &mockCompanyService{
		updateMemberFn: func(ctx context.Context, callerID, companyID, targetID string, input company.UpdateMemberInput) error {
			gotCompanyID = companyID
			gotTargetID = targetID
			return nil
		},
	}
	h := NewCompanyHandler(svc)

	body := `{"role": "admin"}`
	req := withClaims(httptest.NewRequest(http.MethodPatch, "/companies/company-1/members/user-2", strings.NewReader(body)), "user-1")
	req = withChiURLParam(req, "id", "company-1")
	req = withChiURLParam(req, "userID", "user-2")
	w := httptest.NewRecorder()

	h.UpdateMember(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if gotCompanyID != "company-1" {
		t.Errorf("companyID = %q, want %q", gotCompanyID, "company-1")
	}
	if gotTargetID != "user-2" {
		t.Errorf("targetID = %q, want %q", gotTargetID, "user-2")
	}
}

func TestCompanyHandler_RemoveMember_ReturnsNoContent(t *testing.T) {
	svc := &mockCompanyService{
		removeMemberFn: func(ctx context.Context, callerID, companyID, targetID string) error {
			return nil
		},
	}
	h := NewCompanyHandler(svc)

	req := withClaims(httptest.NewRequest(http.MethodDelete, "/companies/company-1/members/user-2", nil), "user-1")
	req = withChiURLParam(req, "id", "company-1")
	req = withChiURLParam(req, "userID", "user-2")
	w := httptest.NewRecorder()

	h.RemoveMember(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
}

func TestCompanyHandler_Delete_OwnerTarget_ReturnsBadRequest(t *testing.T) {
	svc := &mockCompanyService{
		deleteFn: func(ctx context.Context, userID, companyID string) error {
			return model.NewValidationError("owner cannot be removed", "")
		},
	}
	h := NewCompanyHandler(svc)

	req := withClaims(httptest.NewRequest(http.MethodDelete, "/companies/company-1", nil), "user-1")
	req = withChiURLParam(req, "id", "company-1")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
