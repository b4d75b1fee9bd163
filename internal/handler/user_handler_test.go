package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/provendata/pacertrack/internal/model"
)

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	listFn             func(ctx context.Context) ([]*model.User, error)
	createFn           func(ctx context.Context, username, password, permission string) error
	updatePermissionFn func(ctx context.Context, username, permission string) error
	deleteFn           func(ctx context.Context, username string) error
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) Create(ctx context.Context, username, password, permission string) error {
	if m.createFn != nil {
		return m.createFn(ctx, username, password, permission)
	}
	return nil
}

func (m *mockUserService) UpdatePermission(ctx context.Context, username, permission string) error {
	if m.updatePermissionFn != nil {
		return m.updatePermissionFn(ctx, username, permission)
	}
	return nil
}

func (m *mockUserService) Delete(ctx context.Context, username string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, username)
	}
	return nil
}

func TestUserHandler_List(t *testing.T) {
	svc := &mockUserService{
		listFn: func(ctx context.Context) ([]*model.User, error) {
			return []*model.User{
				{Username: "alice", Permission: model.PermissionAdmin},
				{Username: "bob", Permission: model.PermissionBrowse},
			}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result []map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2", len(result))
	}
	if result[0]["username"] != "alice" || result[0]["permission"] != "admin" {
		t.Errorf("result[0] = %v, want alice/admin", result[0])
	}
	// パスワードハッシュはレスポンスに含めない
	if _, exists := result[0]["password_hash"]; exists {
		t.Error("レスポンスにパスワードハッシュを含めるべきでない")
	}
}

func TestUserHandler_Create_Success(t *testing.T) {
	svc := &mockUserService{
		createFn: func(ctx context.Context, username, password, permission string) error {
			if username != "carol" || password != "pw" || permission != "edit" {
				t.Errorf("got %q/%q/%q, want carol/pw/edit", username, password, permission)
			}
			return nil
		},
	}
	h := NewUserHandler(svc)

	body := `{"username": "carol", "password": "pw", "permission": "edit"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestUserHandler_Create_Duplicate(t *testing.T) {
	svc := &mockUserService{
		createFn: func(ctx context.Context, username, password, permission string) error {
			return model.NewUserExistsError(username)
		},
	}
	h := NewUserHandler(svc)

	body := `{"username": "alice", "password": "pw", "permission": "edit"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeUserExists {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeUserExists)
	}
}

func TestUserHandler_Create_InvalidPermission(t *testing.T) {
	svc := &mockUserService{
		createFn: func(ctx context.Context, username, password, permission string) error {
			return model.NewInvalidPermissionError(permission)
		},
	}
	h := NewUserHandler(svc)

	body := `{"username": "carol", "password": "pw", "permission": "superuser"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUserHandler_UpdatePermission(t *testing.T) {
	svc := &mockUserService{
		updatePermissionFn: func(ctx context.Context, username, permission string) error {
			if username != "bob" || permission != "edit" {
				t.Errorf("got %q/%q, want bob/edit", username, permission)
			}
			return nil
		},
	}
	h := NewUserHandler(svc)

	body := `{"permission": "edit"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/users/bob", bytes.NewBufferString(body))
	req = withChiURLParam(req, "username", "bob")
	w := httptest.NewRecorder()

	h.UpdatePermission(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestUserHandler_UpdatePermission_NotFound(t *testing.T) {
	svc := &mockUserService{
		updatePermissionFn: func(ctx context.Context, username, permission string) error {
			return model.NewUserNotFoundError(username)
		},
	}
	h := NewUserHandler(svc)

	body := `{"permission": "edit"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/users/ghost", bytes.NewBufferString(body))
	req = withChiURLParam(req, "username", "ghost")
	w := httptest.NewRecorder()

	h.UpdatePermission(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	var deleted string
	svc := &mockUserService{
		deleteFn: func(ctx context.Context, username string) error {
			deleted = username
			return nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/bob", nil)
	req = withChiURLParam(req, "username", "bob")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deleted != "bob" {
		t.Errorf("deleted = %q, want %q", deleted, "bob")
	}
}
