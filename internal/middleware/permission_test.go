package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/provendata/pacertrack/internal/model"
)

func requestAs(permission model.Permission) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	ctx := ContextWithUser(req.Context(), &model.User{
		Username:   "tester",
		Permission: permission,
	})
	return req.WithContext(ctx)
}

// TestRequirePermission_AdminOnly は管理者専用ゲートの通過と拒否を確認する
func TestRequirePermission_AdminOnly(t *testing.T) {
	gate := RequirePermission(model.PermissionAdmin)

	tests := []struct {
		permission model.Permission
		wantStatus int
	}{
		{model.PermissionAdmin, http.StatusOK},
		{model.PermissionEdit, http.StatusForbidden},
		{model.PermissionBrowse, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.permission), func(t *testing.T) {
			handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, requestAs(tt.permission))

			if rec.Code != tt.wantStatus {
				t.Errorf("ステータス: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

// TestRequirePermission_CasePages は事件ページゲート（全権限許可）を確認する
func TestRequirePermission_CasePages(t *testing.T) {
	gate := RequirePermission(model.PermissionAdmin, model.PermissionEdit, model.PermissionBrowse)

	for _, perm := range []model.Permission{model.PermissionAdmin, model.PermissionEdit, model.PermissionBrowse} {
		t.Run(string(perm), func(t *testing.T) {
			handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, requestAs(perm))

			if rec.Code != http.StatusOK {
				t.Errorf("ステータス: got %d, want 200", rec.Code)
			}
		})
	}
}

// TestRequirePermission_ForbiddenBody は拒否レスポンスにデータが含まれず
// Forbiddenエラーのみが返ることを確認する
func TestRequirePermission_ForbiddenBody(t *testing.T) {
	gate := RequirePermission(model.PermissionAdmin)
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("後段のハンドラが呼ばれてはいけない")
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, requestAs(model.PermissionBrowse))

	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスボディのパースに失敗: %v", err)
	}
	if body.Code != model.ErrCodeForbidden {
		t.Errorf("エラーコード: got %s, want %s", body.Code, model.ErrCodeForbidden)
	}
	if body.Message != "Unauthorized" {
		t.Errorf("メッセージ: got %s, want Unauthorized", body.Message)
	}
}

// TestRequirePermission_NoUser は未認証コンテキストで401が返ることを確認する
func TestRequirePermission_NoUser(t *testing.T) {
	gate := RequirePermission(model.PermissionAdmin)
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("後段のハンドラが呼ばれてはいけない")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ステータス: got %d, want 401", rec.Code)
	}
}
