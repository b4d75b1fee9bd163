package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/provendata/pacertrack/internal/model"
)

// mockUserRepo はUserRepositoryのモック実装
type mockUserRepo struct {
	users     map[string]*model.User
	createErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.users[username], nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	users := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		copied := *u
		users = append(users, &copied)
	}
	return users, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) UpdatePermission(ctx context.Context, username string, permission model.Permission) error {
	u, ok := m.users[username]
	if !ok {
		return model.NewUserNotFoundError(username)
	}
	u.Permission = permission
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, username string) error {
	if _, ok := m.users[username]; !ok {
		return model.NewUserNotFoundError(username)
	}
	delete(m.users, username)
	return nil
}

// mockSessionRepo はSessionRepositoryのモック実装
type mockSessionRepo struct {
	revoked []string
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error { return nil }

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error { return nil }

func (m *mockSessionRepo) DeleteByUsername(ctx context.Context, username string) error {
	m.revoked = append(m.revoked, username)
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestCreate_Success はユーザー登録とパスワードのハッシュ化を確認する
func TestCreate_Success(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := NewService(userRepo, &mockSessionRepo{}, newTestLogger())

	if err := svc.Create(context.Background(), "bob", "secret-password", "edit"); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	created := userRepo.users["bob"]
	if created == nil {
		t.Fatal("ユーザーが保存されていない")
	}
	if created.Permission != model.PermissionEdit {
		t.Errorf("Permission: got %s, want edit", created.Permission)
	}
	if created.PasswordHash == "secret-password" {
		t.Error("パスワードが平文のまま保存されている")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret-password")); err != nil {
		t.Errorf("保存されたハッシュがパスワードと照合できない: %v", err)
	}
}

// TestCreate_InvalidPermission は許可されていない権限値が拒否されることを確認する
func TestCreate_InvalidPermission(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockSessionRepo{}, newTestLogger())

	for _, perm := range []string{"superuser", "ADMIN", "", "owner"} {
		err := svc.Create(context.Background(), "bob", "secret", perm)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("Create(permission=%q): APIErrorが返るべき: %v", perm, err)
		}
		if apiErr.Code != model.ErrCodeInvalidPermission {
			t.Errorf("Create(permission=%q): エラーコード: got %s", perm, apiErr.Code)
		}
	}
}

// TestList_HidesPasswordHash は一覧応答にパスワードハッシュが含まれないことを確認する
func TestList_HidesPasswordHash(t *testing.T) {
	userRepo := newMockUserRepo()
	userRepo.users["alice"] = &model.User{
		Username:     "alice",
		PasswordHash: "$2a$10$xxxx",
		Permission:   model.PermissionAdmin,
	}
	svc := NewService(userRepo, &mockSessionRepo{}, newTestLogger())

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("件数: got %d, want 1", len(users))
	}
	if users[0].PasswordHash != "" {
		t.Error("パスワードハッシュが応答に含まれている")
	}
}

// TestUpdatePermission_RevokesSessions は権限変更時に既存セッションが
// 破棄されることを確認する
func TestUpdatePermission_RevokesSessions(t *testing.T) {
	userRepo := newMockUserRepo()
	userRepo.users["bob"] = &model.User{Username: "bob", Permission: model.PermissionBrowse}
	sessionRepo := &mockSessionRepo{}
	svc := NewService(userRepo, sessionRepo, newTestLogger())

	if err := svc.UpdatePermission(context.Background(), "bob", "admin"); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if userRepo.users["bob"].Permission != model.PermissionAdmin {
		t.Errorf("Permission: got %s, want admin", userRepo.users["bob"].Permission)
	}
	if len(sessionRepo.revoked) != 1 || sessionRepo.revoked[0] != "bob" {
		t.Errorf("セッション破棄: got %v, want [bob]", sessionRepo.revoked)
	}
}

// TestUpdatePermission_UserNotFound は存在しないユーザーでエラーになることを確認する
func TestUpdatePermission_UserNotFound(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockSessionRepo{}, newTestLogger())

	err := svc.UpdatePermission(context.Background(), "nobody", "admin")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: %v", err)
	}
	if apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("エラーコード: got %s", apiErr.Code)
	}
}

// TestDelete はユーザー削除とセッション破棄を確認する
func TestDelete(t *testing.T) {
	userRepo := newMockUserRepo()
	userRepo.users["bob"] = &model.User{Username: "bob", Permission: model.PermissionBrowse}
	sessionRepo := &mockSessionRepo{}
	svc := NewService(userRepo, sessionRepo, newTestLogger())

	if err := svc.Delete(context.Background(), "bob"); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if _, ok := userRepo.users["bob"]; ok {
		t.Error("ユーザーが削除されていない")
	}
	if len(sessionRepo.revoked) != 1 || sessionRepo.revoked[0] != "bob" {
		t.Errorf("セッション破棄: got %v, want [bob]", sessionRepo.revoked)
	}
}
