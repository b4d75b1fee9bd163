// Package model はドメインモデルを定義する。
package model

import "time"

// Permission はユーザーの権限レベルを表す閉じた列挙型。
// 暗黙の文字列比較の代わりに、型付き定数とセットメンバーシップ判定を使用する。
type Permission string

const (
	// PermissionAdmin は管理ページ（ユーザー・リージョンCRUD）へのアクセスを許可する。
	PermissionAdmin Permission = "admin"
	// PermissionEdit は事件閲覧ページへのアクセスを許可する。
	PermissionEdit Permission = "edit"
	// PermissionBrowse は事件閲覧ページへの読み取り専用アクセスを許可する。
	PermissionBrowse Permission = "browse"
)

// ParsePermission は文字列をPermissionに変換する。
// 列挙に含まれない値の場合はfalseを返す。
func ParsePermission(s string) (Permission, bool) {
	switch Permission(s) {
	case PermissionAdmin, PermissionEdit, PermissionBrowse:
		return Permission(s), true
	default:
		return "", false
	}
}

// In は自身がallowedのいずれかに一致するかを判定する。
// ページごとの権限ゲートで使用する。権限レベル間に順序関係は定義しない。
func (p Permission) In(allowed ...Permission) bool {
	for _, a := range allowed {
		if p == a {
			return true
		}
	}
	return false
}

// User はサービス利用ユーザーを表す。
// usernameが一意キーであり、パスワードは一方向ハッシュのみを保持する。
type User struct {
	Username     string
	PasswordHash string
	Permission   Permission
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	Username  string
	ExpiresAt time.Time
	CreatedAt time.Time
}
