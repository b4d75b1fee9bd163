// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, pacer, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidPermission  = "INVALID_PERMISSION"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeUserExists         = "USER_EXISTS"
	ErrCodeRegionNotSupported = "REGION_NOT_SUPPORTED"
	ErrCodeRegionNotFound     = "REGION_NOT_FOUND"
	ErrCodeRegionExists       = "REGION_EXISTS"
	ErrCodePacerAuthFailed    = "PACER_AUTH_FAILED"
	ErrCodeInvalidDateRange   = "INVALID_DATE_RANGE"
	ErrCodeInvalidFeedURL     = "INVALID_FEED_URL"
	ErrCodeFeedNotFound       = "FEED_NOT_FOUND"
	ErrCodeFeedExists         = "FEED_EXISTS"
	ErrCodeStorageFailure     = "STORAGE_FAILURE"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
// ゲートを通過できないリクエストにはデータを一切返さない。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Unauthorized",
		Category: "auth",
		Action:   "このページへのアクセス権限がありません。管理者に連絡してください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザー名とパスワードのどちらが誤っているかは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidPermissionError は無効な権限値エラーを生成する。
func NewInvalidPermissionError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPermission,
		Message:  fmt.Sprintf("無効な権限です: %s", value),
		Category: "validation",
		Action:   "権限には admin、edit、browse のいずれかを指定してください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", username),
		Category: "validation",
		Action:   "ユーザー名を確認してください。",
	}
}

// NewUserExistsError はユーザー重複エラーを生成する。
func NewUserExistsError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserExists,
		Message:  fmt.Sprintf("このユーザー名は既に登録されています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewRegionNotSupportedError はリージョン検証エラーを生成する。
// court_ids参照テーブルに存在しないリージョン名は登録を拒否する。
func NewRegionNotSupportedError(regionName string) *APIError {
	return &APIError{
		Code:     ErrCodeRegionNotSupported,
		Message:  fmt.Sprintf("このリージョンはPACERでサポートされていません: %s", regionName),
		Category: "validation",
		Action:   "court_ids参照テーブルに存在するリージョン名を指定してください。",
	}
}

// NewRegionNotFoundError はリージョン未検出エラーを生成する。
func NewRegionNotFoundError(id int) *APIError {
	return &APIError{
		Code:     ErrCodeRegionNotFound,
		Message:  fmt.Sprintf("指定されたリージョンが見つかりません: %d", id),
		Category: "validation",
		Action:   "リージョンIDを確認してください。",
	}
}

// NewRegionExistsError はリージョン重複エラーを生成する。
func NewRegionExistsError(regionName string) *APIError {
	return &APIError{
		Code:     ErrCodeRegionExists,
		Message:  fmt.Sprintf("このリージョンは既に登録されています: %s", regionName),
		Category: "validation",
		Action:   "登録済みリージョンの一覧を確認してください。",
	}
}

// NewPacerAuthFailedError はPACER認証失敗エラーを生成する。
// 検索とUPSERTは実行されず、事件は1件もロードされない。
func NewPacerAuthFailedError() *APIError {
	return &APIError{
		Code:     ErrCodePacerAuthFailed,
		Message:  "PACERへの認証に失敗したため、事件をロードできませんでした。",
		Category: "pacer",
		Action:   "PACER認証情報の設定を確認してください。",
	}
}

// NewInvalidDateRangeError は日付範囲の検証エラーを生成する。
func NewInvalidDateRangeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  fmt.Sprintf("無効な日付範囲です: %s", reason),
		Category: "validation",
		Action:   "日付はYYYY-MM-DD形式で、開始日は必須です。",
	}
}

// NewInvalidFeedURLError は無効なフィードURLエラーを生成する。
func NewInvalidFeedURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFeedURL,
		Message:  fmt.Sprintf("無効なフィードURLです: %s", reason),
		Category: "validation",
		Action:   "http:// または https:// で始まる公開URLを入力してください。",
	}
}

// NewFeedNotFoundError はフィード未検出エラーを生成する。
func NewFeedNotFoundError(id int) *APIError {
	return &APIError{
		Code:     ErrCodeFeedNotFound,
		Message:  fmt.Sprintf("指定されたフィードが見つかりません: %d", id),
		Category: "validation",
		Action:   "フィードIDを確認してください。",
	}
}

// NewFeedExistsError はフィード重複エラーを生成する。
func NewFeedExistsError(courtID string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedExists,
		Message:  fmt.Sprintf("この裁判所のフィードは既に登録されています: %s", courtID),
		Category: "validation",
		Action:   "登録済みフィードの一覧を確認してください。",
	}
}

// NewStorageFailureError は書き込み系ストレージ障害の汎用エラーを生成する。
// 読み取り系のテーブル未作成は「データなし」として扱い、このエラーは使用しない。
func NewStorageFailureError() *APIError {
	return &APIError{
		Code:     ErrCodeStorageFailure,
		Message:  "データの保存に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
