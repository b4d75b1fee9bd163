package repository

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQLエラーコード
const (
	// pgUndefinedTable はテーブル未作成（42P01）。
	pgUndefinedTable = "42P01"
	// pgUniqueViolation は一意制約違反（23505）。
	pgUniqueViolation = "23505"
)

// isUndefinedTable はテーブル未作成エラーかを判定する。
// 読み取り系はこのエラーを「データなし」として扱い、呼び出し元を失敗させない。
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUndefinedTable
	}
	return false
}

// IsUniqueViolation は一意制約違反エラーかを判定する。
// サービス層が重複登録をドメインエラーに変換するために使用する。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return false
}
