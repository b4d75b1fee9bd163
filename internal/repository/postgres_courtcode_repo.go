package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresCourtCodeRepo は外部提供のcourt_ids参照テーブルの読み取り実装。
// このテーブルは読み取り専用で、アプリケーションからの書き込みは行わない。
type PostgresCourtCodeRepo struct {
	db *sql.DB
}

// NewPostgresCourtCodeRepo はPostgresCourtCodeRepoを生成する。
func NewPostgresCourtCodeRepo(db *sql.DB) *PostgresCourtCodeRepo {
	return &PostgresCourtCodeRepo{db: db}
}

// CourtIDByRegion はリージョン名に対応するcourt_idを返す。
// 対応行が存在しない場合、およびテーブル未作成の場合は空文字列を返す。
func (r *PostgresCourtCodeRepo) CourtIDByRegion(ctx context.Context, regionName string) (string, error) {
	var courtID string
	err := r.db.QueryRowContext(ctx,
		`SELECT court_id FROM court_ids WHERE region = $1 LIMIT 1`,
		regionName,
	).Scan(&courtID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		if isUndefinedTable(err) {
			return "", nil
		}
		return "", fmt.Errorf("court_idの検索に失敗しました: %w", err)
	}

	return courtID, nil
}

// CountByRegion はリージョン名に一致する参照行数を返す。
// テーブル未作成の場合は0を返す。
func (r *PostgresCourtCodeRepo) CountByRegion(ctx context.Context, regionName string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM court_ids WHERE region = $1`,
		regionName,
	).Scan(&count)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("court_idsのカウントに失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ CourtCodeRepository = (*PostgresCourtCodeRepo)(nil)
