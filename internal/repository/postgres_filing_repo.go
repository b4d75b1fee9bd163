package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/provendata/pacertrack/internal/model"
)

// PostgresFilingRepo はPostgreSQLを使用した提出イベントリポジトリ。
type PostgresFilingRepo struct {
	db *sql.DB
}

// NewPostgresFilingRepo はPostgresFilingRepoを生成する。
func NewPostgresFilingRepo(db *sql.DB) *PostgresFilingRepo {
	return &PostgresFilingRepo{db: db}
}

// ListByCourt は指定裁判所の提出イベントをpublished_at降順で返す。
// courtIDが空の場合は全裁判所分を返す。テーブル未作成の場合は空スライスを返す。
func (r *PostgresFilingRepo) ListByCourt(ctx context.Context, courtID string, limit int) ([]*model.Filing, error) {
	query := `SELECT id, court_id, entry_guid, case_number, title, link, published_at, fetched_at
	          FROM court_filings`
	args := []any{}
	if courtID != "" {
		query += ` WHERE court_id = $1`
		args = append(args, courtID)
	}
	query += ` ORDER BY published_at DESC NULLS LAST`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return []*model.Filing{}, nil
		}
		return nil, fmt.Errorf("提出イベント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	filings := []*model.Filing{}
	for rows.Next() {
		filing := &model.Filing{}
		var caseNumber, title, link sql.NullString
		var publishedAt sql.NullTime
		if err := rows.Scan(&filing.ID, &filing.CourtID, &filing.EntryGUID, &caseNumber, &title, &link, &publishedAt, &filing.FetchedAt); err != nil {
			return nil, fmt.Errorf("提出イベント行のスキャンに失敗しました: %w", err)
		}
		filing.CaseNumber = caseNumber.String
		filing.Title = title.String
		filing.Link = link.String
		if publishedAt.Valid {
			filing.PublishedAt = &publishedAt.Time
		}
		filings = append(filings, filing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("提出イベント一覧の走査に失敗しました: %w", err)
	}

	return filings, nil
}

// Exists は(court_id, entry_guid)の組が登録済みかを返す。
func (r *PostgresFilingRepo) Exists(ctx context.Context, courtID, entryGUID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM court_filings WHERE court_id = $1 AND entry_guid = $2)`,
		courtID, entryGUID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("提出イベントの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create は提出イベントを登録する。
func (r *PostgresFilingRepo) Create(ctx context.Context, filing *model.Filing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO court_filings (id, court_id, entry_guid, case_number, title, link, published_at, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		filing.ID, filing.CourtID, filing.EntryGUID, filing.CaseNumber, filing.Title, filing.Link, filing.PublishedAt, filing.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("提出イベントの登録に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FilingRepository = (*PostgresFilingRepo)(nil)
