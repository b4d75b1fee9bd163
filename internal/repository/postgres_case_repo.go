package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/provendata/pacertrack/internal/model"
)

// PostgresCaseRepo はPostgreSQLを使用した事件リポジトリ。
type PostgresCaseRepo struct {
	db *sql.DB
}

// NewPostgresCaseRepo はPostgresCaseRepoを生成する。
func NewPostgresCaseRepo(db *sql.DB) *PostgresCaseRepo {
	return &PostgresCaseRepo{db: db}
}

// List は事件をdate_filed降順で返す。limitが0以下の場合は全件を返す。
// テーブル未作成の場合は空スライスを返す。
func (r *PostgresCaseRepo) List(ctx context.Context, limit int) ([]*model.PacerCase, error) {
	query := `SELECT case_id, court_id, case_number, case_type, case_title, date_filed,
	                 jurisdiction_type, case_link, case_summary, parties, attorney,
	                 created_at, updated_at
	          FROM pacer_cases ORDER BY date_filed DESC NULLS LAST`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return []*model.PacerCase{}, nil
		}
		return nil, fmt.Errorf("事件一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	cases := []*model.PacerCase{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("事件一覧の走査に失敗しました: %w", err)
	}

	return cases, nil
}

// Upsert はcase_idをキーとした原子的なINSERT-ON-CONFLICT-UPDATEを実行する。
// 更新優先の2段階書き込みに存在した同時実行時の重複挿入の余地を、
// DBレベルの一意キーとON CONFLICTで閉じている。
// 戻り値は新規挿入ならtrue、既存行の上書きならfalse。
// xmax = 0 はINSERTで新規作成された行でのみ成り立つ。
func (r *PostgresCaseRepo) Upsert(ctx context.Context, c *model.PacerCase) (bool, error) {
	var inserted bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO pacer_cases (
		     case_id, court_id, case_number, case_type, case_title, date_filed,
		     jurisdiction_type, case_link, case_summary, parties, attorney,
		     created_at, updated_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		 ON CONFLICT (case_id) DO UPDATE SET
		     court_id          = EXCLUDED.court_id,
		     case_number       = EXCLUDED.case_number,
		     case_type         = EXCLUDED.case_type,
		     case_title        = EXCLUDED.case_title,
		     date_filed        = EXCLUDED.date_filed,
		     jurisdiction_type = EXCLUDED.jurisdiction_type,
		     case_link         = EXCLUDED.case_link,
		     case_summary      = EXCLUDED.case_summary,
		     parties           = EXCLUDED.parties,
		     attorney          = EXCLUDED.attorney,
		     updated_at        = now()
		 RETURNING (xmax = 0)`,
		c.CaseID, c.CourtID, c.CaseNumber, c.CaseType, c.CaseTitle, c.DateFiled,
		c.JurisdictionType, c.CaseLink, c.CaseSummary, c.Parties, c.Attorney,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("事件のUPSERTに失敗しました: %w", err)
	}
	return inserted, nil
}

// scanCase は1行分の事件データをスキャンする。
func scanCase(rows *sql.Rows) (*model.PacerCase, error) {
	c := &model.PacerCase{}
	var courtID, caseNumber, caseType, caseTitle, jurisdictionType, caseLink sql.NullString
	var dateFiled sql.NullTime
	var caseSummary, parties, attorney sql.NullString

	err := rows.Scan(
		&c.CaseID, &courtID, &caseNumber, &caseType, &caseTitle, &dateFiled,
		&jurisdictionType, &caseLink, &caseSummary, &parties, &attorney,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("事件行のスキャンに失敗しました: %w", err)
	}

	c.CourtID = courtID.String
	c.CaseNumber = caseNumber.String
	c.CaseType = caseType.String
	c.CaseTitle = caseTitle.String
	c.JurisdictionType = jurisdictionType.String
	c.CaseLink = caseLink.String
	if dateFiled.Valid {
		c.DateFiled = &dateFiled.Time
	}
	if caseSummary.Valid {
		c.CaseSummary = &caseSummary.String
	}
	if parties.Valid {
		c.Parties = &parties.String
	}
	if attorney.Valid {
		c.Attorney = &attorney.String
	}

	return c, nil
}

// compile-time interface check
var _ CaseRepository = (*PostgresCaseRepo)(nil)
