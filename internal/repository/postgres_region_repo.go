package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/provendata/pacertrack/internal/model"
)

// PostgresRegionRepo はPostgreSQLを使用したリージョンリポジトリ。
type PostgresRegionRepo struct {
	db *sql.DB
}

// NewPostgresRegionRepo はPostgresRegionRepoを生成する。
func NewPostgresRegionRepo(db *sql.DB) *PostgresRegionRepo {
	return &PostgresRegionRepo{db: db}
}

// List は全リージョンをリージョン名昇順で返す。
// テーブル未作成の場合は空スライスを返す。
func (r *PostgresRegionRepo) List(ctx context.Context) ([]*model.Region, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, region_name FROM regions ORDER BY region_name`,
	)
	if err != nil {
		if isUndefinedTable(err) {
			return []*model.Region{}, nil
		}
		return nil, fmt.Errorf("リージョン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	regions := []*model.Region{}
	for rows.Next() {
		region := &model.Region{}
		if err := rows.Scan(&region.ID, &region.RegionName); err != nil {
			return nil, fmt.Errorf("リージョン行のスキャンに失敗しました: %w", err)
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リージョン一覧の走査に失敗しました: %w", err)
	}

	return regions, nil
}

// Create はリージョンを作成し、採番されたIDを返す。
func (r *PostgresRegionRepo) Create(ctx context.Context, regionName string) (*model.Region, error) {
	region := &model.Region{RegionName: regionName}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO regions (region_name) VALUES ($1) RETURNING id`,
		regionName,
	).Scan(&region.ID)
	if err != nil {
		return nil, fmt.Errorf("リージョンの作成に失敗しました: %w", err)
	}
	return region, nil
}

// Update は指定IDのリージョン名を更新する。
func (r *PostgresRegionRepo) Update(ctx context.Context, id int, regionName string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE regions SET region_name = $1 WHERE id = $2`,
		regionName, id,
	)
	if err != nil {
		return fmt.Errorf("リージョンの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewRegionNotFoundError(id)
	}
	return nil
}

// Delete は指定IDのリージョンを削除する。既存の事件行には影響しない。
func (r *PostgresRegionRepo) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM regions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("リージョンの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewRegionNotFoundError(id)
	}
	return nil
}

// compile-time interface check
var _ RegionRepository = (*PostgresRegionRepo)(nil)
