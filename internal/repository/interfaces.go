// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/provendata/pacertrack/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// List は全ユーザーをユーザー名昇順で返す。
	// テーブル未作成の場合は空スライスを返す。
	List(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成する。ユーザー名重複の場合はエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdatePermission は指定ユーザーの権限を更新する。
	// 対象が存在しない場合はエラーを返す。
	UpdatePermission(ctx context.Context, username string, permission model.Permission) error

	// Delete は指定ユーザーを削除する。関連セッションはCASCADE削除される。
	Delete(ctx context.Context, username string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUsername は指定ユーザーの全セッションを削除する。
	DeleteByUsername(ctx context.Context, username string) error
}

// RegionRepository はリージョンデータの永続化インターフェース。
type RegionRepository interface {
	// List は全リージョンをリージョン名昇順で返す。
	// テーブル未作成の場合は空スライスを返す。
	List(ctx context.Context) ([]*model.Region, error)

	// Create はリージョンを作成し、採番されたIDを返す。
	// リージョン名重複の場合はエラーを返す。
	Create(ctx context.Context, regionName string) (*model.Region, error)

	// Update は指定IDのリージョン名を更新する。対象が存在しない場合はエラーを返す。
	Update(ctx context.Context, id int, regionName string) error

	// Delete は指定IDのリージョンを削除する。
	// 既存の事件行は削除されない（カスケードなし）。
	Delete(ctx context.Context, id int) error
}

// CourtCodeRepository は外部提供のcourt_ids参照テーブルの読み取りインターフェース。
type CourtCodeRepository interface {
	// CourtIDByRegion はリージョン名に対応するcourt_idを返す。
	// 対応行が存在しない場合は空文字列を返す。
	CourtIDByRegion(ctx context.Context, regionName string) (string, error)

	// CountByRegion はリージョン名に一致する参照行数を返す。
	CountByRegion(ctx context.Context, regionName string) (int, error)
}

// CaseRepository は事件データの永続化インターフェース。
type CaseRepository interface {
	// List は事件をdate_filed降順で返す。limitが0以下の場合は全件を返す。
	// テーブル未作成の場合は空スライスを返す。
	List(ctx context.Context, limit int) ([]*model.PacerCase, error)

	// Upsert はcase_idをキーとした原子的なINSERT-ON-CONFLICT-UPDATEを実行する。
	// 新規挿入の場合はtrue、既存行の更新の場合はfalseを返す。
	Upsert(ctx context.Context, c *model.PacerCase) (inserted bool, err error)
}

// CourtFeedRepository は裁判所RSSフィード設定の永続化インターフェース。
type CourtFeedRepository interface {
	// List は全フィードをcourt_id昇順で返す。
	List(ctx context.Context) ([]*model.CourtFeed, error)

	// ListDue は取得対象のフィードをクレームして返す。
	// last_fetched_atがNULLまたはinterval前より古いフィードが対象で、
	// 返却と同時にlast_fetched_atを現在時刻へ進める。
	ListDue(ctx context.Context) ([]*model.CourtFeed, error)

	// Create はフィードを作成し、採番されたIDを返す。court_id重複の場合はエラーを返す。
	Create(ctx context.Context, courtID, feedURL string) (*model.CourtFeed, error)

	// Delete は指定IDのフィードを削除する。
	Delete(ctx context.Context, id int) error

	// UpdateFetchState はフェッチ後の状態（etag、last_modified、last_fetched_at）を更新する。
	UpdateFetchState(ctx context.Context, feed *model.CourtFeed) error
}

// FilingRepository はRSS由来の提出イベントの永続化インターフェース。
type FilingRepository interface {
	// ListByCourt は指定裁判所の提出イベントをpublished_at降順で返す。
	// courtIDが空の場合は全裁判所分を返す。テーブル未作成の場合は空スライスを返す。
	ListByCourt(ctx context.Context, courtID string, limit int) ([]*model.Filing, error)

	// Exists は(court_id, entry_guid)の組が登録済みかを返す。
	Exists(ctx context.Context, courtID, entryGUID string) (bool, error)

	// Create は提出イベントを登録する。
	Create(ctx context.Context, filing *model.Filing) error
}
