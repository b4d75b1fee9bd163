package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/provendata/pacertrack/internal/model"
)

// feedQuerier はSQLクエリ実行を抽象化するインターフェース。
// *sql.DB を受け付けることができる。
type feedQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresCourtFeedRepo はPostgreSQLを使用した裁判所RSSフィードリポジトリ。
type PostgresCourtFeedRepo struct {
	db       feedQuerier
	interval time.Duration // 再取得までの最小間隔
}

// NewPostgresCourtFeedRepo はPostgresCourtFeedRepoを生成する。
// intervalはフィードの再取得間隔を指定する。
func NewPostgresCourtFeedRepo(db *sql.DB, interval time.Duration) *PostgresCourtFeedRepo {
	return &PostgresCourtFeedRepo{db: db, interval: interval}
}

// List は全フィードをcourt_id昇順で返す。
// テーブル未作成の場合は空スライスを返す。
func (r *PostgresCourtFeedRepo) List(ctx context.Context) ([]*model.CourtFeed, error) {
	return r.list(ctx,
		`SELECT id, court_id, feed_url, etag, last_modified, last_fetched_at
		 FROM court_feeds ORDER BY court_id`,
	)
}

// ListDue は取得対象のフィードをクレームして返す。
// last_fetched_atがNULL（未取得）またはinterval前より古いフィードが対象。
// 単一のUPDATE文でlast_fetched_atを現在時刻へ進めるため、
// クレームは原子的に行われ、別ワーカーの次回判定からも外れる。
// サブクエリのFOR UPDATE SKIP LOCKEDで同時実行中のクレームを読み飛ばす。
func (r *PostgresCourtFeedRepo) ListDue(ctx context.Context) ([]*model.CourtFeed, error) {
	return r.list(ctx,
		`UPDATE court_feeds
		 SET last_fetched_at = now()
		 WHERE id IN (
		     SELECT id FROM court_feeds
		     WHERE last_fetched_at IS NULL OR last_fetched_at <= now() - $1::interval
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, court_id, feed_url, etag, last_modified, last_fetched_at`,
		fmt.Sprintf("%d seconds", int(r.interval.Seconds())),
	)
}

// Create はフィードを作成し、採番されたIDを返す。
func (r *PostgresCourtFeedRepo) Create(ctx context.Context, courtID, feedURL string) (*model.CourtFeed, error) {
	feed := &model.CourtFeed{CourtID: courtID, FeedURL: feedURL}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO court_feeds (court_id, feed_url) VALUES ($1, $2) RETURNING id`,
		courtID, feedURL,
	).Scan(&feed.ID)
	if err != nil {
		return nil, fmt.Errorf("フィードの作成に失敗しました: %w", err)
	}
	return feed, nil
}

// Delete は指定IDのフィードを削除する。
func (r *PostgresCourtFeedRepo) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM court_feeds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("フィードの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewFeedNotFoundError(id)
	}
	return nil
}

// UpdateFetchState はフェッチ後の状態を更新する。
func (r *PostgresCourtFeedRepo) UpdateFetchState(ctx context.Context, feed *model.CourtFeed) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE court_feeds
		 SET etag = $1, last_modified = $2, last_fetched_at = $3
		 WHERE id = $4`,
		feed.ETag, feed.LastModified, feed.LastFetchedAt, feed.ID,
	)
	if err != nil {
		return fmt.Errorf("フィード状態の更新に失敗しました: %w", err)
	}
	return nil
}

// list はフィードの検索クエリを実行する共通部。
func (r *PostgresCourtFeedRepo) list(ctx context.Context, query string, args ...any) ([]*model.CourtFeed, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return []*model.CourtFeed{}, nil
		}
		return nil, fmt.Errorf("フィード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	feeds := []*model.CourtFeed{}
	for rows.Next() {
		feed := &model.CourtFeed{}
		var lastFetchedAt sql.NullTime
		if err := rows.Scan(&feed.ID, &feed.CourtID, &feed.FeedURL, &feed.ETag, &feed.LastModified, &lastFetchedAt); err != nil {
			return nil, fmt.Errorf("フィード行のスキャンに失敗しました: %w", err)
		}
		if lastFetchedAt.Valid {
			feed.LastFetchedAt = &lastFetchedAt.Time
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フィード一覧の走査に失敗しました: %w", err)
	}

	return feeds, nil
}

// compile-time interface check
var _ CourtFeedRepository = (*PostgresCourtFeedRepo)(nil)
