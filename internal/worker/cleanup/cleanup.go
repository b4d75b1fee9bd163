// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 有効期限を過ぎたセッションと、保持期間（デフォルト180日）を超過した
// RSS提出イベントを日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は期限切れセッションと古い提出イベントの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
// セッションの読み出しはexpires_atで絞り込むため期限切れ行が残っても
// 認可には影響しないが、削除しない限り無制限に蓄積する。
type CleanupJob struct {
	db                  Executor
	logger              *slog.Logger
	FilingRetentionDays int // 提出イベントの保持日数（デフォルト: 180）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は180日。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:                  db,
		logger:              logger,
		FilingRetentionDays: 180,
	}
}

// Run は期限切れセッションと保持期間超過の提出イベントを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	sessionsDeleted, err := j.purgeExpiredSessions(ctx)
	if err != nil {
		return err
	}

	filingsDeleted, err := j.purgeOldFilings(ctx)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("sessions_deleted", sessionsDeleted),
		slog.Int64("filings_deleted", filingsDeleted),
		slog.Int("filing_retention_days", j.FilingRetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// purgeExpiredSessions はexpires_atが過去のセッションをDELETEする。
func (j *CleanupJob) purgeExpiredSessions(ctx context.Context) (int64, error) {
	result, err := j.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return deleted, nil
}

// purgeOldFilings はfetched_atがFilingRetentionDays日前より古い提出イベントをDELETEする。
func (j *CleanupJob) purgeOldFilings(ctx context.Context) (int64, error) {
	interval := fmt.Sprintf("%d days", j.FilingRetentionDays)

	result, err := j.db.ExecContext(ctx,
		`DELETE FROM court_filings WHERE fetched_at < now() - $1::interval`, interval)
	if err != nil {
		j.logger.Error("提出イベントのクリーンアップに失敗しました",
			slog.String("error", err.Error()),
			slog.Int("filing_retention_days", j.FilingRetentionDays),
		)
		return 0, fmt.Errorf("提出イベントのクリーンアップに失敗: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return deleted, nil
}
