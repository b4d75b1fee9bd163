package caseload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/provendata/pacertrack/internal/metrics"
	"github.com/provendata/pacertrack/internal/model"
	"github.com/provendata/pacertrack/internal/repository"
)

// PacerClient はPCL APIクライアントのインターフェースを定義する。
type PacerClient interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	SearchCasesByDate(ctx context.Context, token string, query model.SearchQuery, page int) ([]model.CaseRecord, error)
}

// RegionResolver は地域名から裁判所IDへの解決のインターフェースを定義する。
type RegionResolver interface {
	ResolveCourtID(ctx context.Context, regionName string) (string, error)
}

// Service は事件ロードのオーケストレーションを行う。
// 1回のロードは 認証 → 検索（1ページ）→ UPSERT のサイクルであり、
// ページングはユーザー操作駆動（クリックごとに1ページ）で行われる。
type Service struct {
	pacerClient   PacerClient
	resolver      RegionResolver
	engine        *Engine
	caseRepo      repository.CaseRepository
	collector     metrics.MetricsCollector
	logger        *slog.Logger
	pacerUsername string
	pacerPassword string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(pacerClient PacerClient, resolver RegionResolver, engine *Engine, caseRepo repository.CaseRepository, collector metrics.MetricsCollector, logger *slog.Logger, pacerUsername, pacerPassword string) *Service {
	return &Service{
		pacerClient:   pacerClient,
		resolver:      resolver,
		engine:        engine,
		caseRepo:      caseRepo,
		collector:     collector,
		logger:        logger,
		pacerUsername: pacerUsername,
		pacerPassword: pacerPassword,
	}
}

// LoadMore は指定条件でPCL検索を1ページ分実行し、結果を事件テーブルへUPSERTする。
//
// 処理の流れ:
//  1. 日付範囲の検証（開始日は必須、YYYY-MM-DD形式）
//  2. 地域名から裁判所IDへの解決
//  3. PACER認証（失敗時は検索もUPSERTも実行せず中止）
//  4. 事件検索（先頭ページのみ）
//  5. 受信レコードのUPSERTと集計
//
// 検索自体の失敗は0件の結果と区別されず、空の集計が返る。
func (s *Service) LoadMore(ctx context.Context, dateFrom, dateTo, regionName string) (*UpsertResult, error) {
	if err := validateDateRange(dateFrom, dateTo); err != nil {
		return nil, err
	}

	courtID, err := s.resolver.ResolveCourtID(ctx, regionName)
	if err != nil {
		return nil, fmt.Errorf("地域の解決に失敗しました: %w", err)
	}

	token, err := s.pacerClient.Authenticate(ctx, s.pacerUsername, s.pacerPassword)
	if err != nil {
		s.logger.Error("PACER認証に失敗したためロードを中止します",
			slog.String("error", err.Error()),
		)
		s.collector.RecordPacerAuthFailure()
		return nil, model.NewPacerAuthFailedError()
	}

	query := model.SearchQuery{
		DateFrom: dateFrom,
		DateTo:   dateTo,
		CourtID:  courtID,
	}
	records, err := s.pacerClient.SearchCasesByDate(ctx, token, query, 0)
	if err != nil {
		// 検索失敗は0件と同じ扱いで空の集計を返す
		s.logger.Error("事件検索に失敗しました",
			slog.String("error", err.Error()),
		)
		return &UpsertResult{}, nil
	}

	result := s.engine.UpsertRecords(ctx, records)
	s.collector.RecordCaseLoad(result.Inserted, result.Updated, result.Skipped, result.Failed)

	s.logger.Info("事件ロードが完了しました",
		slog.String("date_from", dateFrom),
		slog.String("date_to", dateTo),
		slog.String("region", regionName),
		slog.String("court_id", courtID),
		slog.Int("received", len(records)),
		slog.Int("inserted", result.Inserted),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
	)

	return &result, nil
}

// ListCases は保存済みの事件を申立日の降順で返す。
// limitが0以下の場合は全件返す。
func (s *Service) ListCases(ctx context.Context, limit int) ([]*model.PacerCase, error) {
	cases, err := s.caseRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("事件一覧の取得に失敗しました: %w", err)
	}
	return cases, nil
}

// validateDateRange はロード条件の日付範囲を検証する。
// 開始日は必須、終了日は任意。両方指定された場合は開始日が終了日以前であること。
func validateDateRange(dateFrom, dateTo string) error {
	if dateFrom == "" {
		return model.NewInvalidDateRangeError("開始日は必須です")
	}

	from, err := time.Parse("2006-01-02", dateFrom)
	if err != nil {
		return model.NewInvalidDateRangeError(fmt.Sprintf("開始日の形式が不正です: %s", dateFrom))
	}

	if dateTo == "" {
		return nil
	}

	to, err := time.Parse("2006-01-02", dateTo)
	if err != nil {
		return model.NewInvalidDateRangeError(fmt.Sprintf("終了日の形式が不正です: %s", dateTo))
	}
	if to.Before(from) {
		return model.NewInvalidDateRangeError("終了日は開始日以降である必要があります")
	}

	return nil
}
