// Package region は追跡対象地域の管理と、地域名からPACER裁判所IDへの
// 解決を提供する。地域の登録・編集・削除は管理者操作であり、
// 解決結果は事件検索のcourtIdフィルタとして使用される。
package region

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/provendata/pacertrack/internal/model"
	"github.com/provendata/pacertrack/internal/repository"
)

// Service は地域管理サービス。
// 地域名→裁判所IDの解決結果はTTL付きインメモリキャッシュに保持する。
// 裁判所IDマッピングはシードデータであり実行中に変化しないため、
// キャッシュの無効化は期限切れのみで十分。
type Service struct {
	regionRepo repository.RegionRepository
	courtRepo  repository.CourtCodeRepository
	logger     *slog.Logger
	cache      *gocache.Cache
}

// NewService はServiceの新しいインスタンスを生成する。
// cacheTTLは裁判所ID解決結果のキャッシュ保持期間。
func NewService(regionRepo repository.RegionRepository, courtRepo repository.CourtCodeRepository, logger *slog.Logger, cacheTTL time.Duration) *Service {
	return &Service{
		regionRepo: regionRepo,
		courtRepo:  courtRepo,
		logger:     logger,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// List は登録済みの地域を全件返す。
func (s *Service) List(ctx context.Context) ([]*model.Region, error) {
	regions, err := s.regionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("地域一覧の取得に失敗しました: %w", err)
	}
	return regions, nil
}

// Create は新しい地域を登録する。
// 裁判所IDマッピングに存在しない地域名は登録できない。
// 既に登録済みの地域名の場合はRegionExistsエラーを返す。
func (s *Service) Create(ctx context.Context, regionName string) (*model.Region, error) {
	if regionName == "" {
		return nil, model.NewRegionNotSupportedError(regionName)
	}

	supported, err := s.isSupported(ctx, regionName)
	if err != nil {
		return nil, err
	}
	if !supported {
		s.logger.Warn("未対応の地域名が指定されました",
			slog.String("region_name", regionName),
		)
		return nil, model.NewRegionNotSupportedError(regionName)
	}

	region, err := s.regionRepo.Create(ctx, regionName)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewRegionExistsError(regionName)
		}
		return nil, fmt.Errorf("地域の登録に失敗しました: %w", err)
	}

	s.logger.Info("地域を登録しました",
		slog.Int("region_id", region.ID),
		slog.String("region_name", region.RegionName),
	)
	return region, nil
}

// Update は地域名を変更する。新しい地域名にもマッピング存在の検証を行う。
func (s *Service) Update(ctx context.Context, id int, regionName string) error {
	if regionName == "" {
		return model.NewRegionNotSupportedError(regionName)
	}

	supported, err := s.isSupported(ctx, regionName)
	if err != nil {
		return err
	}
	if !supported {
		return model.NewRegionNotSupportedError(regionName)
	}

	if err := s.regionRepo.Update(ctx, id, regionName); err != nil {
		if repository.IsUniqueViolation(err) {
			return model.NewRegionExistsError(regionName)
		}
		return err
	}

	s.logger.Info("地域を更新しました",
		slog.Int("region_id", id),
		slog.String("region_name", regionName),
	)
	return nil
}

// Delete は地域を削除する。
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.regionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("地域を削除しました", slog.Int("region_id", id))
	return nil
}

// ResolveCourtID は地域名をPACERの裁判所IDに解決する。
// "All" および空文字列はフィルタなしを意味し、空の裁判所IDを返す。
// マッピングが見つからない地域名もエラーにせず空の裁判所IDを返す。
// この場合、検索はフィルタなしで全地域を対象に実行される。
func (s *Service) ResolveCourtID(ctx context.Context, regionName string) (string, error) {
	if regionName == "" || regionName == model.RegionAll {
		return "", nil
	}

	if cached, found := s.cache.Get(regionName); found {
		return cached.(string), nil
	}

	courtID, err := s.courtRepo.CourtIDByRegion(ctx, regionName)
	if err != nil {
		return "", fmt.Errorf("裁判所IDの解決に失敗しました: %w", err)
	}
	if courtID == "" {
		s.logger.Warn("地域名に対応する裁判所IDが見つかりません。フィルタなしで検索します",
			slog.String("region_name", regionName),
		)
	}

	s.cache.Set(regionName, courtID, gocache.DefaultExpiration)
	return courtID, nil
}

// isSupported は地域名が裁判所IDマッピングに存在するかを返す。
func (s *Service) isSupported(ctx context.Context, regionName string) (bool, error) {
	count, err := s.courtRepo.CountByRegion(ctx, regionName)
	if err != nil {
		return false, fmt.Errorf("地域対応状況の確認に失敗しました: %w", err)
	}
	return count > 0, nil
}
