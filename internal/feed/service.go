// Package feed は裁判所CM/ECFのRSSフィード登録管理を提供する。
// 登録されたフィードはフェッチワーカーが定期的に巡回し、
// 新着申立エントリをローカルに保存する。フィードの登録・削除は管理者操作。
package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/provendata/pacertrack/internal/model"
	"github.com/provendata/pacertrack/internal/repository"
	"github.com/provendata/pacertrack/internal/security"
)

// Service はフィード管理サービス。
type Service struct {
	feedRepo  repository.CourtFeedRepository
	ssrfGuard security.SSRFGuardService
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(feedRepo repository.CourtFeedRepository, ssrfGuard security.SSRFGuardService, logger *slog.Logger) *Service {
	return &Service{
		feedRepo:  feedRepo,
		ssrfGuard: ssrfGuard,
		logger:    logger,
	}
}

// List は登録済みフィードを全件返す。
func (s *Service) List(ctx context.Context) ([]*model.CourtFeed, error) {
	feeds, err := s.feedRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("フィード一覧の取得に失敗しました: %w", err)
	}
	return feeds, nil
}

// Create は新しいフィードを登録する。
// 登録前にURLのSSRF検証を行い、内部ネットワークを指すURLは拒否する。
// 1つの裁判所に登録できるフィードは1つのみ。
func (s *Service) Create(ctx context.Context, courtID, feedURL string) (*model.CourtFeed, error) {
	if courtID == "" {
		return nil, model.NewInvalidFeedURLError("裁判所IDは必須です")
	}

	if err := s.ssrfGuard.ValidateURL(feedURL); err != nil {
		s.logger.Warn("フィードURLの検証に失敗しました",
			slog.String("court_id", courtID),
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return nil, model.NewInvalidFeedURLError(err.Error())
	}

	feed, err := s.feedRepo.Create(ctx, courtID, feedURL)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewFeedExistsError(courtID)
		}
		return nil, fmt.Errorf("フィードの登録に失敗しました: %w", err)
	}

	s.logger.Info("フィードを登録しました",
		slog.Int("feed_id", feed.ID),
		slog.String("court_id", courtID),
		slog.String("feed_url", feedURL),
	)
	return feed, nil
}

// Delete はフィードを削除する。保存済みの申立エントリは削除しない。
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.feedRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("フィードを削除しました", slog.Int("feed_id", id))
	return nil
}
