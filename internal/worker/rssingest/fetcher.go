// Package rssingest は裁判所CM/ECFのRSSフィードを巡回し、
// 新着の事件提出イベントを取り込むバックグラウンド処理を提供する。
// スケジューラとフェッチャーを含む。
package rssingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/provendata/pacertrack/internal/metrics"
	"github.com/provendata/pacertrack/internal/model"
	"github.com/provendata/pacertrack/internal/repository"
	"github.com/provendata/pacertrack/internal/security"
)

// caseNumberPattern はRSSエントリタイトル先頭の事件番号にマッチする。
// CM/ECFのエントリタイトルは "3:24-cv-00123 Smith v. Jones" の形式をとる。
var caseNumberPattern = regexp.MustCompile(`^\d+:\d{2}-[a-z]{2,4}-\d+`)

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// Fetcher は個別フィードのHTTPフェッチとパースを行う。
// ETag/Last-Modifiedを使用した条件付きGET、SSRF検証、
// gofeedによるパース、(court_id, entry_guid)による重複排除を実行する。
type Fetcher struct {
	feedRepo    repository.CourtFeedRepository
	filingRepo  repository.FilingRepository
	ssrfGuard   SSRFValidator
	sanitizer   security.TextSanitizerService
	collector   metrics.MetricsCollector
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(
	feedRepo repository.CourtFeedRepository,
	filingRepo repository.FilingRepository,
	ssrfGuard SSRFValidator,
	sanitizer security.TextSanitizerService,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	return &Fetcher{
		feedRepo:    feedRepo,
		filingRepo:  filingRepo,
		ssrfGuard:   ssrfGuard,
		sanitizer:   sanitizer,
		collector:   collector,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Fetch はフィードをフェッチし、新着エントリを取り込む。
// 成功・失敗にかかわらずlast_fetched_atを更新し、
// 同一フィードへの連続アクセスを防ぐ。
func (f *Fetcher) Fetch(ctx context.Context, feed *model.CourtFeed) error {
	start := time.Now()

	// 登録後にDNSが付け替えられる可能性があるため、フェッチ時にも検証する
	if err := f.ssrfGuard.ValidateURL(feed.FeedURL); err != nil {
		f.logger.Error("SSRF検証に失敗しました",
			slog.String("court_id", feed.CourtID),
			slog.String("feed_url", feed.FeedURL),
			slog.String("error", err.Error()),
		)
		f.collector.RecordFeedFetchFailure(feed.CourtID, "ssrf_validation")
		f.touchFetchState(ctx, feed)
		return fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.FeedURL, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成に失敗: %w", err)
	}

	req.Header.Set("User-Agent", "pacertrack/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	// 条件付きGET
	if feed.ETag != "" {
		req.Header.Set("If-None-Match", feed.ETag)
	}
	if feed.LastModified != "" {
		req.Header.Set("If-Modified-Since", feed.LastModified)
	}

	resp, err := client.Do(req)
	if err != nil {
		f.logger.Error("HTTPリクエストに失敗しました",
			slog.String("court_id", feed.CourtID),
			slog.String("feed_url", feed.FeedURL),
			slog.String("error", err.Error()),
		)
		f.collector.RecordFeedFetchFailure(feed.CourtID, "http_request")
		f.touchFetchState(ctx, feed)
		return fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	f.collector.RecordFeedHTTPStatus(resp.StatusCode)
	f.collector.RecordFeedFetchLatency(duration)

	if resp.StatusCode == http.StatusNotModified {
		f.logger.Info("フィードは未変更です（304）",
			slog.String("court_id", feed.CourtID),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
		f.collector.RecordFeedFetchSuccess(feed.CourtID)
		f.touchFetchState(ctx, feed)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("フィードフェッチがエラーステータスを返しました",
			slog.String("court_id", feed.CourtID),
			slog.String("feed_url", feed.FeedURL),
			slog.Int("http_status", resp.StatusCode),
		)
		f.collector.RecordFeedFetchFailure(feed.CourtID, "http_status")
		f.touchFetchState(ctx, feed)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		f.collector.RecordFeedFetchFailure(feed.CourtID, "read_body")
		f.touchFetchState(ctx, feed)
		return fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		feed.ETag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		feed.LastModified = lastMod
	}

	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		f.logger.Error("フィードのパースに失敗しました",
			slog.String("court_id", feed.CourtID),
			slog.String("feed_url", feed.FeedURL),
			slog.String("error", err.Error()),
		)
		f.collector.RecordFeedFetchFailure(feed.CourtID, "parse")
		f.touchFetchState(ctx, feed)
		return nil // パース失敗はフェッチエラーとしない（カウントして継続）
	}

	stored, err := f.storeFilings(ctx, feed.CourtID, parsedFeed.Items)
	if err != nil {
		f.collector.RecordFeedFetchFailure(feed.CourtID, "store")
		f.touchFetchState(ctx, feed)
		return err
	}

	f.collector.RecordFeedFetchSuccess(feed.CourtID)
	f.collector.RecordFilingsStored(stored)
	f.touchFetchState(ctx, feed)

	f.logger.Info("フィードフェッチが完了しました",
		slog.String("court_id", feed.CourtID),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("entries_total", len(parsedFeed.Items)),
		slog.Int("entries_stored", stored),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// storeFilings はパース済みエントリを重複排除しながら保存し、新規保存数を返す。
// GUIDを持たないエントリはリンクをGUIDの代わりに使用し、どちらも無ければスキップする。
func (f *Fetcher) storeFilings(ctx context.Context, courtID string, items []*gofeed.Item) (int, error) {
	stored := 0

	for _, item := range items {
		if item == nil {
			continue
		}

		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}
		if guid == "" {
			continue
		}

		exists, err := f.filingRepo.Exists(ctx, courtID, guid)
		if err != nil {
			return stored, fmt.Errorf("重複確認に失敗しました: %w", err)
		}
		if exists {
			continue
		}

		title := f.sanitizer.SanitizeText(item.Title)

		filing := &model.Filing{
			ID:         uuid.NewString(),
			CourtID:    courtID,
			EntryGUID:  guid,
			CaseNumber: caseNumberPattern.FindString(title),
			Title:      title,
			Link:       item.Link,
			FetchedAt:  time.Now(),
		}
		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			filing.PublishedAt = &t
		} else if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			filing.PublishedAt = &t
		}

		if err := f.filingRepo.Create(ctx, filing); err != nil {
			// 並行フェッチとの競合による一意制約違反は重複として無視する
			if repository.IsUniqueViolation(err) {
				continue
			}
			return stored, fmt.Errorf("提出イベントの保存に失敗しました: %w", err)
		}
		stored++
	}

	return stored, nil
}

// touchFetchState はlast_fetched_atを現在時刻に進め、etag・last_modifiedとともに保存する。
// ここで時刻を進めないと再取得間隔の判定が機能しない。
// 更新失敗はログのみでフェッチ結果には影響させない。
func (f *Fetcher) touchFetchState(ctx context.Context, feed *model.CourtFeed) {
	now := time.Now()
	feed.LastFetchedAt = &now
	if err := f.feedRepo.UpdateFetchState(ctx, feed); err != nil {
		f.logger.Error("フィード状態の更新に失敗しました",
			slog.String("court_id", feed.CourtID),
			slog.String("error", err.Error()),
		)
	}
}
