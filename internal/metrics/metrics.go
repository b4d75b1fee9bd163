// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 事件ロードサービスとフィードフェッチワーカーから利用する。
type MetricsCollector interface {
	RecordPacerAuthFailure()
	RecordCaseLoad(inserted, updated, skipped, failed int)
	RecordFeedFetchSuccess(courtID string)
	RecordFeedFetchFailure(courtID string, reason string)
	RecordFeedHTTPStatus(statusCode int)
	RecordFeedFetchLatency(duration time.Duration)
	RecordFilingsStored(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	pacerAuthFail    prometheus.Counter
	casesProcessed   *prometheus.CounterVec
	feedFetchSuccess *prometheus.CounterVec
	feedFetchFail    *prometheus.CounterVec
	feedHTTPStatus   *prometheus.CounterVec
	feedFetchLatency prometheus.Histogram
	filingsStored    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pacerAuthFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pacertrack_pacer_auth_fail_total",
			Help: "PACER認証失敗の合計数",
		}),
		casesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pacertrack_cases_processed_total",
			Help: "処理された事件レコードの結果別合計数",
		}, []string{"outcome"}),
		feedFetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pacertrack_feed_fetch_success_total",
			Help: "裁判所フィードフェッチ成功の裁判所別合計数",
		}, []string{"court_id"}),
		feedFetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pacertrack_feed_fetch_fail_total",
			Help: "裁判所フィードフェッチ失敗の裁判所・要因別合計数",
		}, []string{"court_id", "reason"}),
		feedHTTPStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pacertrack_feed_http_status_total",
			Help: "フィードフェッチのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		feedFetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pacertrack_feed_fetch_latency_seconds",
			Help:    "裁判所フィードフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		filingsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pacertrack_filings_stored_total",
			Help: "保存された申立エントリの合計数",
		}),
	}

	reg.MustRegister(
		c.pacerAuthFail,
		c.casesProcessed,
		c.feedFetchSuccess,
		c.feedFetchFail,
		c.feedHTTPStatus,
		c.feedFetchLatency,
		c.filingsStored,
	)

	return c
}

// RecordPacerAuthFailure はPACER認証失敗を記録する。
func (c *Collector) RecordPacerAuthFailure() {
	c.pacerAuthFail.Inc()
}

// RecordCaseLoad は1回の事件ロードの集計結果を記録する。
func (c *Collector) RecordCaseLoad(inserted, updated, skipped, failed int) {
	c.casesProcessed.WithLabelValues("inserted").Add(float64(inserted))
	c.casesProcessed.WithLabelValues("updated").Add(float64(updated))
	c.casesProcessed.WithLabelValues("skipped").Add(float64(skipped))
	c.casesProcessed.WithLabelValues("failed").Add(float64(failed))
}

// RecordFeedFetchSuccess はフィードフェッチ成功を裁判所別に記録する。
func (c *Collector) RecordFeedFetchSuccess(courtID string) {
	c.feedFetchSuccess.WithLabelValues(courtID).Inc()
}

// RecordFeedFetchFailure はフィードフェッチ失敗を裁判所・要因別に記録する。
func (c *Collector) RecordFeedFetchFailure(courtID string, reason string) {
	c.feedFetchFail.WithLabelValues(courtID, reason).Inc()
}

// RecordFeedHTTPStatus はフィードフェッチのHTTPステータスコードを記録する。
func (c *Collector) RecordFeedHTTPStatus(statusCode int) {
	c.feedHTTPStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFeedFetchLatency はフィードフェッチのレイテンシを記録する。
func (c *Collector) RecordFeedFetchLatency(duration time.Duration) {
	c.feedFetchLatency.Observe(duration.Seconds())
}

// RecordFilingsStored は保存された申立エントリ数を記録する。
func (c *Collector) RecordFilingsStored(count int) {
	c.filingsStored.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
