// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/provendata/pacertrack/internal/auth"
	"github.com/provendata/pacertrack/internal/caseload"
	"github.com/provendata/pacertrack/internal/config"
	"github.com/provendata/pacertrack/internal/database"
	"github.com/provendata/pacertrack/internal/feed"
	"github.com/provendata/pacertrack/internal/handler"
	"github.com/provendata/pacertrack/internal/logger"
	"github.com/provendata/pacertrack/internal/metrics"
	"github.com/provendata/pacertrack/internal/middleware"
	"github.com/provendata/pacertrack/internal/pacer"
	"github.com/provendata/pacertrack/internal/region"
	"github.com/provendata/pacertrack/internal/repository"
	"github.com/provendata/pacertrack/internal/security"
	"github.com/provendata/pacertrack/internal/user"
	"github.com/provendata/pacertrack/internal/worker/cleanup"
	"github.com/provendata/pacertrack/internal/worker/rssingest"
)

// regionCacheTTL は地域名→裁判所IDの解決結果のキャッシュ保持期間。
// court_idsマッピングはシードデータであり実行中に変化しない。
const regionCacheTTL = time.Hour

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCreateUser:
		return runCreateUser(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	regionRepo := repository.NewPostgresRegionRepo(db)
	courtCodeRepo := repository.NewPostgresCourtCodeRepo(db)
	caseRepo := repository.NewPostgresCaseRepo(db)
	feedRepo := repository.NewPostgresCourtFeedRepo(db, cfg.FeedFetchInterval)
	filingRepo := repository.NewPostgresFilingRepo(db)

	// 3. セキュリティとメトリクスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	sessionMaxAge := time.Duration(cfg.SessionMaxAge) * time.Second
	authService := auth.NewService(userRepo, sessionRepo, slog.Default(), sessionMaxAge)
	userService := user.NewService(userRepo, sessionRepo, slog.Default())
	regionService := region.NewService(regionRepo, courtCodeRepo, slog.Default(), regionCacheTTL)
	feedService := feed.NewService(feedRepo, ssrfGuard, slog.Default())

	pacerClient := pacer.NewClient(
		&http.Client{Timeout: cfg.PacerTimeout},
		slog.Default(), cfg.PacerAuthURL, cfg.PacerAPIRoot,
	)
	engine := caseload.NewEngine(caseRepo, sanitizer, slog.Default())
	caseService := caseload.NewService(
		pacerClient, regionService, engine, caseRepo, collector,
		slog.Default(), cfg.PacerUsername, cfg.PacerPassword,
	)

	// 5. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralPerMin = cfg.RateLimitGeneral
	rateLimiterCfg.CaseLoadPerMin = cfg.RateLimitCaseLoad
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg, slog.Default())
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		UserResolver:      authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		HealthChecker:     db,

		MetricsHandler: metrics.Handler(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		UserService:   userService,
		RegionService: regionService,
		FeedService:   feedService,

		CaseService:  caseService,
		FilingLister: filingRepo,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はRSS取り込みワーカーモードで起動する。
// DB接続を開き、フィード巡回スケジューラを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	feedRepo := repository.NewPostgresCourtFeedRepo(db, cfg.FeedFetchInterval)
	filingRepo := repository.NewPostgresFilingRepo(db)

	// 3. フェッチャーとスケジューラの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	fetcher := rssingest.NewFetcher(
		feedRepo, filingRepo, ssrfGuard, sanitizer, collector,
		slog.Default(), cfg.FeedFetchTimeout, cfg.FeedMaxSize,
	)
	scheduler := rssingest.NewScheduler(
		feedRepo, fetcher, slog.Default(), cfg.FeedMaxConcurrent,
	)

	// 4. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("fetch_interval", cfg.FeedFetchInterval),
		slog.Int("max_concurrent", cfg.FeedMaxConcurrent),
	)

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// フィード巡回スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.FeedFetchInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runCreateUser は初期ユーザーを登録する。
// 使い方: pacertrack createuser <username> <password> <permission>
// 管理画面にアクセスできる管理者がまだ存在しない環境のブートストラップに使う。
func runCreateUser(cfg *config.Config, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: pacertrack createuser <username> <password> <permission>")
	}
	username, password, permission := args[0], args[1], args[2]

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	userService := user.NewService(userRepo, sessionRepo, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := userService.Create(ctx, username, password, permission); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created",
		slog.String("username", username),
		slog.String("permission", permission),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
