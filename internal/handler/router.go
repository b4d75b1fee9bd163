package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/provendata/pacertrack/internal/middleware"
	"github.com/provendata/pacertrack/internal/model"
)

// HealthChecker はヘルスチェックでのDB疎通確認のインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserResolver      middleware.UserResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// ヘルスチェック（nilの場合はDB疎通確認をスキップ）
	HealthChecker HealthChecker

	// 監視
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 管理ページ（ユーザー・地域・フィード）
	UserService   UserServiceInterface
	RegionService RegionServiceInterface
	FeedService   FeedServiceInterface

	// 事件閲覧ページ
	CaseService  CaseServiceInterface
	FilingLister FilingLister
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → SecurityHeaders → Session → RateLimit(General) → Permission
//
// 認証ルート（/auth/*）とヘルスチェック・メトリクスはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService)
	regionHandler := NewRegionHandler(deps.RegionService)
	caseHandler := NewCaseHandler(deps.CaseService)
	feedHandler := NewFeedHandler(deps.FeedService, deps.FilingLister)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.UserResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 管理ページ（admin権限のみ）
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermissionAdmin))

			r.Route("/api/users", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)

				r.Route("/{username}", func(r chi.Router) {
					r.Patch("/", userHandler.UpdatePermission)
					r.Delete("/", userHandler.Delete)
				})
			})

			r.Route("/api/regions", func(r chi.Router) {
				r.Get("/", regionHandler.List)
				r.Post("/", regionHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", regionHandler.Update)
					r.Delete("/", regionHandler.Delete)
				})
			})

			r.Route("/api/feeds", func(r chi.Router) {
				r.Get("/", feedHandler.List)
				r.Post("/", feedHandler.Create)
				r.Delete("/{id}", feedHandler.Delete)
			})
		})

		// 事件閲覧ページ（admin・edit・browseのいずれか）
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(
				model.PermissionAdmin,
				model.PermissionEdit,
				model.PermissionBrowse,
			))

			r.Route("/api/cases", func(r chi.Router) {
				r.Get("/", caseHandler.List)

				// POST /api/cases/load - ロード専用レート制限を追加
				r.With(deps.RateLimiter.CaseLoadMiddleware()).Post("/load", caseHandler.Load)
			})

			r.Get("/api/filings", feedHandler.ListFilings)
		})
	})

	return r
}
