package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bizman/internal/middleware"
)

// SetupAuthRoutes は認証関連のルーティングを設定したchi.Routerを返す。
func SetupAuthRoutes(service AuthServiceInterface, config AuthHandlerConfig) http.Handler {
	r := chi.NewRouter()
	h := NewAuthHandler(service, config)

	r.Route("/auth", func(r chi.Router) {
		// OAuthフロー
		r.Get("/google/login", h.Login)
		r.Get("/google/callback", h.Callback)

		// セッション管理
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	return r
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 取引先
	ClientService ClientServiceInterface

	// プロジェクト
	ProjectService ProjectServiceInterface

	// チケット
	TicketService TicketServiceInterface

	// 通知
	NotificationService NotificationServiceInterface
	NotifyService       NotifyServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SessionMiddleware → CSRFMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）とヘルスチェックはミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	clientHandler := NewClientHandler(deps.ClientService)
	projectHandler := NewProjectHandler(deps.ProjectService)
	ticketHandler := NewTicketHandler(deps.TicketService)
	notificationHandler := NewNotificationHandler(deps.NotificationService)
	notifyHandler := NewNotifyHandler(deps.NotifyService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// CSRFトークン取得（フロントエンドが状態変更リクエスト前に呼ぶ）
		r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

		// 取引先管理
		r.Route("/api/clients", func(r chi.Router) {
			r.Post("/", clientHandler.Create)
			r.Get("/", clientHandler.List)
			r.Get("/{id}", clientHandler.Get)
		})

		// プロジェクト管理
		r.Route("/api/projects", func(r chi.Router) {
			r.Post("/", projectHandler.Create)
			r.Get("/", projectHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projectHandler.Get)

				// POST /api/projects/{id}/comments - コメント投稿（投稿専用レート制限を追加）
				r.With(deps.RateLimiter.CommentMiddleware()).Post("/comments", projectHandler.AddComment)
				r.Get("/comments", projectHandler.ListComments)
			})
		})

		// チケット管理
		r.Route("/api/tickets", func(r chi.Router) {
			r.Post("/", ticketHandler.Create)
			r.Get("/", ticketHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ticketHandler.Get)
				r.Patch("/status", ticketHandler.UpdateStatus)

				// POST /api/tickets/{id}/comments - コメント投稿（投稿専用レート制限を追加）
				r.With(deps.RateLimiter.CommentMiddleware()).Post("/comments", ticketHandler.AddComment)
				r.Get("/comments", ticketHandler.ListComments)
			})
		})

		// 通知
		r.Get("/api/notifications", notificationHandler.List)

		// メンション解決・通知配送
		r.Post("/api/mentions/resolve", notifyHandler.ResolveMentions)
		r.With(deps.RateLimiter.CommentMiddleware()).Post("/api/notify/comment", notifyHandler.NotifyComment)

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Withdraw)
		})
	})

	return r
}
