package dashboard

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/nao1215/modconsole/internal/config"
	"github.com/nao1215/modconsole/pkg/apiclient"
	"github.com/nao1215/modconsole/pkg/middleware"
	"github.com/nao1215/modconsole/pkg/migration"
	"github.com/nao1215/modconsole/pkg/moderation"
	"github.com/nao1215/modconsole/pkg/proxy"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

//go:embed migrations/*.sql
var migrationsFS embed.FS

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

// Server はモデレーター用ダッシュボードのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg は起動時に検証済みの設定。
	cfg config.Config
	// api はサーバー内からバックエンドAPIを呼び出すクライアント。
	api *apiclient.Client
	// browserAPI はブラウザ向けURLを組み立てるためのクライアント。
	browserAPI *apiclient.Client
	// journal はモデレーション履歴。
	journal *Journal
	// db はSQLiteデータベース接続。
	db *sql.DB
	// logger はサーバーのロガー。
	logger zerolog.Logger
}

// NewServer は新しいダッシュボードサーバーを生成する。
func NewServer(cfg config.Config, logger zerolog.Logger) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	s, err := newServer(cfg, sqlDB, nil, logger)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// newServer は依存を受け取ってサーバーを組み立てる。httpClientがnilの場合はデフォルトを使う。
func newServer(cfg config.Config, sqlDB *sql.DB, httpClient *http.Client, logger zerolog.Logger) (*Server, error) {
	if _, err := migration.Run(context.Background(), sqlDB, migrationsFS, "migrations", logger); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	api, err := apiclient.New(apiclient.Config{
		BaseURL:         cfg.APIBaseURL,
		Environment:     cfg.Environment,
		Runtime:         apiclient.RuntimeServer,
		DevelopmentMode: cfg.DevelopmentMode,
		HTTPClient:      httpClient,
		Logger:          &logger,
	})
	if err != nil {
		return nil, err
	}
	browserAPI, err := apiclient.New(apiclient.Config{
		BaseURL:         cfg.APIBaseURL,
		ProxyOrigin:     cfg.PublicOrigin,
		Environment:     cfg.Environment,
		Runtime:         apiclient.RuntimeBrowser,
		DevelopmentMode: cfg.DevelopmentMode,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:     gin.New(),
		cfg:        cfg,
		api:        api,
		browserAPI: browserAPI,
		journal:    NewJournal(sqlDB),
		db:         sqlDB,
		logger:     logger,
	}

	tmpl, err := template.New("dashboard").Funcs(s.templateFuncs()).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("テンプレートの読み込みに失敗: %w", err)
	}
	s.router.SetHTMLTemplate(tmpl)

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// templateFuncs はテンプレートから呼び出す関数を返す。
func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		// apiURL はブラウザから参照するAPIのURLを返す。開発環境ではプロキシ経由になる。
		"apiURL": func(endpoint string) string {
			u, _ := s.browserAPI.ResolveURL(endpoint)
			return u
		},
		"actionLabel": func(a moderation.Action) string {
			if info, ok := moderation.Describe(a); ok {
				return info.Label
			}
			return string(a)
		},
	}
}

// Handler はテスト等で使用するHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", srv.Addr).Msg("ダッシュボードを起動します")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("ダッシュボードを停止します")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("シャットダウンに失敗: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes() error {
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.SessionGate(middleware.GateConfig{
		CookieName: s.cfg.SessionCookie,
		Patterns:   s.cfg.GatedPaths,
	}))

	// 上流APIへの転送（ブラウザからの同一オリジン呼び出し用）
	if err := proxy.Register(s.router, s.cfg.ProxyUpstream, s.logger, middleware.CORS(s.cfg.AllowedOrigins)); err != nil {
		return fmt.Errorf("プロキシの登録に失敗: %w", err)
	}

	s.router.GET("/", s.handleLanding())

	auth := s.router.Group("/auth")
	{
		auth.POST("/logout", s.handleLogout())
		// 開発用ログイン
		if s.cfg.IsDevelopment() {
			auth.POST("/dev-login", s.handleDevLogin())
		}
	}

	mod := s.router.Group("/moderator")
	{
		mod.GET("", s.handleOverview())
		mod.GET("/artisans", s.handleArtisans())
		mod.GET("/reports", s.handleReports())
		mod.POST("/reports/:id/actions", s.handleReportAction())
		mod.GET("/journal", s.handleJournal())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "dashboard"})
	})
	return nil
}
