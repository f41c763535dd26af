// モデレーター用ダッシュボードのエントリポイント。
// バックエンドAPIのデータをサーバー側で描画し、/api/proxy 経由の転送と
// /moderator 配下のアクセスゲートを担当する。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/nao1215/modconsole/internal/config"
	"github.com/nao1215/modconsole/internal/dashboard"
	"github.com/nao1215/modconsole/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// ロガーの設定値を読む前なので、デフォルトのロガーで出力する。
		logger := logging.New("info", false)
		logger.Fatal().Err(err).Msg("設定の読み込みに失敗")
	}

	logger := logging.New(cfg.LogLevel, cfg.IsDevelopment()).With().Str("service", "dashboard").Logger()
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("ダッシュボードサービスが異常終了しました")
	}
}

// run はサーバーを起動し、SIGINT/SIGTERMを受け取るまで待機する。
func run(cfg config.Config, logger zerolog.Logger) error {
	server, err := dashboard.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("ダッシュボードの初期化に失敗: %w", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			logger.Error().Err(err).Msg("データベース切断に失敗")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("port", cfg.Port).
		Str("api_base_url", cfg.APIBaseURL).
		Str("environment", string(cfg.Environment)).
		Msg("ダッシュボードサービスを起動します")
	return server.Run(ctx)
}
