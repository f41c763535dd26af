// Package dashboard はモデレーター用ダッシュボードのHTTPサーバーを提供する。
//
// バックエンドAPIから取得したデータをサーバー側でHTMLに描画し、
// /api/proxy 配下のリクエストを上流APIへ転送する。/moderator 配下は
// セッションCookieの有無によるアクセスゲートで保護する。
// 実行したモデレーションアクションはSQLiteに履歴として記録する。
package dashboard
