// Package middleware はモデレーター用ダッシュボードで使用するGinミドルウェアを提供する。
//
// セッションCookieの有無によるアクセスゲート、セッショントークンの表示用デコード、
// リクエストログ、パニックリカバリ、CORS設定を含む。
package middleware
