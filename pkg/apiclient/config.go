package apiclient

import (
	"net/http"

	"github.com/rs/zerolog"
)

// ProxyPrefix はブラウザから同一オリジンでAPIへ到達するためのプロキシパス。
const ProxyPrefix = "/api/proxy"

// Runtime はクライアントが生成するURLの利用者を表す。
type Runtime int

const (
	// RuntimeServer はサーバー内から直接APIを呼び出すことを表す。
	RuntimeServer Runtime = iota
	// RuntimeBrowser はブラウザからの呼び出しを表す。
	// 開発ビルドではクロスオリジン制約を避けるためプロキシ経由になる。
	RuntimeBrowser
)

// String はRuntimeの文字列表現を返す。
func (r Runtime) String() string {
	switch r {
	case RuntimeBrowser:
		return "browser"
	default:
		return "server"
	}
}

// Environment は実行環境（production/development）を表す。
type Environment string

const (
	// EnvironmentProduction は本番環境を表す。
	EnvironmentProduction Environment = "production"
	// EnvironmentDevelopment は開発環境を表す。
	EnvironmentDevelopment Environment = "development"
)

// Config はAPIクライアントの設定。
// New の呼び出し時に一度だけ検証される。
type Config struct {
	// BaseURL はバックエンドAPIのベースURL。必須。
	BaseURL string
	// ProxyOrigin はプロキシ経由で呼び出す際のオリジン（例: "http://localhost:8080"）。
	// 空の場合、プロキシ経由のURLは相対パスになる。
	ProxyOrigin string
	// Environment は実行環境。空の場合はproductionとして扱う。
	Environment Environment
	// Runtime はURLの利用者。
	Runtime Runtime
	// DevelopmentMode が有効な場合、呼び出し側の指定に関わらずCookieを送信しない。
	DevelopmentMode bool
	// HTTPClient は送信に使用するHTTPクライアント。nilの場合はタイムアウトなしのクライアントを使う。
	HTTPClient *http.Client
	// Logger はリクエストの診断ログ出力先。nilの場合は出力しない。
	Logger *zerolog.Logger
}

// usesProxy はブラウザかつ開発ビルドの場合にtrueを返す。
func (c Config) usesProxy() bool {
	return c.Runtime == RuntimeBrowser && c.Environment == EnvironmentDevelopment
}
