package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultSessionCookie はセッショントークンを保持するCookie名。
const DefaultSessionCookie = "access_token"

// GateConfig はアクセスゲートの設定。
type GateConfig struct {
	// CookieName はセッションCookie名。空の場合は DefaultSessionCookie。
	CookieName string
	// Patterns はゲート対象のパスパターン。
	// "/moderator" は完全一致、"/moderator/:path*" は配下すべてに一致する。
	Patterns []string
	// RedirectTo は未認証時のリダイレクト先。空の場合は "/"。
	RedirectTo string
}

// DefaultGatePatterns はモデレーター画面を保護するデフォルトのパターン。
var DefaultGatePatterns = []string{"/moderator", "/moderator/:path*"}

// SessionGate はセッションCookieの有無でアクセスを制御するGinミドルウェアを返す。
//
// Cookieが存在すれば後続へ進み、存在しなければ RedirectTo へ307でリダイレクトする。
// トークンの署名や有効期限は検証しない。検証はバックエンドAPIが行うため、
// このゲートは画面遷移の制御にとどまり、セキュリティ境界ではない。
func SessionGate(cfg GateConfig) gin.HandlerFunc {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	redirectTo := cfg.RedirectTo
	if redirectTo == "" {
		redirectTo = "/"
	}
	patterns := cfg.Patterns
	if patterns == nil {
		patterns = DefaultGatePatterns
	}

	return func(c *gin.Context) {
		if !MatchAny(patterns, c.Request.URL.Path) {
			c.Next()
			return
		}

		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			c.Next()
			return
		}

		c.Redirect(http.StatusTemporaryRedirect, redirectTo)
		c.Abort()
	}
}

// MatchAny はパスがいずれかのパターンに一致するかを返す。
func MatchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if matchPattern(p, path) {
			return true
		}
	}
	return false
}

// matchPattern は1つのパターンとパスを照合する。
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/:path*"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}
