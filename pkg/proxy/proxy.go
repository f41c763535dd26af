package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler は上流オリジンへ転送するGinハンドラを返す。
// Prefix + "/*path" のルートに登録して使用する。
func Handler(origin string, logger zerolog.Logger) (gin.HandlerFunc, error) {
	normalized := NormalizeOrigin(origin)
	target, err := url.Parse(normalized)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("上流オリジンが不正です: %q", origin)
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			rewritten, ok := Rewrite(normalized, pr.In.URL.EscapedPath())
			if !ok {
				rewritten = normalized + pr.In.URL.EscapedPath()
			}
			out, err := url.Parse(rewritten)
			if err != nil {
				out = target
			}
			out.RawQuery = pr.In.URL.RawQuery
			pr.Out.URL = out
			pr.Out.Host = ""
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error().
				Err(err).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("upstream", normalized).
				Msg("プロキシエラー")
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"上流APIとの通信に失敗しました"}`))
		},
	}

	return func(c *gin.Context) {
		rp.ServeHTTP(c.Writer, c.Request)
	}, nil
}

// Register はルーターにプロキシのルートを登録する。
// 上流オリジンが空の場合は何もしない。
func Register(router gin.IRouter, origin string, logger zerolog.Logger, middlewares ...gin.HandlerFunc) error {
	if NormalizeOrigin(origin) == "" {
		return nil
	}
	handler, err := Handler(origin, logger)
	if err != nil {
		return err
	}
	group := router.Group(Prefix, middlewares...)
	group.Any("/*path", handler)
	return nil
}
