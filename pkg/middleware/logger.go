package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// headerKeyRequestID はリクエストの相関IDを伝播するHTTPヘッダーキー。
	headerKeyRequestID = "X-Request-ID"
	// contextKeyRequestID はGinコンテキストに相関IDを格納するキー。
	contextKeyRequestID = "request_id"
)

// RequestLogger はリクエストごとのアクセスログを出力するGinミドルウェアを返す。
// 相関IDを採番してレスポンスヘッダーに設定し、リクエストIDを付与したロガーを
// リクエストのコンテキストに格納する（zerolog.Ctx で取得できる）。
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(headerKeyRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(contextKeyRequestID, requestID)
		c.Header(headerKeyRequestID, requestID)

		reqLogger := logger.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(reqLogger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = reqLogger.Error()
		case status >= 400:
			event = reqLogger.Warn()
		default:
			event = reqLogger.Info()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// GetRequestID はGinコンテキストから相関IDを取得する。
// RequestLoggerミドルウェアが事前に適用されていない場合は空文字列を返す。
func GetRequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}
