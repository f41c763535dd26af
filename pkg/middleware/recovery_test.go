package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TestRecovery はRecoveryミドルウェアを検証する。
func TestRecovery(t *testing.T) {
	t.Parallel()

	panicValues := []struct {
		name  string
		value any
	}{
		{name: "文字列のパニック値", value: "テスト用パニック"},
		{name: "error型のパニック値", value: errors.New("テスト用エラー")},
		{name: "数値のパニック値", value: 42},
	}

	for _, pv := range panicValues {
		t.Run(pv.name+"でも500が返りログが出力されること", func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			router := gin.New()
			router.Use(Recovery(zerolog.New(&logs)))
			router.POST("/moderator/reports/1/actions", func(_ *gin.Context) {
				panic(pv.value)
			})

			req := httptest.NewRequest(http.MethodPost, "/moderator/reports/1/actions", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusInternalServerError {
				t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("レスポンスボディのパースに失敗: %v", err)
			}
			if body["error"] != "内部サーバーエラーが発生しました" {
				t.Errorf("error = %q, want %q", body["error"], "内部サーバーエラーが発生しました")
			}
			if !strings.Contains(logs.String(), "[PANIC]") || !strings.Contains(logs.String(), `"level":"error"`) {
				t.Errorf("パニックがエラーログに出力されていない: %s", logs.String())
			}
		})
	}

	t.Run("パニック後もサーバーが次のリクエストを処理できること", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Recovery(zerolog.Nop()))
		router.GET("/panic", func(_ *gin.Context) {
			panic("boom")
		})
		router.GET("/ok", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})
}
