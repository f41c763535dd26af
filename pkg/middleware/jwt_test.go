package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// TestGenerateDevToken はGenerateDevToken関数を検証する。
func TestGenerateDevToken(t *testing.T) {
	t.Parallel()

	t.Run("署名を検証できるトークンを生成できること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateDevToken(testSecret, "mod-1", "mod@example.com")
		if err != nil {
			t.Fatalf("GenerateDevToken()でエラーが発生: %v", err)
		}

		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		})
		if err != nil || !token.Valid {
			t.Fatalf("トークンの検証に失敗: %v", err)
		}
		if claims.UserID != "mod-1" || claims.Subject != "mod-1" {
			t.Errorf("UserID = %q, Subject = %q, want %q", claims.UserID, claims.Subject, "mod-1")
		}
		if claims.Issuer != devTokenIssuer {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, devTokenIssuer)
		}
		if claims.Role != "moderator" {
			t.Errorf("Role = %q, want %q", claims.Role, "moderator")
		}
	})

	t.Run("有効期限が24時間後であること", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		tokenStr, err := GenerateDevToken(testSecret, "mod-exp", "exp@example.com")
		if err != nil {
			t.Fatalf("GenerateDevToken()でエラーが発生: %v", err)
		}
		claims, err := PeekClaims(tokenStr)
		if err != nil {
			t.Fatalf("PeekClaims()でエラーが発生: %v", err)
		}

		expected := before.Add(24 * time.Hour)
		if d := claims.ExpiresAt.Time.Sub(expected); d < -time.Minute || d > time.Minute {
			t.Errorf("ExpiresAt = %v, want around %v", claims.ExpiresAt.Time, expected)
		}
	})
}

// TestPeekClaims は署名検証なしのデコードを検証する。
func TestPeekClaims(t *testing.T) {
	t.Parallel()

	t.Run("別のシークレットで署名されたトークンも読めること", func(t *testing.T) {
		t.Parallel()

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
			Name:  "Ana",
			Email: "ana@example.com",
		})
		signed, err := token.SignedString([]byte("backend-only-secret"))
		if err != nil {
			t.Fatalf("署名に失敗: %v", err)
		}

		claims, err := PeekClaims(signed)
		if err != nil {
			t.Fatalf("PeekClaims()でエラーが発生: %v", err)
		}
		if claims.DisplayName() != "Ana" {
			t.Errorf("DisplayName() = %q, want %q", claims.DisplayName(), "Ana")
		}
	})

	t.Run("期限切れのトークンも読めること", func(t *testing.T) {
		t.Parallel()

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
			Email: "old@example.com",
		})
		signed, _ := token.SignedString([]byte(testSecret))

		claims, err := PeekClaims(signed)
		if err != nil {
			t.Fatalf("PeekClaims()でエラーが発生: %v", err)
		}
		if claims.DisplayName() != "old@example.com" {
			t.Errorf("DisplayName() = %q, want %q", claims.DisplayName(), "old@example.com")
		}
	})

	t.Run("JWT形式でない場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := PeekClaims("opaque-session-id"); err == nil {
			t.Fatal("PeekClaims()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestPeekSession はCookieからのクレーム取得を検証する。
func TestPeekSession(t *testing.T) {
	t.Parallel()

	token, err := GenerateDevToken(testSecret, "mod-2", "mod2@example.com")
	if err != nil {
		t.Fatalf("GenerateDevToken()でエラーが発生: %v", err)
	}

	tests := []struct {
		name     string
		cookie   *http.Cookie
		wantOK   bool
		wantName string
	}{
		{name: "JWTのCookieからクレームを取得できること", cookie: &http.Cookie{Name: "access_token", Value: token}, wantOK: true, wantName: "開発用モデレーター"},
		{name: "Cookieがない場合は取得できないこと", wantOK: false},
		{name: "JWTでないCookieは取得できないこと", cookie: &http.Cookie{Name: "access_token", Value: "opaque"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/moderator", nil)
			if tt.cookie != nil {
				c.Request.AddCookie(tt.cookie)
			}

			claims, ok := PeekSession(c, "access_token")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && claims.DisplayName() != tt.wantName {
				t.Errorf("DisplayName() = %q, want %q", claims.DisplayName(), tt.wantName)
			}
		})
	}
}

// TestDisplayName は表示名の優先順位を検証する。
func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		claims SessionClaims
		want   string
	}{
		{name: "Nameが最優先", claims: SessionClaims{Name: "Ana", Email: "a@example.com", UserID: "u1"}, want: "Ana"},
		{name: "次にEmail", claims: SessionClaims{Email: "a@example.com", UserID: "u1"}, want: "a@example.com"},
		{name: "次にUserID", claims: SessionClaims{UserID: "u1"}, want: "u1"},
		{name: "最後にSubject", claims: SessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-1"}}, want: "sub-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.claims.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
