package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// devTokenIssuer は開発用トークンの発行者。
const devTokenIssuer = "modconsole-dev"

// SessionClaims はセッショントークンのクレーム（ペイロード）を表す。
// 画面表示用にのみ使用し、アクセス制御には使用しない。
type SessionClaims struct {
	jwt.RegisteredClaims
	// UserID はモデレーターの一意識別子。
	UserID string `json:"user_id,omitempty"`
	// Email はモデレーターのメールアドレス。
	Email string `json:"email,omitempty"`
	// Name はモデレーターの表示名。
	Name string `json:"name,omitempty"`
	// Role はモデレーターの権限。
	Role string `json:"role,omitempty"`
}

// DisplayName は画面表示用の名前を返す。
func (c *SessionClaims) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Email != "":
		return c.Email
	case c.UserID != "":
		return c.UserID
	default:
		return c.Subject
	}
}

// GenerateDevToken は開発環境用のセッショントークンを生成する。
// 本番環境では使用しない。
func GenerateDevToken(secret, userID, email string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    devTokenIssuer,
		},
		UserID: userID,
		Email:  email,
		Name:   "開発用モデレーター",
		Role:   "moderator",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// PeekClaims はセッショントークンを署名検証せずにデコードする。
// 署名と有効期限の検証はバックエンドAPIの責務であり、ここでは表示用に中身を読むだけ。
func PeekClaims(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("セッショントークンのデコードに失敗: %w", err)
	}
	return claims, nil
}

// PeekSession はリクエストのセッションCookieからクレームを取り出す。
// Cookieがない、またはJWT形式でない場合は第2戻り値がfalseになる。
func PeekSession(c *gin.Context, cookieName string) (*SessionClaims, bool) {
	token, err := c.Cookie(cookieName)
	if err != nil || token == "" {
		return nil, false
	}
	claims, err := PeekClaims(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}
