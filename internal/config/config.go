// Package config はダッシュボードの起動時設定を読み込み、検証する。
//
// 読み込み順は .env ファイル、YAMLファイル（CONFIG_FILE）、環境変数で、
// 後のものが優先される。必須項目は Validate で起動時に一度だけ検証する。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/modconsole/pkg/apiclient"
	"github.com/nao1215/modconsole/pkg/middleware"
)

// Config はダッシュボードの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `yaml:"port"`
	// APIBaseURL はバックエンドAPIのベースURL。必須。
	APIBaseURL string `yaml:"api_base_url"`
	// ProxyUpstream は /api/proxy の転送先オリジン。空の場合はAPIBaseURL。
	ProxyUpstream string `yaml:"proxy_upstream"`
	// PublicOrigin はブラウザから見たダッシュボード自身のオリジン。
	PublicOrigin string `yaml:"public_origin"`
	// Environment は実行環境（production / development）。
	Environment apiclient.Environment `yaml:"environment"`
	// DevelopmentMode が有効な場合、APIクライアントはCookieを送信しない。
	DevelopmentMode bool `yaml:"development_mode"`
	// SessionCookie はアクセスゲートが確認するCookie名。
	SessionCookie string `yaml:"session_cookie"`
	// GatedPaths はアクセスゲートの対象パスパターン。
	GatedPaths []string `yaml:"gated_paths"`
	// DatabasePath はモデレーション履歴を保存するSQLiteのパス。
	DatabasePath string `yaml:"database_path"`
	// JWTSecret は開発用ログインのトークン署名鍵。
	JWTSecret string `yaml:"jwt_secret"`
	// AllowedOrigins はCORSを許可するオリジン。
	AllowedOrigins []string `yaml:"allowed_origins"`
	// LogLevel はログレベル。
	LogLevel string `yaml:"log_level"`
}

// Default はデフォルト値を設定したConfigを返す。
func Default() Config {
	return Config{
		Port:          "8080",
		Environment:   apiclient.EnvironmentProduction,
		SessionCookie: middleware.DefaultSessionCookie,
		GatedPaths:    append([]string(nil), middleware.DefaultGatePatterns...),
		DatabasePath:  "/data/dashboard.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		JWTSecret:     "dev-secret-key",
		LogLevel:      "info",
	}
}

// Load は .env、YAMLファイル、環境変数の順に設定を読み込み、検証済みのConfigを返す。
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile はYAMLファイルの内容でConfigを上書きする。
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("設定ファイルのパースに失敗: %w", err)
	}
	return nil
}

// applyEnv は設定されている環境変数でConfigを上書きする。
func (c *Config) applyEnv() error {
	c.Port = getEnvOr("PORT", c.Port)
	c.APIBaseURL = getEnvOr("API_BASE_URL", c.APIBaseURL)
	c.ProxyUpstream = getEnvOr("API_PROXY_UPSTREAM", c.ProxyUpstream)
	c.PublicOrigin = getEnvOr("PUBLIC_ORIGIN", c.PublicOrigin)
	c.Environment = apiclient.Environment(getEnvOr("APP_ENV", string(c.Environment)))
	c.SessionCookie = getEnvOr("SESSION_COOKIE", c.SessionCookie)
	c.DatabasePath = getEnvOr("DATABASE_PATH", c.DatabasePath)
	c.JWTSecret = getEnvOr("JWT_SECRET", c.JWTSecret)
	c.LogLevel = getEnvOr("LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("DEVELOPMENT_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEVELOPMENT_MODE の値が不正です: %q", v)
		}
		c.DevelopmentMode = b
	}
	if v := os.Getenv("GATED_PATHS"); v != "" {
		c.GatedPaths = splitList(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	return nil
}

// normalize は前後の空白と末尾のスラッシュを除去し、未指定の項目を補う。
func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.ProxyUpstream = strings.TrimRight(strings.TrimSpace(c.ProxyUpstream), "/")
	c.PublicOrigin = strings.TrimRight(strings.TrimSpace(c.PublicOrigin), "/")
	if c.ProxyUpstream == "" {
		c.ProxyUpstream = c.APIBaseURL
	}
	if c.Environment == "" {
		c.Environment = apiclient.EnvironmentProduction
	}
}

// Validate は必須項目とURL形式を検証する。
func (c Config) Validate() error {
	var errs []error
	if c.APIBaseURL == "" {
		errs = append(errs, &apiclient.ConfigError{Field: "API_BASE_URL", Message: "APIのベースURLが設定されていません"})
	} else if err := validateURL(c.APIBaseURL); err != nil {
		errs = append(errs, &apiclient.ConfigError{Field: "API_BASE_URL", Message: err.Error()})
	}
	if c.ProxyUpstream != "" {
		if err := validateURL(c.ProxyUpstream); err != nil {
			errs = append(errs, &apiclient.ConfigError{Field: "API_PROXY_UPSTREAM", Message: err.Error()})
		}
	}
	if c.PublicOrigin != "" {
		if err := validateURL(c.PublicOrigin); err != nil {
			errs = append(errs, &apiclient.ConfigError{Field: "PUBLIC_ORIGIN", Message: err.Error()})
		}
	}
	switch c.Environment {
	case apiclient.EnvironmentProduction, apiclient.EnvironmentDevelopment:
	default:
		errs = append(errs, &apiclient.ConfigError{Field: "APP_ENV", Message: fmt.Sprintf("production または development を指定してください: %q", c.Environment)})
	}
	if c.SessionCookie == "" {
		errs = append(errs, &apiclient.ConfigError{Field: "SESSION_COOKIE", Message: "Cookie名が空です"})
	}
	if c.Port == "" {
		errs = append(errs, &apiclient.ConfigError{Field: "PORT", Message: "ポートが空です"})
	}
	return errors.Join(errs...)
}

// IsDevelopment は開発環境かどうかを返す。
func (c Config) IsDevelopment() bool {
	return c.Environment == apiclient.EnvironmentDevelopment
}

// validateURL はスキームとホストを持つURLかどうかを検証する。
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("不正なURLです: %q", raw)
	}
	return nil
}

// splitList はカンマ区切りの文字列を空要素を除いて分割する。
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}
