package apiclient

import (
	"net/http"
)

// Options は1回のリクエストに対する指定。ゼロ値はボディなしのGETを表す。
type Options struct {
	// Body はリクエストボディ。Formがfalseの場合はJSONにシリアライズされる。
	Body any
	// Method はHTTPメソッド。空の場合、Bodyがあれば POST、なければ GET になる。
	Method string
	// Headers はデフォルトヘッダーに上書きマージされる追加ヘッダー。
	Headers map[string]string
	// WithCredentials はCookieを送信するかどうか。nilの場合はtrueとして扱う。
	WithCredentials *bool
	// Form はBodyがエンコード済みのフォームであることを表す。
	// io.Reader / []byte / string / url.Values を受け付け、Content-Typeは強制しない。
	Form bool
	// Cookies は資格情報を送信する場合に付与するCookie。
	Cookies []*http.Cookie
}

// Bool はboolのポインタを返す。WithCredentialsの指定に使用する。
func Bool(v bool) *bool {
	return &v
}

// method は解決済みのHTTPメソッドを返す。
func (o *Options) method() string {
	if o.Method != "" {
		return o.Method
	}
	if o.Body != nil {
		return http.MethodPost
	}
	return http.MethodGet
}

// includeCredentials はCookieを送信するかどうかを返す。
// 開発モードでは常にfalseになる。
func (o *Options) includeCredentials(developmentMode bool) bool {
	if developmentMode {
		return false
	}
	if o.WithCredentials == nil {
		return true
	}
	return *o.WithCredentials
}
