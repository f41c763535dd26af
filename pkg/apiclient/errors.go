package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// fallbackMessage はレスポンスにもトランスポートにもメッセージがない場合のメッセージ。
	fallbackMessage = "リクエストに失敗しました"
	// unknownMessage はエラー以外の値でパニックした場合のメッセージ。
	unknownMessage = "リクエスト中に予期しないエラーが発生しました"
)

// トランスポートエラーコード。
const (
	// CodeBadRequest は4xxレスポンスを表す。
	CodeBadRequest = "ERR_BAD_REQUEST"
	// CodeBadResponse は5xxレスポンスを表す。
	CodeBadResponse = "ERR_BAD_RESPONSE"
	// CodeNetwork はレスポンスを受け取れなかったネットワークエラーを表す。
	CodeNetwork = "ERR_NETWORK"
	// CodeTimeout はタイムアウトを表す。
	CodeTimeout = "ECONNABORTED"
	// CodeCanceled は呼び出し側によるキャンセルを表す。
	CodeCanceled = "ERR_CANCELED"
)

// ErrEmptyEndpoint はエンドポイントが空の場合のエラー。
var ErrEmptyEndpoint = errors.New("エンドポイントが空です")

// APIError はAPIクライアントが返す正規化されたエラー。
// 実装は TransportError / FaultError / UnknownError に限られる。
type APIError interface {
	error
	// Expected は想定内の失敗（未認証の401）であればtrueを返す。
	Expected() bool
	apiError()
}

// ConfigError はAPIクライアントの設定不備を表す。
// 起動時に検出されるべき致命的なエラーであり、APIError ではない。
type ConfigError struct {
	// Field は不備のある設定項目。
	Field string
	// Message は不備の内容。
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("APIクライアントの設定エラー（%s）: %s", e.Field, e.Message)
}

// TransportError はHTTP通信の失敗を表す。
// レスポンスを受け取った場合はStatusが設定され、ネットワークエラーの場合は0になる。
type TransportError struct {
	// Message はレスポンスボディのmessage、トランスポートのメッセージ、固定文言の順に決まる。
	Message string
	// Status はHTTPステータスコード。レスポンスがない場合は0。
	Status int
	// StatusText はステータスの説明文。レスポンスがない場合は空。
	StatusText string
	// Body はデコード済みのレスポンスボディ。JSONでなければ文字列になる。
	Body any
	// Code はトランスポートエラーコード（ERR_BAD_REQUEST など）。
	Code string
	// URL はリクエスト先URL。
	URL string
	// Method はHTTPメソッド。
	Method string
	// RequestSent はリクエストが実際に送信されたかどうか。
	RequestSent bool
	// Err は元のエラー。ステータスエラーの場合はnil。
	Err error
}

func (e *TransportError) Error() string {
	return e.Message
}

// Unwrap は元のエラーを返す。
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Expected はステータスが401の場合にtrueを返す。
func (e *TransportError) Expected() bool {
	return e.Status == http.StatusUnauthorized
}

// HasResponse はサーバーからレスポンスを受け取ったかどうかを返す。
func (e *TransportError) HasResponse() bool {
	return e.Status != 0
}

func (*TransportError) apiError() {}

// FaultError は通信以外の実行時エラー（シリアライズ失敗など）を表す。
// 元のエラーメッセージをそのまま保持する。
type FaultError struct {
	// Err は元のエラー。
	Err error
	// URL はリクエスト先URL。
	URL string
}

func (e *FaultError) Error() string {
	return e.Err.Error()
}

// Unwrap は元のエラーを返す。
func (e *FaultError) Unwrap() error {
	return e.Err
}

// Expected は常にfalseを返す。
func (*FaultError) Expected() bool {
	return false
}

func (*FaultError) apiError() {}

// UnknownError はエラー以外の値でパニックした場合のエラー。
type UnknownError struct {
	// Value はrecoverで得られた値。
	Value any
	// URL はリクエスト先URL。
	URL string
}

func (e *UnknownError) Error() string {
	return unknownMessage
}

// Expected は常にfalseを返す。
func (*UnknownError) Expected() bool {
	return false
}

func (*UnknownError) apiError() {}

// AsAPIError はerrのチェーンから APIError を取り出す。
func AsAPIError(err error) (APIError, bool) {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAPIError はerrがAPIクライアント由来のエラーかどうかを返す。
func IsAPIError(err error) bool {
	_, ok := AsAPIError(err)
	return ok
}

// IsExpected はerrが想定内の失敗（401）かどうかを返す。
func IsExpected(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Expected()
}
