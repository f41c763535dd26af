package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// headerRequestID はリクエストの相関IDを伝播するHTTPヘッダーキー。
const headerRequestID = "X-Request-ID"

// Client はバックエンドAPIを呼び出すクライアント。
// 複数のgoroutineから同時に使用できる。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は末尾スラッシュを除去したAPIのベースURL。
	baseURL string
	// proxyOrigin は末尾スラッシュを除去したプロキシのオリジン。
	proxyOrigin string
	// useProxy はプロキシ経由でURLを組み立てるかどうか。
	useProxy bool
	// developmentMode はCookie送信を抑止するかどうか。
	developmentMode bool
	// logger は診断ログの出力先。
	logger zerolog.Logger
}

// New は設定を検証してAPIクライアントを生成する。
// ベースURLが未設定または不正な場合は *ConfigError を返す。
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, &ConfigError{Field: "BaseURL", Message: "APIのベースURLが設定されていません"}
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &ConfigError{Field: "BaseURL", Message: fmt.Sprintf("不正なURLです: %q", cfg.BaseURL)}
	}

	switch cfg.Environment {
	case "", EnvironmentProduction, EnvironmentDevelopment:
	default:
		return nil, &ConfigError{Field: "Environment", Message: fmt.Sprintf("未知の実行環境です: %q", cfg.Environment)}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "apiclient").Logger()
	}

	return &Client{
		httpClient:      httpClient,
		baseURL:         baseURL,
		proxyOrigin:     strings.TrimRight(strings.TrimSpace(cfg.ProxyOrigin), "/"),
		useProxy:        cfg.usesProxy(),
		developmentMode: cfg.DevelopmentMode,
		logger:          logger,
	}, nil
}

// BaseURL は正規化済みのベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveURL はエンドポイントからリクエスト先URLを組み立てる。
// プロキシ経由になる場合は第2戻り値がtrueになる。
func (c *Client) ResolveURL(endpoint string) (string, bool) {
	endpoint = normalizeEndpoint(endpoint)
	if c.useProxy {
		return c.proxyOrigin + ProxyPrefix + endpoint, true
	}
	return c.baseURL + endpoint, false
}

// normalizeEndpoint はエンドポイントが必ず "/" で始まるようにする。
func normalizeEndpoint(endpoint string) string {
	if strings.HasPrefix(endpoint, "/") {
		return endpoint
	}
	return "/" + endpoint
}

// Request はエンドポイントに1回だけリクエストを送信し、レスポンスボディをTとして返す。
// 失敗時は APIError を実装するエラーを返す。
func Request[T any](ctx context.Context, c *Client, endpoint string, opts *Options) (result T, err error) {
	if opts == nil {
		opts = &Options{}
	}
	method := opts.method()

	if strings.TrimSpace(endpoint) == "" {
		return result, c.fault(ErrEmptyEndpoint, "", method)
	}

	endpoint = normalizeEndpoint(endpoint)
	target, usingProxy := c.ResolveURL(endpoint)

	baseLabel := c.baseURL
	if usingProxy {
		baseLabel = "via proxy (" + ProxyPrefix + ")"
	}
	c.logger.Info().
		Str("method", method).
		Str("url", target).
		Str("baseUrl", baseLabel).
		Str("endpoint", endpoint).
		Bool("usingProxy", usingProxy).
		Msg("[API Request]")

	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = c.recovered(r, target, method)
		}
	}()

	body, err := send(ctx, c, method, target, opts)
	if err != nil {
		return result, err
	}

	if err := decode(body, &result); err != nil {
		return result, c.fault(fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err), target, method)
	}
	return result, nil
}

// send はリクエストを送信し、2xxの場合のみレスポンスボディを返す。
func send(ctx context.Context, c *Client, method, target string, opts *Options) ([]byte, error) {
	bodyReader, err := encodeBody(opts)
	if err != nil {
		return nil, c.fault(err, target, method)
	}

	var sent bool
	trace := &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				sent = true
			}
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), method, target, bodyReader)
	if err != nil {
		return nil, c.fault(fmt.Errorf("HTTPリクエストの作成に失敗: %w", err), target, method)
	}
	applyHeaders(req, opts)
	if req.Header.Get(headerRequestID) == "" {
		req.Header.Set(headerRequestID, uuid.NewString())
	}
	if opts.includeCredentials(c.developmentMode) {
		for _, cookie := range opts.Cookies {
			req.AddCookie(cookie)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.networkFailure(ctx, err, target, method, sent)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.networkFailure(ctx, fmt.Errorf("レスポンスの読み取りに失敗: %w", err), target, method, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusFailure(resp, body, target, method)
	}
	return body, nil
}

// encodeBody はOptionsのボディをリクエスト用のReaderに変換する。
func encodeBody(opts *Options) (io.Reader, error) {
	if opts.Body == nil {
		return nil, nil
	}
	if !opts.Form {
		jsonBody, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		return bytes.NewReader(jsonBody), nil
	}

	switch b := opts.Body.(type) {
	case io.Reader:
		return b, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case url.Values:
		return strings.NewReader(b.Encode()), nil
	default:
		return nil, fmt.Errorf("フォームボディとして扱えない型です: %T", opts.Body)
	}
}

// applyHeaders はデフォルトヘッダーと呼び出し側のヘッダーを設定する。
func applyHeaders(req *http.Request, opts *Options) {
	if !opts.Form {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if _, ok := opts.Body.(url.Values); ok && opts.Form && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
}

// decode は2xxレスポンスのボディをresultにデコードする。
// 空ボディはゼロ値のまま、[]byteは生のボディを受け取る。
func decode[T any](body []byte, result *T) error {
	if raw, ok := any(result).(*[]byte); ok {
		*raw = body
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, result)
}

// statusFailure は非2xxレスポンスを TransportError に変換してログ出力する。
func (c *Client) statusFailure(resp *http.Response, raw []byte, target, method string) error {
	body := parseErrorBody(raw)
	message := coalesce(
		messageFromBody(body),
		fmt.Sprintf("ステータスコード %d でリクエストが失敗しました", resp.StatusCode),
		fallbackMessage,
	)

	apiErr := &TransportError{
		Message:     message,
		Status:      resp.StatusCode,
		StatusText:  statusText(resp),
		Body:        body,
		Code:        statusCode(resp.StatusCode),
		URL:         target,
		Method:      method,
		RequestSent: true,
	}
	c.logTransportError(apiErr)
	return apiErr
}

// networkFailure はレスポンスを受け取れなかった失敗を TransportError に変換してログ出力する。
func (c *Client) networkFailure(ctx context.Context, err error, target, method string, sent bool) error {
	apiErr := &TransportError{
		Message:     coalesce(err.Error(), fallbackMessage),
		Code:        networkCode(ctx, err),
		URL:         target,
		Method:      method,
		RequestSent: sent,
		Err:         err,
	}
	c.logTransportError(apiErr)
	return apiErr
}

// logTransportError は401を警告、それ以外をエラーとしてログ出力する。
func (c *Client) logTransportError(e *TransportError) {
	if e.Expected() {
		c.logger.Warn().
			Str("url", e.URL).
			Str("message", "リクエストには認証が必要です").
			Msg("[API Warning - Unauthorized]")
		return
	}

	requestState := "No request"
	if e.RequestSent {
		requestState = "Request made"
	}
	c.logger.Error().
		Int("status", e.Status).
		Str("statusText", e.StatusText).
		Str("message", e.Message).
		Str("url", e.URL).
		Str("method", e.Method).
		Interface("data", e.Body).
		Str("code", e.Code).
		Str("request", requestState).
		Msg("[API Error]")
}

// fault は通信以外の実行時エラーを FaultError に変換してログ出力する。
func (c *Client) fault(err error, target, method string) error {
	c.logger.Error().
		Err(err).
		Str("message", err.Error()).
		Str("url", target).
		Str("method", method).
		Msg("[API Error - Generic]")
	return &FaultError{Err: err, URL: target}
}

// recovered はrecoverで得た値をAPIエラーに変換する。
func (c *Client) recovered(r any, target, method string) error {
	if err, ok := r.(error); ok {
		return c.fault(err, target, method)
	}
	c.logger.Error().
		Interface("error", r).
		Str("url", target).
		Msg("[API Error - Unknown]")
	return &UnknownError{Value: r, URL: target}
}

// parseErrorBody はエラーレスポンスのボディをJSONとしてデコードする。
// JSONでない場合は文字列、空の場合はnilを返す。
func parseErrorBody(raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return string(trimmed)
	}
	return v
}

// messageFromBody はボディがmessageフィールドを持つオブジェクトであればその値を返す。
func messageFromBody(body any) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	v, ok := obj["message"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// statusText は "404 Not Found" 形式のStatusから説明文を取り出す。
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// statusCode はステータスコードに対応するトランスポートエラーコードを返す。
func statusCode(status int) string {
	switch {
	case status >= 400 && status < 500:
		return CodeBadRequest
	case status >= 500 && status < 600:
		return CodeBadResponse
	default:
		return ""
	}
}

// networkCode はネットワークエラーに対応するトランスポートエラーコードを返す。
func networkCode(ctx context.Context, err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return CodeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}
	return CodeNetwork
}

func coalesce(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
