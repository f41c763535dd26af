// Package apiclient はバックエンドAPIを呼び出すクライアントを提供する。
//
// 1回の呼び出しにつき1回だけHTTPリクエストを送信し、成功時はレスポンスボディを
// 呼び出し側の型にデコードして返す。失敗時はすべて APIError を実装する
// エラー（TransportError / FaultError / UnknownError）に正規化されるため、
// 呼び出し側はメッセージ文字列やステータスコードを個別に調べずに分岐できる。
// リトライ、キャッシュ、独自のタイムアウトは行わない。
package apiclient
