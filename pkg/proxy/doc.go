// Package proxy は同一オリジンのプロキシパスを上流APIへ転送するゲートウェイを提供する。
//
// ブラウザから /api/proxy/<rest> へ送られたリクエストを <上流オリジン>/<rest> へ
// メソッド・ボディ・ヘッダーを変えずに転送する。開発時のクロスオリジン制約を
// 回避するためのもので、状態を持たない。
package proxy
