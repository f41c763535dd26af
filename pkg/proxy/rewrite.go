package proxy

import (
	"strings"
)

// Prefix はプロキシ対象となるパスのプレフィックス。
const Prefix = "/api/proxy"

// NormalizeOrigin は上流オリジンの前後の空白と末尾のスラッシュを除去する。
func NormalizeOrigin(origin string) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}

// Rewrite はプロキシパスを上流URLに書き換える。
// pathがPrefix配下でない場合は第2戻り値がfalseになる。
// pathにクエリ文字列が含まれる場合はそのまま引き継ぐ。
func Rewrite(origin, path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, Prefix)
	if !ok {
		return "", false
	}
	if rest != "" && rest[0] != '/' && rest[0] != '?' {
		// "/api/proxyfoo" のようなパスは対象外
		return "", false
	}
	rest = strings.TrimLeft(rest, "/")
	return NormalizeOrigin(origin) + "/" + rest, true
}
