// Package logging はzerologベースの構造化ロガーを生成する。
//
// 開発環境では人間が読みやすいコンソール形式、本番環境ではJSON形式で出力する。
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New は指定されたレベルのロガーを生成する。
// prettyがtrueの場合はコンソール形式で出力する。
// 不正なレベル文字列はinfoとして扱う。
func New(level string, pretty bool) zerolog.Logger {
	return NewWithWriter(os.Stderr, level, pretty)
}

// NewWithWriter は出力先を指定してロガーを生成する。
func NewWithWriter(w io.Writer, level string, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel はログレベル文字列をzerologのレベルに変換する。
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
