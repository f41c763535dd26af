// Package moderation はモデレーターが通報に対して実行できるアクションを定義する。
package moderation
