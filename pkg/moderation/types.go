package moderation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Action はモデレーションアクションの種類を表す。
type Action string

const (
	// ActionWarn は利用規約違反をユーザーに通知する。アカウントは制限しない。
	ActionWarn Action = "warn"
	// ActionExclude は通報された投稿・コメント・商品をプラットフォームから削除する。
	ActionExclude Action = "exclude"
	// ActionSuspend はユーザーのアクセスを一定期間停止する。
	ActionSuspend Action = "suspend"
	// ActionBan はユーザーのアクセスを恒久的に剥奪する。
	ActionBan Action = "ban"
	// ActionArchive は通報を対応済みとしてクローズし、履歴のみ残す。
	ActionArchive Action = "archive"
	// ActionRevert は誤って削除されたコンテンツを復元する。
	ActionRevert Action = "revert"
)

// Info はアクションの表示用情報。
type Info struct {
	// Action はアクションの種類。
	Action Action
	// Label はボタンに表示する名前。
	Label string
	// Description はアクションの効果の説明。
	Description string
	// Destructive は取り消しが難しいアクションかどうか。
	Destructive bool
}

// catalog は画面に表示する順序で並べたアクション一覧。
var catalog = []Info{
	{Action: ActionWarn, Label: "警告", Description: "ルール違反についてユーザーに通知を送ります。アカウントの制限は行いません。"},
	{Action: ActionExclude, Label: "削除", Description: "通報された投稿・コメント・商品をプラットフォームから削除します。", Destructive: true},
	{Action: ActionSuspend, Label: "一時停止", Description: "指定した期間、ユーザーのアクセスを停止します。", Destructive: true},
	{Action: ActionBan, Label: "永久停止", Description: "ユーザーのアクセスを恒久的に剥奪します。復帰はできません。", Destructive: true},
	{Action: ActionArchive, Label: "アーカイブ", Description: "通報を対応済みとしてクローズし、履歴のみを残します。"},
	{Action: ActionRevert, Label: "取り消し", Description: "誤って削除されたコンテンツを復元します。"},
}

// ErrUnknownAction は未知のアクションが指定された場合のエラー。
var ErrUnknownAction = errors.New("未知のモデレーションアクションです")

// Actions は表示順のアクション一覧を返す。
func Actions() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// ParseAction は文字列をアクションに変換する。大文字小文字と前後の空白は無視する。
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, info := range catalog {
		if info.Action == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Describe はアクションの表示用情報を返す。
func Describe(a Action) (Info, bool) {
	for _, info := range catalog {
		if info.Action == a {
			return info, true
		}
	}
	return Info{}, false
}

// ActionRequest はバックエンドAPIへ送信するモデレーションアクションのペイロード。
type ActionRequest struct {
	// Action はアクションの種類。
	Action Action `json:"action"`
	// Reason はアクションの理由。
	Reason string `json:"reason,omitempty"`
	// DurationDays は一時停止の日数。suspend以外では0。
	DurationDays int `json:"durationDays,omitempty"`
}

// Validate はペイロードの整合性を検証する。
func (r ActionRequest) Validate() error {
	if _, ok := Describe(r.Action); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
	if r.Action == ActionSuspend && r.DurationDays <= 0 {
		return errors.New("一時停止には1日以上の期間が必要です")
	}
	if r.Action != ActionSuspend && r.DurationDays != 0 {
		return errors.New("期間を指定できるのは一時停止のみです")
	}
	return nil
}

// Until は一時停止の終了日時を返す。suspend以外ではゼロ値を返す。
func (r ActionRequest) Until(from time.Time) time.Time {
	if r.Action != ActionSuspend {
		return time.Time{}
	}
	return from.AddDate(0, 0, r.DurationDays)
}
