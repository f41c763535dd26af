package moderation

import (
	"errors"
	"testing"
	"time"
)

// TestActions はアクション一覧を検証する。
func TestActions(t *testing.T) {
	t.Parallel()

	t.Run("表示順に6種類のアクションが返ること", func(t *testing.T) {
		t.Parallel()

		want := []Action{ActionWarn, ActionExclude, ActionSuspend, ActionBan, ActionArchive, ActionRevert}
		got := Actions()
		if len(got) != len(want) {
			t.Fatalf("len = %d, want %d", len(got), len(want))
		}
		for i, a := range want {
			if got[i].Action != a {
				t.Errorf("Actions()[%d] = %q, want %q", i, got[i].Action, a)
			}
			if got[i].Label == "" || got[i].Description == "" {
				t.Errorf("%q のLabel/Descriptionが空", a)
			}
		}
	})

	t.Run("返された一覧を変更しても元の一覧に影響しないこと", func(t *testing.T) {
		t.Parallel()

		got := Actions()
		got[0].Label = "changed"
		if Actions()[0].Label == "changed" {
			t.Error("内部の一覧が変更された")
		}
	})
}

// TestParseAction はアクション文字列の変換を検証する。
func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Action
		wantErr bool
	}{
		{input: "warn", want: ActionWarn},
		{input: " BAN ", want: ActionBan},
		{input: "Revert", want: ActionRevert},
		{input: "delete", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAction(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownAction) {
					t.Fatalf("err = %v, want ErrUnknownAction", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAction()でエラーが発生: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseAction(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestActionRequestValidate はペイロード検証を検証する。
func TestActionRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     ActionRequest
		wantErr bool
	}{
		{name: "警告は期間なしで有効", req: ActionRequest{Action: ActionWarn, Reason: "spam"}},
		{name: "一時停止は期間ありで有効", req: ActionRequest{Action: ActionSuspend, DurationDays: 7}},
		{name: "一時停止の期間なしは無効", req: ActionRequest{Action: ActionSuspend}, wantErr: true},
		{name: "一時停止以外で期間指定は無効", req: ActionRequest{Action: ActionBan, DurationDays: 3}, wantErr: true},
		{name: "未知のアクションは無効", req: ActionRequest{Action: "mute"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestActionRequestUntil は一時停止の終了日時を検証する。
func TestActionRequestUntil(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)

	if got := (ActionRequest{Action: ActionSuspend, DurationDays: 3}).Until(from); !got.Equal(time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Until() = %v", got)
	}
	if got := (ActionRequest{Action: ActionWarn}).Until(from); !got.IsZero() {
		t.Errorf("Until() = %v, want zero", got)
	}
}
