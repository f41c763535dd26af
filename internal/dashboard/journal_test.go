package dashboard

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/nao1215/modconsole/pkg/migration"
	"github.com/nao1215/modconsole/pkg/moderation"
)

// openTestDB はスキーマ適用済みのインメモリSQLiteを開く。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDB接続に失敗: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := migration.Run(context.Background(), db, migrationsFS, "migrations", zerolog.Nop()); err != nil {
		t.Fatalf("スキーマ初期化に失敗: %v", err)
	}
	return db
}

// TestJournal はモデレーション履歴の保存と取得を検証する。
func TestJournal(t *testing.T) {
	t.Parallel()

	t.Run("IDと記録日時が設定されること", func(t *testing.T) {
		t.Parallel()

		j := NewJournal(openTestDB(t))
		fixed := time.Date(2026, 10, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*60*60))
		j.now = func() time.Time { return fixed }

		got, err := j.Record(context.Background(), Entry{
			ReportID:     "report-1",
			Action:       moderation.ActionSuspend,
			Reason:       "スパム",
			DurationDays: 7,
			Moderator:    "alice",
			Status:       StatusSucceeded,
		})
		if err != nil {
			t.Fatalf("Record()でエラーが発生: %v", err)
		}
		if got.ID == "" {
			t.Error("IDが設定されていない")
		}
		if !got.CreatedAt.Equal(fixed) || got.CreatedAt.Location() != time.UTC {
			t.Errorf("CreatedAt = %v, want %v (UTC)", got.CreatedAt, fixed.UTC())
		}

		entries, err := j.Recent(context.Background(), 10)
		if err != nil {
			t.Fatalf("Recent()でエラーが発生: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("len = %d, want 1", len(entries))
		}
		e := entries[0]
		if e.ID != got.ID || e.ReportID != "report-1" || e.Action != moderation.ActionSuspend ||
			e.Reason != "スパム" || e.DurationDays != 7 || e.Moderator != "alice" || e.Status != StatusSucceeded {
			t.Errorf("entry = %+v", e)
		}
		if !e.CreatedAt.Equal(fixed) {
			t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, fixed)
		}
	})

	t.Run("新しい順に件数を制限して返すこと", func(t *testing.T) {
		t.Parallel()

		j := NewJournal(openTestDB(t))
		base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		// 小数秒の桁数が異なっても時刻順に並ぶこと
		offsets := []time.Duration{0, 100 * time.Millisecond, 120 * time.Millisecond, time.Second}
		for i, off := range offsets {
			at := base.Add(off)
			j.now = func() time.Time { return at }
			if _, err := j.Record(context.Background(), Entry{
				ReportID: string(rune('a' + i)),
				Action:   moderation.ActionWarn,
				Status:   StatusSucceeded,
			}); err != nil {
				t.Fatalf("Record()でエラーが発生: %v", err)
			}
		}

		entries, err := j.Recent(context.Background(), 3)
		if err != nil {
			t.Fatalf("Recent()でエラーが発生: %v", err)
		}
		var got []string
		for _, e := range entries {
			got = append(got, e.ReportID)
		}
		want := []string{"d", "c", "b"}
		if len(got) != len(want) {
			t.Fatalf("got = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("got = %v, want %v", got, want)
				break
			}
		}
	})

	t.Run("履歴がない場合は空スライスを返すこと", func(t *testing.T) {
		t.Parallel()

		j := NewJournal(openTestDB(t))
		entries, err := j.Recent(context.Background(), 0)
		if err != nil {
			t.Fatalf("Recent()でエラーが発生: %v", err)
		}
		if entries == nil || len(entries) != 0 {
			t.Errorf("entries = %#v, want empty slice", entries)
		}
	})

	t.Run("失敗した実行のエラーメッセージが保存されること", func(t *testing.T) {
		t.Parallel()

		j := NewJournal(openTestDB(t))
		if _, err := j.Record(context.Background(), Entry{
			ReportID:     "report-9",
			Action:       moderation.ActionBan,
			Status:       StatusFailed,
			ErrorMessage: "ステータスコード 500 でリクエストが失敗しました",
		}); err != nil {
			t.Fatalf("Record()でエラーが発生: %v", err)
		}

		entries, err := j.Recent(context.Background(), 1)
		if err != nil {
			t.Fatalf("Recent()でエラーが発生: %v", err)
		}
		if len(entries) != 1 || entries[0].Status != StatusFailed || entries[0].ErrorMessage == "" {
			t.Errorf("entries = %+v", entries)
		}
	})
}
