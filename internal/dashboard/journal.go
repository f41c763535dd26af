package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/modconsole/pkg/moderation"
)

// 履歴エントリの状態。
const (
	// StatusSucceeded はバックエンドAPIがアクションを受け付けたことを表す。
	StatusSucceeded = "succeeded"
	// StatusFailed はバックエンドAPIの呼び出しが失敗したことを表す。
	StatusFailed = "failed"
)

// createdAtLayout は記録日時の保存形式。文字列の大小と時刻の前後が一致するよう固定長にする。
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry はモデレーションアクションの実行履歴。
type Entry struct {
	// ID は履歴の一意識別子（UUID）。
	ID string `json:"id"`
	// ReportID は対象の通報ID。
	ReportID string `json:"report_id"`
	// Action は実行したアクション。
	Action moderation.Action `json:"action"`
	// Reason はアクションの理由。
	Reason string `json:"reason"`
	// DurationDays は一時停止の日数。
	DurationDays int `json:"duration_days"`
	// Moderator は実行したモデレーターの表示名。
	Moderator string `json:"moderator"`
	// Status は実行結果（succeeded / failed）。
	Status string `json:"status"`
	// ErrorMessage は失敗時のエラーメッセージ。
	ErrorMessage string `json:"error_message,omitempty"`
	// CreatedAt は記録日時。
	CreatedAt time.Time `json:"created_at"`
}

// Journal はモデレーション履歴をSQLiteに保存する。
type Journal struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// now は現在時刻を返す関数。
	now func() time.Time
}

// NewJournal は新しいJournalを生成する。スキーマは事前に適用されている必要がある。
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db, now: time.Now}
}

// Record は履歴を1件保存し、IDと記録日時を設定したエントリを返す。
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = j.now().UTC()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO moderation_actions
			(id, report_id, action, reason, duration_days, moderator, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ReportID, string(e.Action), e.Reason, e.DurationDays, e.Moderator, e.Status, e.ErrorMessage,
		e.CreatedAt.Format(createdAtLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("モデレーション履歴の保存に失敗: %w", err)
	}
	return e, nil
}

// Recent は新しい順に最大limit件の履歴を返す。
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, report_id, action, reason, duration_days, moderator, status, error_message, created_at
		FROM moderation_actions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("モデレーション履歴の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e         Entry
			action    string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.ReportID, &action, &e.Reason, &e.DurationDays, &e.Moderator, &e.Status, &e.ErrorMessage, &createdAt); err != nil {
			return nil, fmt.Errorf("モデレーション履歴の読み取りに失敗: %w", err)
		}
		e.Action = moderation.Action(action)
		e.CreatedAt, err = time.Parse(createdAtLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("記録日時のパースに失敗: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("モデレーション履歴の取得に失敗: %w", err)
	}
	return entries, nil
}
