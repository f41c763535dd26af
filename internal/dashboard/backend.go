package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/modconsole/pkg/apiclient"
	"github.com/nao1215/modconsole/pkg/moderation"
)

// Artisan はバックエンドAPIが返す出品者。
type Artisan struct {
	// ID は出品者の一意識別子。
	ID string `json:"id"`
	// Name は出品者の表示名。
	Name string `json:"name"`
	// Email は出品者のメールアドレス。
	Email string `json:"email"`
	// Status はアカウントの状態（active / suspended / banned など）。
	Status string `json:"status"`
	// CreatedAt は登録日時。
	CreatedAt time.Time `json:"createdAt"`
}

// Report はバックエンドAPIが返す通報。
type Report struct {
	// ID は通報の一意識別子。
	ID string `json:"id"`
	// TargetType は通報対象の種類（post / comment / product / user）。
	TargetType string `json:"targetType"`
	// TargetID は通報対象の識別子。
	TargetID string `json:"targetId"`
	// Reason は通報理由。
	Reason string `json:"reason"`
	// Status は通報の状態（open / archived など）。
	Status string `json:"status"`
	// CreatedAt は通報日時。
	CreatedAt time.Time `json:"createdAt"`
}

// reportStatusOpen は未対応の通報の状態。
const reportStatusOpen = "open"

// sessionOptions はセッションCookieを付与したリクエストオプションを返す。
func (s *Server) sessionOptions(r *http.Request) *apiclient.Options {
	opts := &apiclient.Options{}
	if c, err := r.Cookie(s.cfg.SessionCookie); err == nil && c.Value != "" {
		opts.Cookies = []*http.Cookie{{Name: s.cfg.SessionCookie, Value: c.Value}}
	}
	return opts
}

// fetchArtisans は出品者一覧を取得する。
func (s *Server) fetchArtisans(ctx context.Context, r *http.Request) ([]Artisan, error) {
	artisans, err := apiclient.Request[[]Artisan](ctx, s.api, "/artisans", s.sessionOptions(r))
	if err != nil {
		return nil, fmt.Errorf("出品者一覧の取得に失敗: %w", err)
	}
	return artisans, nil
}

// fetchReports は通報一覧を取得する。
func (s *Server) fetchReports(ctx context.Context, r *http.Request) ([]Report, error) {
	reports, err := apiclient.Request[[]Report](ctx, s.api, "/reports", s.sessionOptions(r))
	if err != nil {
		return nil, fmt.Errorf("通報一覧の取得に失敗: %w", err)
	}
	return reports, nil
}

// submitAction は通報に対するモデレーションアクションをバックエンドAPIへ送信する。
func (s *Server) submitAction(ctx context.Context, r *http.Request, reportID string, req moderation.ActionRequest) error {
	opts := s.sessionOptions(r)
	opts.Body = req
	endpoint := "/reports/" + url.PathEscape(reportID) + "/actions"
	if _, err := apiclient.Request[map[string]any](ctx, s.api, endpoint, opts); err != nil {
		return fmt.Errorf("モデレーションアクションの送信に失敗: %w", err)
	}
	return nil
}

// countOpen は未対応の通報数を返す。
func countOpen(reports []Report) int {
	n := 0
	for _, r := range reports {
		if r.Status == reportStatusOpen {
			n++
		}
	}
	return n
}
