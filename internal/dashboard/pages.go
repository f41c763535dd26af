package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/modconsole/pkg/apiclient"
	"github.com/nao1215/modconsole/pkg/middleware"
	"github.com/nao1215/modconsole/pkg/moderation"
)

const (
	// recentJournalLimit は概要画面に表示する履歴の件数。
	recentJournalLimit = 10
	// maxJournalLimit は履歴APIで取得できる最大件数。
	maxJournalLimit = 100
	// devModeratorID は開発用ログインのユーザーID。
	devModeratorID = "dev-moderator"
	// devModeratorEmail は開発用ログインのデフォルトメールアドレス。
	devModeratorEmail = "dev@localhost"
	// devSessionMaxAge は開発用セッションCookieの有効期間（秒）。
	devSessionMaxAge = 24 * 60 * 60
)

// actionResults はアクション実行後のリダイレクトで渡す結果と表示メッセージ。
var actionResults = map[string]string{
	StatusSucceeded: "アクションを実行しました",
	StatusFailed:    "アクションの実行に失敗しました",
}

// pageData はテンプレートに渡す値。
type pageData struct {
	Title       string
	Moderator   string
	Flash       string
	Error       string
	DevLogin    bool
	Artisans    []Artisan
	Reports     []Report
	OpenReports int
	Journal     []Entry
	Actions     []moderation.Info
}

// newPageData は共通項目を設定したpageDataを返す。
func (s *Server) newPageData(c *gin.Context, title string) pageData {
	data := pageData{Title: title}
	if claims, ok := middleware.PeekSession(c, s.cfg.SessionCookie); ok {
		data.Moderator = claims.DisplayName()
	}
	return data
}

// handleLanding は公開トップページを返すハンドラを返す。
func (s *Server) handleLanding() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := s.newPageData(c, "ログイン")
		data.DevLogin = s.cfg.IsDevelopment()
		c.HTML(http.StatusOK, "landing", data)
	}
}

// handleOverview は出品者数、未対応の通報数、最近の履歴を表示するハンドラを返す。
func (s *Server) handleOverview() gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			artisans []Artisan
			reports  []Report
		)
		g, ctx := errgroup.WithContext(c.Request.Context())
		g.Go(func() error {
			var err error
			artisans, err = s.fetchArtisans(ctx, c.Request)
			return err
		})
		g.Go(func() error {
			var err error
			reports, err = s.fetchReports(ctx, c.Request)
			return err
		})
		if err := g.Wait(); err != nil {
			s.renderError(c, "ダッシュボード", err)
			return
		}

		entries, err := s.journal.Recent(c.Request.Context(), recentJournalLimit)
		if err != nil {
			s.renderError(c, "ダッシュボード", err)
			return
		}

		data := s.newPageData(c, "ダッシュボード")
		data.Artisans = artisans
		data.OpenReports = countOpen(reports)
		data.Journal = entries
		c.HTML(http.StatusOK, "overview", data)
	}
}

// handleArtisans は出品者一覧を表示するハンドラを返す。
func (s *Server) handleArtisans() gin.HandlerFunc {
	return func(c *gin.Context) {
		artisans, err := s.fetchArtisans(c.Request.Context(), c.Request)
		if err != nil {
			s.renderError(c, "出品者", err)
			return
		}
		data := s.newPageData(c, "出品者")
		data.Artisans = artisans
		c.HTML(http.StatusOK, "artisans", data)
	}
}

// handleReports は通報一覧とアクションの説明を表示するハンドラを返す。
func (s *Server) handleReports() gin.HandlerFunc {
	return func(c *gin.Context) {
		reports, err := s.fetchReports(c.Request.Context(), c.Request)
		if err != nil {
			s.renderError(c, "通報", err)
			return
		}
		data := s.newPageData(c, "通報")
		data.Reports = reports
		data.Actions = moderation.Actions()
		data.Flash = actionResults[c.Query("result")]
		c.HTML(http.StatusOK, "reports", data)
	}
}

// handleReportAction はフォームから送信されたモデレーションアクションを実行するハンドラを返す。
// 結果は履歴に記録し、通報一覧へ303でリダイレクトする。
func (s *Server) handleReportAction() gin.HandlerFunc {
	return func(c *gin.Context) {
		reportID := c.Param("id")

		req, err := parseActionForm(c)
		if err == nil {
			err = req.Validate()
		}
		if err != nil {
			data := s.newPageData(c, "通報")
			data.Error = err.Error()
			c.HTML(http.StatusBadRequest, "error", data)
			return
		}

		submitErr := s.submitAction(c.Request.Context(), c.Request, reportID, req)
		if apiclient.IsExpected(submitErr) {
			s.expireSession(c)
			return
		}

		entry := Entry{
			ReportID:     reportID,
			Action:       req.Action,
			Reason:       req.Reason,
			DurationDays: req.DurationDays,
			Moderator:    s.newPageData(c, "").Moderator,
			Status:       StatusSucceeded,
		}
		if submitErr != nil {
			entry.Status = StatusFailed
			entry.ErrorMessage = submitErr.Error()
		}

		logger := zerolog.Ctx(c.Request.Context())
		if _, err := s.journal.Record(c.Request.Context(), entry); err != nil {
			logger.Error().Err(err).Str("report_id", reportID).Msg("モデレーション履歴の記録に失敗しました")
		}
		logger.Info().
			Str("report_id", reportID).
			Str("action", string(req.Action)).
			Str("status", entry.Status).
			Msg("モデレーションアクション")

		c.Redirect(http.StatusSeeOther, "/moderator/reports?result="+entry.Status)
	}
}

// parseActionForm はフォームの値からアクションのペイロードを組み立てる。
func parseActionForm(c *gin.Context) (moderation.ActionRequest, error) {
	action, err := moderation.ParseAction(c.PostForm("action"))
	if err != nil {
		return moderation.ActionRequest{}, err
	}

	req := moderation.ActionRequest{
		Action: action,
		Reason: strings.TrimSpace(c.PostForm("reason")),
	}
	if v := strings.TrimSpace(c.PostForm("duration_days")); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return moderation.ActionRequest{}, errors.New("停止日数は整数で指定してください")
		}
		req.DurationDays = days
	}
	return req, nil
}

// handleJournal はモデレーション履歴をJSONで返すハンドラを返す。
func (s *Server) handleJournal() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := recentJournalLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limitは正の整数で指定してください"})
				return
			}
			limit = min(n, maxJournalLimit)
		}

		entries, err := s.journal.Recent(c.Request.Context(), limit)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("モデレーション履歴の取得に失敗しました")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "履歴の取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

// handleDevLogin は開発用トークンをCookieに設定するハンドラを返す。
// 開発環境でのみ登録される。
func (s *Server) handleDevLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.PostForm("email"))
		if email == "" {
			email = devModeratorEmail
		}

		token, err := middleware.GenerateDevToken(s.cfg.JWTSecret, devModeratorID, email)
		if err != nil {
			s.renderError(c, "ログイン", err)
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.cfg.SessionCookie, token, devSessionMaxAge, "/", "", false, true)
		c.Redirect(http.StatusSeeOther, "/moderator")
	}
}

// handleLogout はセッションCookieを削除してトップページへ戻すハンドラを返す。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.expireSession(c)
	}
}

// expireSession はセッションCookieを削除してトップページへリダイレクトする。
func (s *Server) expireSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.SessionCookie, "", -1, "/", "", !s.cfg.IsDevelopment(), true)
	c.Redirect(http.StatusSeeOther, "/")
	c.Abort()
}

// renderError はエラーの種類に応じてエラーページを返す。
// 401はセッション切れとしてトップページへ戻し、その他のAPIエラーは502、それ以外は500とする。
func (s *Server) renderError(c *gin.Context, title string, err error) {
	logger := zerolog.Ctx(c.Request.Context())

	apiErr, ok := apiclient.AsAPIError(err)
	switch {
	case ok && apiErr.Expected():
		logger.Warn().Err(err).Msg("セッションが無効なためトップページへ戻します")
		s.expireSession(c)
	case ok:
		logger.Error().Err(err).Msg("バックエンドAPIの呼び出しに失敗しました")
		data := s.newPageData(c, title)
		data.Error = apiErr.Error()
		c.HTML(http.StatusBadGateway, "error", data)
	default:
		logger.Error().Err(err).Msg("ページの表示に失敗しました")
		data := s.newPageData(c, title)
		data.Error = "内部サーバーエラーが発生しました"
		c.HTML(http.StatusInternalServerError, "error", data)
	}
}
