// Package api は予約プラットフォームのREST APIクライアントを提供する。
// 認証サーフェス（login/register/logout/token-refresh）とアプリケーションサーフェスの
// 2系統のベースURLを持ち、共有Cookieジャーでセッション資格情報を自動送信する。
// アプリケーションサーフェスの401応答に対しては、サイレントリフレッシュ成功後に
// 元リクエストをちょうど1回だけ再送する。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/time/rate"
)

const (
	// SurfaceApp はアプリケーションサーフェスを表すメトリクスラベル。
	SurfaceApp = "app"
	// SurfaceAuth は認証サーフェスを表すメトリクスラベル。
	SurfaceAuth = "auth"
)

// Error はAPIの非2xx応答を表す。
// HTTPステータスとサーバー提供のdetailメッセージを保持する。
type Error struct {
	StatusCode int
	Detail     string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("APIがステータス %d を返しました: %s", e.StatusCode, e.Detail)
}

// IsStatus はerrが指定ステータスコードのAPIエラーかを判定する。
func IsStatus(err error, statusCode int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// IsUnauthorized はerrが401応答かを判定する。
func IsUnauthorized(err error) bool { return IsStatus(err, http.StatusUnauthorized) }

// IsConflict はerrが409応答かを判定する。
// 削除対象に依存レコードが存在する場合にサーバーが返す。
func IsConflict(err error) bool { return IsStatus(err, http.StatusConflict) }

// MetricsRecorder はAPIクライアントのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordRequest(surface string, statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordRefresh(success bool)
	RecordRetry()
}

// Sanitizer はサーバー提供HTMLのサニタイズインターフェース。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// Config はAPIクライアントの設定。
type Config struct {
	AppBaseURL  string
	AuthBaseURL string
	Timeout     time.Duration
	Rate        float64 // 外向きコールのレート（req/sec）。0以下で制限なし
	Burst       int
}

// Client は予約プラットフォームAPIのクライアント。
// 両サーフェスで1つのCookieジャーを共有するため、リフレッシュ成功時の
// セッションCookie更新は後続リクエストに透過的に反映される。
type Client struct {
	httpClient  *http.Client
	appBaseURL  string
	authBaseURL string
	limiter     *rate.Limiter
	logger      *slog.Logger
	metrics     MetricsRecorder // nil可
	sanitizer   Sanitizer       // nil可
}

// NewClient はClientの新しいインスタンスを生成する。
// metricsとsanitizerはnilを許容する。
func NewClient(cfg Config, logger *slog.Logger, metrics MetricsRecorder, sanitizer Sanitizer) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("Cookieジャーの生成に失敗しました: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}

	return &Client{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		appBaseURL:  cfg.AppBaseURL,
		authBaseURL: cfg.AuthBaseURL,
		limiter:     limiter,
		logger:      logger,
		metrics:     metrics,
		sanitizer:   sanitizer,
	}, nil
}

// appJSON はアプリケーションサーフェスにJSONリクエストを送る。
// bodyはnil可。outは非nilの場合にレスポンスJSONをデコードする。
func (c *Client) appJSON(ctx context.Context, method, path string, body any, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.appRequest(ctx, method, path, "application/json", payload, out)
}

// appRequest はアプリケーションサーフェスへのリクエストに
// 「リフレッシュ1回・再送1回」の規約を適用する。
// 401応答を受けた場合は認証サーフェスでセッションをリフレッシュし、
// 成功時のみ同一メソッド・パス・ボディで元リクエストを再送する。
// リフレッシュ失敗はそのまま呼び出し元へ返す（再送しない・ループしない）。
// 再送後の401は再びリフレッシュせずエラーとして返す。
func (c *Client) appRequest(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	err := c.send(ctx, SurfaceApp, method, c.appBaseURL+path, contentType, body, out)
	if !IsUnauthorized(err) {
		return err
	}

	if refreshErr := c.RefreshSession(ctx); refreshErr != nil {
		if c.metrics != nil {
			c.metrics.RecordRefresh(false)
		}
		c.logger.Error("セッションリフレッシュに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", refreshErr.Error()),
		)
		return refreshErr
	}

	if c.metrics != nil {
		c.metrics.RecordRefresh(true)
		c.metrics.RecordRetry()
	}
	c.logger.Info("セッションをリフレッシュして元リクエストを再送します",
		slog.String("method", method),
		slog.String("path", path),
	)

	return c.send(ctx, SurfaceApp, method, c.appBaseURL+path, contentType, body, out)
}

// authJSON は認証サーフェスにJSONリクエストを送る。
// 認証サーフェスの呼び出しはリフレッシュ・再送の対象外（無限ループ防止）。
func (c *Client) authJSON(ctx context.Context, method, path string, body any, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.send(ctx, SurfaceAuth, method, c.authBaseURL+path, "application/json", payload, out)
}

// send は1回のHTTPリクエストを実行する。
// ボディはバッファ済みバイト列で受け取るため、再送時も完全に同一の内容になる。
func (c *Client) send(ctx context.Context, surface, method, rawURL, contentType string, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("レート制限待機中にキャンセルされました: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("HTTPリクエストに失敗しました",
			slog.String("surface", surface),
			slog.String("method", method),
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordRequest(surface, resp.StatusCode)
		c.metrics.RecordRequestLatency(time.Since(start))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(data),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
		}
	}
	return nil
}

// marshalBody はリクエストボディを1回だけシリアライズする。
func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディのシリアライズに失敗しました: %w", err)
	}
	return payload, nil
}

// extractDetail はエラーレスポンスからサーバー提供のdetailを取り出す。
// JSONでない場合や空の場合はボディ先頭を切り詰めて返す。
func extractDetail(data []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	const maxDetail = 200
	s := string(data)
	if len(s) > maxDetail {
		s = s[:maxDetail]
	}
	return s
}

// sanitize はサニタイザ設定時のみHTMLを浄化する。
func (c *Client) sanitize(rawHTML string) string {
	if c.sanitizer == nil {
		return rawHTML
	}
	return c.sanitizer.Sanitize(rawHTML)
}
