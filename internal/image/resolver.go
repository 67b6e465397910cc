// Package image は保護画像の署名付きURLの解決と先行リフレッシュを提供する。
// 署名付きURLは時限付きのため、失効前にバックグラウンドで再解決し、
// 利用側には常に最後に取得できたURLを返す。
package image

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/doyensec/safeurl"

	"github.com/hitoshi/eventman/internal/model"
)

// API はResolverが必要とする画像系API呼び出しのインターフェース。
type API interface {
	ResolveEventImage(ctx context.Context, key string) (*model.SignedImage, error)
}

// MetricsRecorder は画像リフレッシュのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordImageRefresh()
}

// entry はキー1件分の解決状態を表す。
type entry struct {
	url   string
	timer *time.Timer
}

// Resolver はリソースキーごとに署名付きURLを管理する。
// 各キーについて失効時間×factorの時点でリフレッシュタイマーを起動し、
// リフレッシュに失敗した場合は最後に取得できたURLを保持し続ける。
// 失敗後の自動再試行は行わず、キーの変更または明示的なRefreshで再解決する。
type Resolver struct {
	api      API
	logger   *slog.Logger
	metrics  MetricsRecorder // nil可
	factor   float64
	download *http.Client
	maxBytes int64

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

// NewResolver はResolverの新しいインスタンスを生成する。
// factorは(0,1)の範囲外の場合デフォルト値0.8を使用する。
// 署名付きURLのダウンロードにはSSRF防止機能付きのHTTPクライアントを使用する。
// safeurlはDNS解決後のIPアドレスもDialerレベルで検証するため、
// プライベートIPやメタデータIPへ向く署名付きURLはブロックされる。
func NewResolver(apiClient API, factor float64, maxBytes int64, logger *slog.Logger, metrics MetricsRecorder) *Resolver {
	if factor <= 0 || factor >= 1 {
		factor = 0.8
	}
	if maxBytes <= 0 {
		maxBytes = 5242880
	}

	downloadConfig := safeurl.GetConfigBuilder().
		SetTimeout(30 * time.Second).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return &Resolver{
		api:      apiClient,
		logger:   logger,
		metrics:  metrics,
		factor:   factor,
		download: safeurl.Client(downloadConfig).Client,
		maxBytes: maxBytes,
		entries:  make(map[string]*entry),
	}
}

// Resolve はキーに対する署名付きURLを取得し、先行リフレッシュをスケジュールする。
// 同じキーに対する再解決は、既存のリフレッシュタイマーをキャンセルして置き換える。
// 空のキーに対しては取得を行わない。
func (r *Resolver) Resolve(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	signed, err := r.api.ResolveEventImage(ctx, key)
	if err != nil {
		return "", err
	}

	delay := r.refreshDelay(signed.ExpiresIn)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return signed.URL, nil
	}
	if existing, ok := r.entries[key]; ok && existing.timer != nil {
		existing.timer.Stop()
	}
	e := &entry{url: signed.URL}
	e.timer = time.AfterFunc(delay, func() { r.refresh(key) })
	r.entries[key] = e

	r.logger.Info("署名付きURLを解決しました",
		slog.String("key", key),
		slog.Int("expires_in", signed.ExpiresIn),
		slog.Duration("refresh_after", delay),
	)
	return signed.URL, nil
}

// URL はキーに対して最後に取得できたURLを返す。未解決のキーはfalseを返す。
func (r *Resolver) URL(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return "", false
	}
	return e.url, true
}

// Refresh はタイマーを待たずにキーのURLを即時再解決する。
func (r *Resolver) Refresh(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	_, ok := r.entries[key]
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("未解決のキーです: %s", key)
	}
	return r.Resolve(ctx, key)
}

// Release はキーの管理を終了し、未発火のリフレッシュタイマーをキャンセルする。
// 表示対象のキーが切り替わった際に、旧キーに対して呼び出す。
func (r *Resolver) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(r.entries, key)
	}
}

// Close はすべてのキーを解放し、以降の解決を無効化する。
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for key, e := range r.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(r.entries, key)
	}
}

// Download は署名付きURLから画像データを取得する。
// 取得サイズはmaxBytesで制限され、超過した場合はエラーを返す。
func (r *Resolver) Download(signedURL string) ([]byte, error) {
	resp, err := r.download.Get(signedURL)
	if err != nil {
		return nil, fmt.Errorf("画像のダウンロードに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("画像サーバーがステータス %d を返しました", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("画像データの読み取りに失敗しました: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("画像サイズが上限 %d バイトを超えています", r.maxBytes)
	}
	return data, nil
}

// refresh はバックグラウンドでキーのURLを再解決する。
// 失敗した場合は最後に取得できたURLを保持し、自動再試行は行わない。
// キーの変更または明示的なRefreshで次の解決が始まる。
func (r *Resolver) refresh(key string) {
	r.mu.Lock()
	_, ok := r.entries[key]
	if !ok || r.closed {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	signed, err := r.api.ResolveEventImage(context.Background(), key)

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok || r.closed {
		// リフレッシュ中にキーが解放された。結果は破棄する。
		return
	}

	if err != nil {
		r.logger.Warn("署名付きURLのリフレッシュに失敗しました。前回のURLを維持します",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		e.timer = nil
		return
	}

	e.url = signed.URL
	delay := r.refreshDelay(signed.ExpiresIn)
	e.timer = time.AfterFunc(delay, func() { r.refresh(key) })

	if r.metrics != nil {
		r.metrics.RecordImageRefresh()
	}
	r.logger.Info("署名付きURLをリフレッシュしました",
		slog.String("key", key),
		slog.Duration("next_refresh", delay),
	)
}

// refreshDelay は失効秒数からリフレッシュまでの待機時間を計算する。
func (r *Resolver) refreshDelay(expiresIn int) time.Duration {
	if expiresIn <= 0 {
		return time.Second
	}
	return time.Duration(float64(expiresIn) * r.factor * float64(time.Second))
}
