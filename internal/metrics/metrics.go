// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// APIクライアントや各フローコントローラから利用する。
type MetricsCollector interface {
	RecordRequest(surface string, statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordRefresh(success bool)
	RecordRetry()
	RecordImageRefresh()
	RecordCommit(success bool)
	RecordNotification(severity string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requestTotal   *prometheus.CounterVec
	requestLatency prometheus.Histogram
	refreshTotal   *prometheus.CounterVec
	retryTotal     prometheus.Counter
	imageRefresh   prometheus.Counter
	commitTotal    *prometheus.CounterVec
	notifyTotal    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventman_api_request_total",
			Help: "APIサーフェス・ステータスコード別のリクエスト数",
		}, []string{"surface", "status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventman_api_request_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventman_session_refresh_total",
			Help: "セッションリフレッシュの実行数（結果別）",
		}, []string{"outcome"}),
		retryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventman_api_retry_total",
			Help: "リフレッシュ後に再送されたリクエストの合計数",
		}),
		imageRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventman_image_refresh_total",
			Help: "署名付き画像URLのリフレッシュ実行数",
		}),
		commitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventman_booking_commit_total",
			Help: "予約フローのカート確定数（結果別）",
		}, []string{"outcome"}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventman_notification_total",
			Help: "ユーザー通知の発行数（重要度別）",
		}, []string{"severity"}),
	}

	reg.MustRegister(
		c.requestTotal,
		c.requestLatency,
		c.refreshTotal,
		c.retryTotal,
		c.imageRefresh,
		c.commitTotal,
		c.notifyTotal,
	)

	return c
}

// RecordRequest はAPIリクエストの完了を記録する。
func (c *Collector) RecordRequest(surface string, statusCode int) {
	c.requestTotal.WithLabelValues(surface, strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はAPIリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordRefresh はセッションリフレッシュの実行を記録する。
func (c *Collector) RecordRefresh(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.refreshTotal.WithLabelValues(outcome).Inc()
}

// RecordRetry はリフレッシュ後の再送を記録する。
func (c *Collector) RecordRetry() {
	c.retryTotal.Inc()
}

// RecordImageRefresh は署名付きURLのリフレッシュを記録する。
func (c *Collector) RecordImageRefresh() {
	c.imageRefresh.Inc()
}

// RecordCommit はカート確定の結果を記録する。
func (c *Collector) RecordCommit(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.commitTotal.WithLabelValues(outcome).Inc()
}

// RecordNotification はユーザー通知の発行を記録する。
func (c *Collector) RecordNotification(severity string) {
	c.notifyTotal.WithLabelValues(severity).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
