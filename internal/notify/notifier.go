// Package notify はUI向けのトランジェント通知を提供する。
// 通知は発行からTTL経過後に自動で消灯する。フロー側の状態機械の正しさとは独立している。
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Severity は通知の重要度を表す。
type Severity string

const (
	// SeveritySuccess は成功通知。
	SeveritySuccess Severity = "success"
	// SeverityError は失敗通知。
	SeverityError Severity = "error"
)

// Notification はUIに表示する通知1件を表す。
type Notification struct {
	Message  string
	Severity Severity
}

// MetricsRecorder は通知発行のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordNotification(severity string)
}

// Notifier は通知の発行・自動消灯・購読を管理する。
// Publishされた通知はActiveに追加され、TTL経過後にタイマーで除去される。
// Closeで未発火のタイマーをすべてキャンセルする。
type Notifier struct {
	ttl     time.Duration
	logger  *slog.Logger
	metrics MetricsRecorder

	mu     sync.Mutex
	seq    int
	active map[int]Notification
	timers map[int]*time.Timer
	subs   []chan Notification
	closed bool
}

// NewNotifier はNotifierの新しいインスタンスを生成する。
// ttlが0以下の場合はデフォルト値2.6秒を使用する。metricsはnil可。
func NewNotifier(ttl time.Duration, logger *slog.Logger, metrics MetricsRecorder) *Notifier {
	if ttl <= 0 {
		ttl = 2600 * time.Millisecond
	}
	return &Notifier{
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
		active:  make(map[int]Notification),
		timers:  make(map[int]*time.Timer),
	}
}

// Subscribe は通知の購読チャネルを返す。
// 受信が追いつかない購読者への送信は破棄する（通知は表示用であり損失を許容する）。
func (n *Notifier) Subscribe() <-chan Notification {
	ch := make(chan Notification, 16)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, ch)
	return ch
}

// Success は成功通知を発行する。
func (n *Notifier) Success(message string) {
	n.Publish(Notification{Message: message, Severity: SeveritySuccess})
}

// Error は失敗通知を発行する。
func (n *Notifier) Error(message string) {
	n.Publish(Notification{Message: message, Severity: SeverityError})
}

// Publish は通知を発行し、TTL経過後の自動消灯をスケジュールする。
func (n *Notifier) Publish(notification Notification) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}

	n.seq++
	id := n.seq
	n.active[id] = notification
	n.timers[id] = time.AfterFunc(n.ttl, func() {
		n.dismiss(id)
	})

	subs := make([]chan Notification, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	if n.logger != nil {
		n.logger.Info("通知を発行しました",
			slog.String("severity", string(notification.Severity)),
			slog.String("message", notification.Message),
		)
	}
	if n.metrics != nil {
		n.metrics.RecordNotification(string(notification.Severity))
	}

	for _, ch := range subs {
		select {
		case ch <- notification:
		default:
		}
	}
}

// Active は現在表示中の通知一覧を返す。
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, 0, len(n.active))
	for _, v := range n.active {
		out = append(out, v)
	}
	return out
}

// Close は未発火の消灯タイマーをすべてキャンセルし、以降の発行を無効化する。
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	for id, timer := range n.timers {
		timer.Stop()
		delete(n.timers, id)
	}
	n.active = make(map[int]Notification)
}

func (n *Notifier) dismiss(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.active, id)
	delete(n.timers, id)
}
