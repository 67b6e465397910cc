package notify

import (
	"sync"
	"testing"
	"time"
)

type recordingMetrics struct {
	mu         sync.Mutex
	severities []string
}

func (m *recordingMetrics) RecordNotification(severity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.severities = append(m.severities, severity)
}

func TestPublish_DeliversToSubscriber(t *testing.T) {
	n := NewNotifier(time.Minute, nil, nil)
	defer n.Close()

	ch := n.Subscribe()
	n.Success("カートに追加しました。")

	select {
	case got := <-ch:
		if got.Severity != SeveritySuccess {
			t.Errorf("severity = %s, want success", got.Severity)
		}
		if got.Message != "カートに追加しました。" {
			t.Errorf("message = %q", got.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("購読者に通知が届くべき")
	}
}

func TestPublish_AutoDismissAfterTTL(t *testing.T) {
	n := NewNotifier(30*time.Millisecond, nil, nil)
	defer n.Close()

	n.Error("失敗しました。")
	if len(n.Active()) != 1 {
		t.Fatalf("発行直後のActive = %d, want 1", len(n.Active()))
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(n.Active()) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("TTL経過後に通知が自動消灯されるべき")
}

func TestPublish_RecordsMetrics(t *testing.T) {
	m := &recordingMetrics{}
	n := NewNotifier(time.Minute, nil, m)
	defer n.Close()

	n.Success("ok")
	n.Error("ng")

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.severities) != 2 {
		t.Fatalf("通知メトリクス数 = %d, want 2", len(m.severities))
	}
	if m.severities[0] != "success" || m.severities[1] != "error" {
		t.Errorf("severities = %v", m.severities)
	}
}

func TestClose_CancelsPendingTimersAndIgnoresPublish(t *testing.T) {
	n := NewNotifier(time.Hour, nil, nil)

	n.Success("ok")
	n.Close()

	if len(n.Active()) != 0 {
		t.Error("Close後はActiveが空であるべき")
	}

	n.Success("after close")
	if len(n.Active()) != 0 {
		t.Error("Close後のPublishは無視されるべき")
	}
}

func TestPublish_SlowSubscriberDoesNotBlock(t *testing.T) {
	n := NewNotifier(time.Minute, nil, nil)
	defer n.Close()

	// バッファを溢れさせても発行側はブロックしない
	n.Subscribe()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			n.Success("msg")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("購読者が受信しなくても発行はブロックすべきではない")
	}
}
