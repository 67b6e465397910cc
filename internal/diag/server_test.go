package diag

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/eventman/internal/metrics"
)

func newTestLogger() *slog.Logger {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil))
}

func TestHealth_ReturnsOKWithSessionPhase(t *testing.T) {
	router := NewRouter(newTestLogger(), nil, func() string { return "authenticated" })
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health がエラーを返した: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスJSONのパースに失敗した: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
	if body.SessionPhase != "authenticated" {
		t.Errorf("session_phase = %q, want %q", body.SessionPhase, "authenticated")
	}
}

func TestMetrics_ExposesRegisteredCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	collector.RecordRetry()

	router := NewRouter(newTestLogger(), metrics.Handler(reg), nil)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics がエラーを返した: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("レスポンスの読み取りに失敗した: %v", err)
	}
	if !strings.Contains(string(data), "eventman_api_retry_total 1") {
		t.Errorf("登録済みカウンターが公開されるべき:\n%s", data)
	}
}
