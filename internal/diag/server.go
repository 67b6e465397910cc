// Package diag は稼働監視用のHTTPエンドポイントを提供する。
// 予約端末として常駐するプロセスのヘルスチェックとメトリクススクレイプに使う。
package diag

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PhaseFunc は現在のセッションフェーズを返す関数。
type PhaseFunc func() string

// healthResponse はGET /healthのレスポンスを表す。
type healthResponse struct {
	Status       string `json:"status"`
	SessionPhase string `json:"session_phase"`
}

// NewRouter は診断エンドポイントのルーターを生成する。
// /health は常に200を返し、現在のセッションフェーズを含める。
// /metrics はPrometheusのスクレイプに応答する。
func NewRouter(logger *slog.Logger, metricsHandler http.Handler, phase PhaseFunc) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: "ok"}
		if phase != nil {
			resp.SessionPhase = phase()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("ヘルスチェック応答の書き込みに失敗しました",
				slog.String("error", err.Error()),
			)
		}
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	return r
}
