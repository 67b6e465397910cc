package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// API
	APIBaseURL  string
	AuthBaseURL string

	// Request
	RequestTimeout time.Duration
	RequestRate    float64 // 外向きAPIコールのレート（req/sec）
	RequestBurst   int

	// Notification
	NotifyTTL time.Duration

	// Signed image
	ImageRefreshFactor float64 // expires_inに対するリフレッシュ時刻の比率
	ImageMaxBytes      int64

	// Diagnostics
	DiagPort string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（コンテナ環境では無視される）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envはローカル開発用。存在しない場合はシステム環境変数のみを使用する。
	_ = godotenv.Load()

	cfg := &Config{}

	var missing []string

	cfg.APIBaseURL = strings.TrimSuffix(os.Getenv("API_BASE_URL"), "/")
	if cfg.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// 認証系エンドポイントは同一オリジンの /auth 配下がデフォルト。
	cfg.AuthBaseURL = strings.TrimSuffix(getEnvString("AUTH_BASE_URL", cfg.APIBaseURL+"/auth"), "/")

	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 10*time.Second)
	cfg.RequestRate = getEnvFloat("REQUEST_RATE", 10.0)
	cfg.RequestBurst = getEnvInt("REQUEST_BURST", 20)
	cfg.NotifyTTL = getEnvDuration("NOTIFY_TTL", 2600*time.Millisecond)
	cfg.ImageRefreshFactor = getEnvFloat("IMAGE_REFRESH_FACTOR", 0.8)
	cfg.ImageMaxBytes = getEnvInt64("IMAGE_MAX_BYTES", 5242880)
	cfg.DiagPort = getEnvString("DIAG_PORT", "8080")

	if cfg.ImageRefreshFactor <= 0 || cfg.ImageRefreshFactor >= 1 {
		return nil, fmt.Errorf("IMAGE_REFRESH_FACTOR must be in (0, 1): %v", cfg.ImageRefreshFactor)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
