package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/eventman/internal/admin"
	"github.com/hitoshi/eventman/internal/api"
	"github.com/hitoshi/eventman/internal/booking"
	"github.com/hitoshi/eventman/internal/config"
	"github.com/hitoshi/eventman/internal/diag"
	"github.com/hitoshi/eventman/internal/image"
	"github.com/hitoshi/eventman/internal/logger"
	"github.com/hitoshi/eventman/internal/metrics"
	"github.com/hitoshi/eventman/internal/notify"
	"github.com/hitoshi/eventman/internal/security"
	"github.com/hitoshi/eventman/internal/session"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("DIAG_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting booking terminal",
		slog.String("command", string(cmd)),
		slog.String("api_base_url", cfg.APIBaseURL),
		slog.String("diag_port", cfg.DiagPort),
	)

	return runServe(cfg)
}

// Terminal は予約端末を構成するコンポーネント一式を保持する。
// 組み込みUIはこの構造体経由で各フローコントローラを操作する。
type Terminal struct {
	Config   *config.Config
	API      *api.Client
	Notifier *notify.Notifier
	Session  *session.Manager
	Images   *image.Resolver
	Booking  *booking.Controller
	Admin    *admin.Flows
	Metrics  *metrics.Collector

	registry *prometheus.Registry
}

// NewTerminal は全コンポーネントをワイヤリングしたTerminalを生成する。
func NewTerminal(cfg *config.Config, log *slog.Logger) (*Terminal, error) {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. セキュリティサービスの初期化
	sanitizer := security.NewContentSanitizer()

	// 3. APIクライアントの初期化
	client, err := api.NewClient(api.Config{
		AppBaseURL:  cfg.APIBaseURL,
		AuthBaseURL: cfg.AuthBaseURL,
		Timeout:     cfg.RequestTimeout,
		Rate:        cfg.RequestRate,
		Burst:       cfg.RequestBurst,
	}, log, collector, sanitizer)
	if err != nil {
		return nil, fmt.Errorf("failed to build api client: %w", err)
	}

	// 4. 通知とセッションの初期化
	notifier := notify.NewNotifier(cfg.NotifyTTL, log, collector)
	sessionMgr := session.NewManager(client, notifier, newSlogNavigator(log), log)

	// 5. 各フローコントローラの初期化
	resolver := image.NewResolver(client, cfg.ImageRefreshFactor, cfg.ImageMaxBytes, log, collector)
	bookingCtrl := booking.NewController(client, notifier, log, collector)
	adminFlows := admin.NewFlows(client, notifier, newLogConfirmer(log), log)

	return &Terminal{
		Config:   cfg,
		API:      client,
		Notifier: notifier,
		Session:  sessionMgr,
		Images:   resolver,
		Booking:  bookingCtrl,
		Admin:    adminFlows,
		Metrics:  collector,
		registry: registry,
	}, nil
}

// MetricsGatherer は診断エンドポイントに渡すレジストリを返す。
func (t *Terminal) MetricsGatherer() prometheus.Gatherer {
	return t.registry
}

// Close は保持しているタイマーと購読をすべて解放する。
func (t *Terminal) Close() {
	t.Images.Close()
	t.Notifier.Close()
}

// runServe は予約端末モードで起動する。
// 全依存関係をワイヤリングし、セッションを初期化して診断HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	log := slog.Default()

	terminal, err := NewTerminal(cfg, log)
	if err != nil {
		return err
	}
	defer terminal.Close()

	// 保存済みセッションの復元。失敗しても匿名として起動を続行する。
	terminal.Session.Initialize(context.Background())
	slog.Info("session initialized",
		slog.String("phase", string(terminal.Session.Current().Phase)),
	)

	// 診断エンドポイントの起動
	router := diag.NewRouter(log, metrics.Handler(terminal.MetricsGatherer()), func() string {
		return string(terminal.Session.Current().Phase)
	})

	server := &http.Server{
		Addr:         ":" + cfg.DiagPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("diagnostics server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down booking terminal...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("booking terminal stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// slogNavigator は画面遷移シグナルをログに記録するNavigator実装。
// 組み込みUIが接続されるまでの既定実装として使う。
type slogNavigator struct {
	logger *slog.Logger
}

func newSlogNavigator(logger *slog.Logger) *slogNavigator {
	return &slogNavigator{logger: logger}
}

func (n *slogNavigator) ToLogin() {
	n.logger.Info("画面遷移を要求します", slog.String("to", "login"))
}

func (n *slogNavigator) ToHome() {
	n.logger.Info("画面遷移を要求します", slog.String("to", "home"))
}

// logConfirmer は破壊的操作の確認プロンプトの既定実装。
// 組み込みUIが差し替えるまでの間、承認として扱いログに残す。
type logConfirmer struct {
	logger *slog.Logger
}

func newLogConfirmer(logger *slog.Logger) *logConfirmer {
	return &logConfirmer{logger: logger}
}

func (c *logConfirmer) Confirm(prompt string) bool {
	c.logger.Info("破壊的操作を承認します", slog.String("prompt", prompt))
	return true
}
