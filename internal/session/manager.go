// Package session はアプリケーション全体の認証状態を一元管理する。
// 状態の遷移はManagerだけが行い、他のコンポーネントはスナップショットの読み取りと
// 通知チャネルの購読のみを行う。
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/eventman/internal/model"
)

// Phase はセッションのライフサイクル段階を表す。
type Phase string

const (
	// PhaseLoading は初期化中（認証状態が未確定）であることを表す。
	PhaseLoading Phase = "loading"
	// PhaseAuthenticated は認証済みであることを表す。
	PhaseAuthenticated Phase = "authenticated"
	// PhaseAnonymous は未認証であることを表す。
	PhaseAnonymous Phase = "anonymous"
)

// AuthAPI はManagerが必要とする認証系API呼び出しのインターフェース。
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*model.Identity, error)
	Register(ctx context.Context, in model.RegisterInput) error
	Logout(ctx context.Context) error
	AuthenticatedUser(ctx context.Context) (*model.Identity, error)
}

// Notifier はユーザー向け通知の発行インターフェース。
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Navigator は認証状態の変化に伴う画面遷移の通知インターフェース。
type Navigator interface {
	ToLogin()
	ToHome()
}

// Snapshot はセッション状態の読み取り専用コピーを表す。
type Snapshot struct {
	Phase    Phase
	Identity *model.Identity // 認証済みの場合のみ非nil
}

// Manager はセッションのライフサイクルを管理する。
// 初期化・ログイン・ログアウト・登録のすべての遷移はManager経由で行う。
type Manager struct {
	api       AuthAPI
	notifier  Notifier
	navigator Navigator
	logger    *slog.Logger
	validate  *validator.Validate

	mu       sync.RWMutex
	phase    Phase
	identity *model.Identity
}

// NewManager はManagerの新しいインスタンスを生成する。初期状態はloading。
func NewManager(api AuthAPI, notifier Notifier, navigator Navigator, logger *slog.Logger) *Manager {
	return &Manager{
		api:       api,
		notifier:  notifier,
		navigator: navigator,
		logger:    logger,
		validate:  model.Validator(),
		phase:     PhaseLoading,
	}
}

// Current はセッション状態のスナップショットを返す。
func (m *Manager) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Phase: m.phase, Identity: m.identity}
}

// Initialize は保存済みセッションの有効性をサーバーに問い合わせ、
// loadingフェーズを必ず1回で終了させる。
// 問い合わせの成否にかかわらず、戻り時点でフェーズはauthenticatedか
// anonymousのいずれかに確定している。
func (m *Manager) Initialize(ctx context.Context) {
	identity, err := m.api.AuthenticatedUser(ctx)
	if err != nil || identity == nil {
		if err != nil {
			m.logger.Info("保存済みセッションは無効です。匿名として開始します",
				slog.String("error", err.Error()),
			)
		}
		m.setAnonymous()
		return
	}

	m.mu.Lock()
	m.phase = PhaseAuthenticated
	m.identity = identity
	m.mu.Unlock()

	m.logger.Info("セッションを復元しました",
		slog.Int64("user_id", identity.ID),
		slog.String("username", identity.Username),
	)
}

// Login はユーザー名とパスワードでログインする。
// 成功時は識別情報を保持してホームへ遷移し、失敗時は失敗通知を発行する。
func (m *Manager) Login(ctx context.Context, username, password string) error {
	identity, err := m.api.Login(ctx, username, password)
	if err != nil || identity == nil {
		if err != nil {
			m.logger.Info("ログインに失敗しました",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		flowErr := model.NewLoginFailedError()
		m.notifier.Error(flowErr.Message)
		return flowErr
	}

	m.mu.Lock()
	m.phase = PhaseAuthenticated
	m.identity = identity
	m.mu.Unlock()

	m.logger.Info("ログインしました",
		slog.Int64("user_id", identity.ID),
		slog.String("role", string(identity.Role)),
	)
	m.notifier.Success("ログインしました。")
	m.navigator.ToHome()
	return nil
}

// Logout はログアウトする。
// サーバー側セッションの破棄が失敗しても、ローカルの識別情報の破棄と
// ログイン画面への遷移は無条件に行う。
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		m.logger.Warn("サーバー側セッションの破棄に失敗しましたが、ローカル状態は破棄します",
			slog.String("error", err.Error()),
		)
	}
	m.setAnonymous()
	m.notifier.Success("ログアウトしました。")
	m.navigator.ToLogin()
}

// Register は新規ユーザーを登録する。
// パスワードと確認用パスワードの一致はネットワーク呼び出しの前にローカルで検証し、
// 不一致の場合はリクエストを一切送らない。
func (m *Manager) Register(ctx context.Context, in model.RegisterInput) error {
	if in.Password != in.ConfirmPassword {
		flowErr := model.NewPasswordMismatchError()
		m.notifier.Error(flowErr.Message)
		return flowErr
	}
	if err := m.validate.Struct(in); err != nil {
		flowErr := model.NewInvalidInputError(model.DescribeValidationError(err))
		m.notifier.Error(flowErr.Message)
		return flowErr
	}

	if err := m.api.Register(ctx, in); err != nil {
		m.logger.Info("ユーザー登録に失敗しました",
			slog.String("username", in.Username),
			slog.String("error", err.Error()),
		)
		flowErr := model.NewRegistrationFailedError()
		m.notifier.Error(flowErr.Message)
		return flowErr
	}

	m.logger.Info("ユーザーを登録しました", slog.String("username", in.Username))
	m.notifier.Success("登録が完了しました。ログインしてください。")
	m.navigator.ToLogin()
	return nil
}

func (m *Manager) setAnonymous() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseAnonymous
	m.identity = nil
}
