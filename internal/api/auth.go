package api

import (
	"context"
	"net/http"

	"github.com/hitoshi/eventman/internal/model"
)

// loginResponse はPOST login/ のレスポンスを表す。
type loginResponse struct {
	User *model.Identity `json:"user"`
}

// Login はユーザー名とパスワードでログインする。
// 成功時はセッションCookieが共有ジャーに保存され、返却された識別情報を返す。
func (c *Client) Login(ctx context.Context, username, password string) (*model.Identity, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	var resp loginResponse
	if err := c.authJSON(ctx, http.MethodPost, "/login/", body, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Register は新規ユーザーを登録する。
// パスワード一致などのローカル検証は呼び出し元（SessionManager）の責務。
func (c *Client) Register(ctx context.Context, in model.RegisterInput) error {
	body := map[string]any{
		"username": in.Username,
		"email":    in.Email,
		"password": in.Password,
		"role":     in.Role,
	}
	return c.authJSON(ctx, http.MethodPost, "/register/", body, nil)
}

// Logout はサーバー側セッションを破棄する。
// 失敗してもローカル状態の破棄を妨げない（呼び出し元が無条件にクリアする）。
func (c *Client) Logout(ctx context.Context) error {
	return c.authJSON(ctx, http.MethodPost, "/logout/", nil, nil)
}

// RefreshSession はセッショントークンをリフレッシュする。
// 成功時は共有CookieジャーのセッションCookieが透過的に更新される。
// 認証サーフェスの呼び出しのため、401でも再帰的なリフレッシュは行われない。
func (c *Client) RefreshSession(ctx context.Context) error {
	return c.authJSON(ctx, http.MethodPost, "/token/refresh/", nil, nil)
}

// AuthenticatedUser は現在の認証済み識別情報を取得する。
// アプリケーションサーフェス経由のため、期限切れセッションは
// リフレッシュ・再送規約により一度だけ救済される。
func (c *Client) AuthenticatedUser(ctx context.Context) (*model.Identity, error) {
	var identity model.Identity
	if err := c.appJSON(ctx, http.MethodGet, "/auth/authenticated/", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}
