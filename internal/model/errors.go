package model

import "fmt"

// FlowError はユーザーに提示するエラーの統一フォーマットを表す。
// 通知表示に使う原因カテゴリとメッセージを含む。
type FlowError struct {
	Code     string // エラーコード
	Message  string // ユーザー向けメッセージ
	Category string // カテゴリ: auth, validation, booking, admin, conflict, system
}

// Error はerrorインターフェースを実装する。
func (e *FlowError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeLoginFailed        = "LOGIN_FAILED"
	ErrCodePasswordMismatch   = "PASSWORD_MISMATCH"
	ErrCodeRegistrationFailed = "REGISTRATION_FAILED"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeSlotUnavailable    = "SLOT_UNAVAILABLE"
	ErrCodeCommitFailed       = "COMMIT_FAILED"
	ErrCodeLoadFailed         = "LOAD_FAILED"
	ErrCodeDeleteConflict     = "DELETE_CONFLICT"
	ErrCodeDeleteFailed       = "DELETE_FAILED"
	ErrCodeWriteFailed        = "WRITE_FAILED"
	ErrCodeFlowBusy           = "FLOW_BUSY"
	ErrCodeFlowState          = "FLOW_STATE"
)

// NewLoginFailedError はログイン失敗エラーを生成する。
func NewLoginFailedError() *FlowError {
	return &FlowError{
		Code:     ErrCodeLoginFailed,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
	}
}

// NewPasswordMismatchError はパスワード不一致エラーを生成する。
func NewPasswordMismatchError() *FlowError {
	return &FlowError{
		Code:     ErrCodePasswordMismatch,
		Message:  "パスワードが一致しません。再入力してください。",
		Category: "validation",
	}
}

// NewRegistrationFailedError はユーザー登録失敗エラーを生成する。
func NewRegistrationFailedError() *FlowError {
	return &FlowError{
		Code:     ErrCodeRegistrationFailed,
		Message:  "ユーザー登録に失敗しました。もう一度お試しください。",
		Category: "auth",
	}
}

// NewInvalidInputError は入力検証エラーを生成する。
func NewInvalidInputError(reason string) *FlowError {
	return &FlowError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
	}
}

// NewSlotUnavailableError は人数に適合しないスロットを選択した場合のエラーを生成する。
func NewSlotUnavailableError(count int) *FlowError {
	return &FlowError{
		Code:     ErrCodeSlotUnavailable,
		Message:  fmt.Sprintf("このスロットには%d名分の空きがありません。", count),
		Category: "booking",
	}
}

// NewCommitFailedError はカート確定の失敗エラーを生成する。
func NewCommitFailedError() *FlowError {
	return &FlowError{
		Code:     ErrCodeCommitFailed,
		Message:  "カートへの追加に失敗しました。",
		Category: "booking",
	}
}

// NewLoadFailedError は読み取り系呼び出しの失敗エラーを生成する。
func NewLoadFailedError(what string) *FlowError {
	return &FlowError{
		Code:     ErrCodeLoadFailed,
		Message:  fmt.Sprintf("%sの取得に失敗しました。", what),
		Category: "system",
	}
}

// NewDeleteConflictError は依存レコードを持つエンティティの削除競合エラーを生成する。
// 汎用の失敗メッセージより具体的な文言を返す。
func NewDeleteConflictError(entity string) *FlowError {
	return &FlowError{
		Code:     ErrCodeDeleteConflict,
		Message:  fmt.Sprintf("%sには既存の予約が紐付いているため削除できません。", entity),
		Category: "conflict",
	}
}

// NewDeleteFailedError は削除の汎用失敗エラーを生成する。
// 競合（依存レコードあり）はNewDeleteConflictErrorで区別する。
func NewDeleteFailedError(entity string) *FlowError {
	return &FlowError{
		Code:     ErrCodeDeleteFailed,
		Message:  fmt.Sprintf("%sの削除に失敗しました。", entity),
		Category: "admin",
	}
}

// NewWriteFailedError は書き込み系呼び出しの汎用失敗エラーを生成する。
func NewWriteFailedError(what string) *FlowError {
	return &FlowError{
		Code:     ErrCodeWriteFailed,
		Message:  fmt.Sprintf("%sの保存に失敗しました。", what),
		Category: "admin",
	}
}
