package model

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ParticipantDetail は予約フローで入力する参加者1名分の情報を表す。
// 氏名は必須、メールアドレスと電話番号は任意。
type ParticipantDetail struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=32"`
}

// RegisterInput はユーザー登録フォームの入力を表す。
// パスワード一致の検証はネットワーク呼び出しの前にローカルで行う。
type RegisterInput struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"-" validate:"required,eqfield=Password"`
	Role            Role   `json:"role" validate:"required,oneof=participant organiser admin"`
}

// Validator は入力検証用の共有validatorインスタンスを返す。
// validator.Validateは並行利用に対して安全なため、プロセス内で1つを共有する。
func Validator() *validator.Validate {
	return validate
}

var validate = validator.New()

// DescribeValidationError は検証エラーを利用者向けの日本語メッセージに変換する。
// 複数のフィールドが不正な場合は最初のフィールドのみを案内する。
func DescribeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "入力内容を確認してください"
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "Name":
		return "氏名を入力してください"
	case "Username":
		return "ユーザー名を入力してください"
	case "Email":
		if fe.Tag() == "required" {
			return "メールアドレスを入力してください"
		}
		return "メールアドレスの形式が正しくありません"
	case "PhoneNumber":
		return "電話番号が長すぎます"
	case "Password":
		return "パスワードを入力してください"
	case "ConfirmPassword":
		return "確認用パスワードがパスワードと一致しません"
	case "Role":
		return "役割の指定が正しくありません"
	}
	return "入力内容を確認してください"
}
