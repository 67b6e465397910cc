package model

import (
	"errors"
	"testing"
)

func TestParticipantDetail_NameRequired(t *testing.T) {
	v := Validator()

	d := ParticipantDetail{Email: "a@example.com"}
	if err := v.Struct(&d); err == nil {
		t.Error("氏名が空の場合は検証エラーになるべき")
	}

	d.Name = "山田 太郎"
	if err := v.Struct(&d); err != nil {
		t.Errorf("氏名のみの入力は有効であるべき: %v", err)
	}
}

func TestParticipantDetail_OptionalEmailValidatedWhenPresent(t *testing.T) {
	v := Validator()

	d := ParticipantDetail{Name: "山田 太郎", Email: "not-an-email"}
	if err := v.Struct(&d); err == nil {
		t.Error("不正なメールアドレスは検証エラーになるべき")
	}
}

func TestRegisterInput_PasswordMismatch(t *testing.T) {
	v := Validator()

	in := RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "a",
		ConfirmPassword: "b",
		Role:            RoleParticipant,
	}
	if err := v.Struct(&in); err == nil {
		t.Error("パスワード不一致は検証エラーになるべき")
	}

	in.ConfirmPassword = "a"
	if err := v.Struct(&in); err != nil {
		t.Errorf("一致するパスワードは有効であるべき: %v", err)
	}
}

func TestDescribeValidationError_JapaneseMessages(t *testing.T) {
	v := Validator()

	cases := []struct {
		name  string
		input any
		want  string
	}{
		{"氏名未入力", &ParticipantDetail{}, "氏名を入力してください"},
		{"メール形式不正", &ParticipantDetail{Name: "山田 太郎", Email: "x"}, "メールアドレスの形式が正しくありません"},
		{"ユーザー名未入力", &RegisterInput{Email: "a@example.com", Password: "a", ConfirmPassword: "a", Role: RoleParticipant}, "ユーザー名を入力してください"},
		{"メール未入力", &RegisterInput{Username: "alice", Password: "a", ConfirmPassword: "a", Role: RoleParticipant}, "メールアドレスを入力してください"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.input)
			if err == nil {
				t.Fatal("検証エラーが発生すべき")
			}
			if got := DescribeValidationError(err); got != tc.want {
				t.Errorf("メッセージ = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDescribeValidationError_NonValidatorError(t *testing.T) {
	got := DescribeValidationError(errors.New("接続エラー"))
	if got != "入力内容を確認してください" {
		t.Errorf("メッセージ = %q", got)
	}
}
