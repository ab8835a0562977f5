// Package dto はusersフィーチャーのフォーム入力を定義します。
package dto

import "user_admin/internal/platform/web"

const (
	emailMessage        = "有効なメールアドレスを入力してください"
	usernameMessage     = "ユーザー名は255文字以内で入力してください"
	editPasswordMessage = "パスワードは6文字以上で、確認用パスワードと一致している必要があります"
	passwordTooLong     = "パスワードは72バイト以内で入力してください（全角文字は1文字3バイト）"

	// DuplicateEmailMessage はメールアドレスが他のユーザーに使われている場合のメッセージです。
	DuplicateEmailMessage = "このメールアドレスは既に使用されています"
)

// CreateUserForm は POST /users/new のフォーム入力です。
type CreateUserForm struct {
	Email           string `form:"email" binding:"required,email,max=255"`
	Username        string `form:"username" binding:"max=255"`
	Password        string `form:"password" binding:"required,min=6,maxbytes=72"`
	ConfirmPassword string `form:"confirmPassword" binding:"eqfield=Password"`
}

// CreateUserMessages はCreateUserFormのバリデーションエラーの表示先です。
var CreateUserMessages = web.Messages{
	"Email":             {Field: "email", Message: emailMessage},
	"Username":          {Field: "username", Message: usernameMessage},
	"Password":          {Field: "password", Message: "パスワードは6文字以上で入力してください"},
	"Password.maxbytes": {Field: "password", Message: passwordTooLong},
	"ConfirmPassword":   {Field: "confirmPassword", Message: "パスワードが一致しません"},
}

// EditUserForm は POST /users/:id/edit のフォーム入力です。
// パスワードは変更する場合のみ入力し、確認用と一致している必要があります。
type EditUserForm struct {
	Email           string `form:"email" binding:"required,email,max=255"`
	Username        string `form:"username" binding:"max=255"`
	Password        string `form:"password" binding:"omitempty,min=6,maxbytes=72"`
	ConfirmPassword string `form:"confirmPassword" binding:"eqfield=Password"`
}

// EditUserMessages はEditUserFormのバリデーションエラーの表示先です。
// パスワードの規則違反はすべて確認用パスワード欄に表示します。
var EditUserMessages = web.Messages{
	"Email":             {Field: "email", Message: emailMessage},
	"Username":          {Field: "username", Message: usernameMessage},
	"Password":          {Field: "confirmPassword", Message: editPasswordMessage},
	"Password.maxbytes": {Field: "confirmPassword", Message: passwordTooLong},
	"ConfirmPassword":   {Field: "confirmPassword", Message: editPasswordMessage},
}

// OptionalString は空文字を nil として扱います。
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
