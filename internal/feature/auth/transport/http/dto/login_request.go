// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import "user_admin/internal/platform/web"

// LoginForm は POST /login のフォーム入力を表します。
// 必須フィールドとメール形式のバリデーションを含みます。
type LoginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

// LoginMessages はLoginFormのバリデーションエラーの表示先とメッセージです。
var LoginMessages = web.Messages{
	"Email":    {Field: "email", Message: "有効なメールアドレスを入力してください"},
	"Password": {Field: "password", Message: "パスワードを入力してください"},
}
