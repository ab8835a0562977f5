// Package web はHTMLテンプレートとフォームエラー表示を提供します。
// テンプレートはバイナリに埋め込み、ginのHTMLレンダラーから利用します。
package web

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
)

// UserContextKey はリクエストの認証済みユーザーを保持するginコンテキストのキーです。
const UserContextKey = "auth.user"

//go:embed templates/*.html
var files embed.FS

// Templates は埋め込みテンプレートを解析して返します。
// テンプレート名はファイル名（例: "login.html"）です。
func Templates() *template.Template {
	return template.Must(template.ParseFS(files, "templates/*.html"))
}

// FieldErrors はフォーム項目ごとのエラーメッセージです。キー "form" はフォーム全体のエラーです。
type FieldErrors map[string]string

// Add は項目の最初のエラーだけを保持します。
func (e FieldErrors) Add(field, message string) {
	if _, ok := e[field]; ok {
		return
	}
	e[field] = message
}

// Get は項目のエラーメッセージを返します。エラーが無ければ空文字です。
func (e FieldErrors) Get(field string) string {
	return e[field]
}

// Any はエラーが1つ以上あるかを返します。
func (e FieldErrors) Any() bool {
	return len(e) > 0
}

// Render はテンプレート共通の値を補ってHTMLを描画します。
//   - User: 認証済みユーザー（ヘッダー表示用）
//   - Errors: 未指定なら空のFieldErrors
func Render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = FieldErrors{}
	}
	if _, ok := data["User"]; !ok {
		if u, exists := c.Get(UserContextKey); exists {
			data["User"] = u
		}
	}
	c.HTML(status, name, data)
}
