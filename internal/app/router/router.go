// Package router はginエンジンのミドルウェアとルーティングを組み立てます。
package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"user_admin/internal/app/di"
	authmw "user_admin/internal/feature/auth/transport/middleware"
	platformmw "user_admin/internal/platform/http/middleware"
	"user_admin/internal/platform/session"
	"user_admin/internal/platform/web"
)

// NewRouter はミドルウェアチェーンとルートを設定したginエンジンを返します。
// ミドルウェアの順序: Recovery → リクエストログ → セッション → 認証ゲート
func NewRouter(c *di.Container, codec *session.Codec, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(platformmw.RequestLogger(logger))
	r.SetHTMLTemplate(web.Templates())

	r.Use(codec.Middleware())
	// すべてのルートの前に実行される（/login, /logout, /healthz 以外は認証必須）
	r.Use(authmw.Gate(c.Resolver))

	// 導通確認用
	r.GET("/healthz", c.HealthHandler.Health)
	r.HEAD("/healthz", c.HealthHandler.Health)
	r.OPTIONS("/healthz", c.HealthHandler.Health)

	// ログイン・ログアウト
	r.GET("/login", c.AuthHandler.LoginPage)
	r.POST("/login", c.AuthHandler.Login)
	r.GET("/logout", c.AuthHandler.Logout)
	r.POST("/logout", c.AuthHandler.Logout)

	// 認証必須
	r.GET("/", c.AuthHandler.Home)
	users := r.Group("/users")
	{
		users.GET("", c.UserHandler.List)
		users.GET("/new", c.UserHandler.NewPage)
		users.POST("/new", c.UserHandler.Create)
		users.GET("/:id/edit", c.UserHandler.EditPage)
		users.POST("/:id/edit", c.UserHandler.Edit)
	}

	return r
}
