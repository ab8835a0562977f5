// Package middleware はリクエストごとの認証解決とアクセス制御を提供します。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"user_admin/internal/feature/auth/domain/entity"
	"user_admin/internal/platform/session"
	"user_admin/internal/platform/web"
)

// LoginPath は未認証リクエストのリダイレクト先です。
const LoginPath = "/login"

// publicPaths は未認証でも到達できるパスです。
var publicPaths = map[string]struct{}{
	LoginPath: {},
	"/logout": {},
	"/healthz": {},
}

// AuthResolver はセッションのユーザーIDから認証済みユーザーを解決します。
type AuthResolver interface {
	GetAuthUser(ctx context.Context, userID uint) (*entity.AuthUser, error)
}

// Gate はすべてのリクエストの前に実行されるginミドルウェアを返します。
//  1. セッションCookieからユーザーを解決し、コンテキストに保存
//  2. 解決できた場合、または公開パスの場合は次のハンドラーへ
//  3. それ以外は /login へ302リダイレクトして中断
//
// session.Codec.Middleware の後に登録する必要があります。
func Gate(resolver AuthResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolver.GetAuthUser(c.Request.Context(), session.Load(c).UserID())
		if err != nil {
			slog.Error("failed to resolve session user", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if user != nil {
			c.Set(web.UserContextKey, user)
			c.Next()
			return
		}

		if _, ok := publicPaths[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		c.Redirect(http.StatusFound, LoginPath)
		c.Abort()
	}
}

// CurrentUser はGateが解決したユーザーを返します。未認証の場合は nil です。
func CurrentUser(c *gin.Context) *entity.AuthUser {
	v, ok := c.Get(web.UserContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*entity.AuthUser)
	return user
}
