// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"user_admin/internal/feature/auth/domain/entity"
	"user_admin/internal/feature/auth/transport/http/dto"
	"user_admin/internal/feature/auth/transport/middleware"
	"user_admin/internal/platform/session"
	"user_admin/internal/platform/web"
)

// invalidCredentialsMessage は認証失敗時の汎用メッセージです。
// メールアドレスの有無とパスワード違いを区別しません。
const invalidCredentialsMessage = "メールアドレスまたはパスワードが間違っています"

// Authenticator は資格情報の検証を定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type Authenticator interface {
	// AuthenticateUser は資格情報が正しければユーザーを、そうでなければ nil を返します。
	AuthenticateUser(ctx context.Context, email, password string) (*entity.AuthUser, error)
}

// LoginRecorder はログイン成功の記録を定義します。
type LoginRecorder interface {
	UpdateLastLogin(ctx context.Context, id uint) error
}

// AuthHandler はログイン・ログアウトとホーム画面のHTTPリクエストを処理します。
type AuthHandler struct {
	auth  Authenticator
	users LoginRecorder
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth Authenticator, users LoginRecorder) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

// Home は GET / を処理します。
func (h *AuthHandler) Home(c *gin.Context) {
	web.Render(c, http.StatusOK, "index.html", gin.H{"Title": "ホーム"})
}

// LoginPage は GET /login を処理します。ログイン済みなら / へリダイレクトします。
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	web.Render(c, http.StatusOK, "login.html", gin.H{"Title": "ログイン", "Form": dto.LoginForm{}})
}

// Login は POST /login を処理します。
// - バリデーションエラー時は項目エラー付きでフォームを再表示（200）
// - 認証失敗時は汎用エラー付きでフォームを再表示（200）
// - 成功時は最終ログイン時刻を更新し、セッションを発行して / へ302
func (h *AuthHandler) Login(c *gin.Context) {
	var form dto.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Debug("login validation failed", "error", err, "remote_addr", c.ClientIP())
		h.renderLogin(c, form, web.TranslateBindError(err, dto.LoginMessages))
		return
	}

	ctx := c.Request.Context()
	user, err := h.auth.AuthenticateUser(ctx, form.Email, form.Password)
	if err != nil {
		slog.Error("login failed", "error", err, "remote_addr", c.ClientIP())
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		// ユーザー列挙攻撃を防止するため、失敗理由を区別しない
		slog.Warn("login failed", "email", form.Email, "remote_addr", c.ClientIP())
		h.renderLogin(c, form, web.FieldErrors{"form": invalidCredentialsMessage})
		return
	}

	if err := h.users.UpdateLastLogin(ctx, user.UserID); err != nil {
		slog.Error("failed to record login", "error", err, "user_id", user.UserID)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	s := session.Load(c)
	s.SetIdentity(user.UserID, user.Email)
	if err := s.Commit(); err != nil {
		slog.Error("failed to save session", "error", err, "user_id", user.UserID)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	slog.Info("user login successful", "user_id", user.UserID, "remote_addr", c.ClientIP())
	c.Redirect(http.StatusFound, "/")
}

// Logout は GET/POST /logout を処理します。Cookieを失効させて /login へ302します。
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := session.Load(c).Destroy(); err != nil {
		slog.Error("failed to destroy session", "error", err)
	}
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

func (h *AuthHandler) renderLogin(c *gin.Context, form dto.LoginForm, errs web.FieldErrors) {
	// パスワードは再表示しない
	form.Password = ""
	web.Render(c, http.StatusOK, "login.html", gin.H{"Title": "ログイン", "Form": form, "Errors": errs})
}
