// Package handler はusersフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"user_admin/internal/feature/users/domain/entity"
	"user_admin/internal/feature/users/transport/http/dto"
	"user_admin/internal/feature/users/usecase"
	"user_admin/internal/platform/session"
	"user_admin/internal/platform/web"
)

// UserUsecase はユーザー管理画面が利用するユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type UserUsecase interface {
	GetAllUsers(ctx context.Context) ([]entity.User, error)
	GetUserByID(ctx context.Context, id uint) (*entity.User, error)
	CreateUser(ctx context.Context, in usecase.CreateUserInput) (*entity.User, error)
	UpdateUser(ctx context.Context, id uint, in usecase.UpdateUserInput) (*entity.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

// UserHandler はユーザー一覧・作成・編集・削除のHTTPリクエストを処理します。
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler はUserHandlerの新しいインスタンスを生成します。
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// List は GET /users を処理します。新しい順に一覧を表示します。
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.GetAllUsers(c.Request.Context())
	if err != nil {
		internalError(c, "failed to list users", err)
		return
	}

	s := session.Load(c)
	flash := s.Flash(session.FlashSuccess)
	if flash != "" {
		// 読み出したフラッシュを削除する
		if err := s.Commit(); err != nil {
			slog.Warn("failed to clear flash", "error", err)
		}
	}

	web.Render(c, http.StatusOK, "users_index.html", gin.H{
		"Title": "ユーザー一覧",
		"Users": users,
		"Flash": flash,
	})
}

// NewPage は GET /users/new を処理します。
func (h *UserHandler) NewPage(c *gin.Context) {
	h.renderNew(c, dto.CreateUserForm{}, nil)
}

// Create は POST /users/new を処理します。
// - バリデーションエラー時は項目エラー付きで再表示（200）
// - メールアドレス重複時はemail欄にエラーを表示（200）
// - 成功時はフラッシュを設定して /users へ302
func (h *UserHandler) Create(c *gin.Context) {
	var form dto.CreateUserForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderNew(c, form, web.TranslateBindError(err, dto.CreateUserMessages))
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), usecase.CreateUserInput{
		Email:    form.Email,
		Username: dto.OptionalString(form.Username),
		Password: form.Password,
	})
	if errors.Is(err, usecase.ErrEmailAlreadyExists) {
		h.renderNew(c, form, web.FieldErrors{"email": dto.DuplicateEmailMessage})
		return
	}
	if err != nil {
		internalError(c, "failed to create user", err)
		return
	}

	slog.Info("user created", "user_id", user.ID)
	redirectWithFlash(c, "/users", "ユーザーを作成しました")
}

// EditPage は GET /users/:id/edit を処理します。
// IDが数値でなければ400、ユーザーが存在しなければ404を返します。
func (h *UserHandler) EditPage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), id)
	if errors.Is(err, usecase.ErrUserNotFound) {
		c.String(http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(c, "failed to load user", err)
		return
	}

	form := dto.EditUserForm{Email: user.Email}
	if user.Username != nil {
		form.Username = *user.Username
	}
	h.renderEdit(c, id, form, nil)
}

// Edit は POST /users/:id/edit を処理します。
// intent=delete の場合は削除、それ以外は更新します。
func (h *UserHandler) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if c.PostForm("intent") == "delete" {
		h.delete(c, id)
		return
	}

	var form dto.EditUserForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderEdit(c, id, form, web.TranslateBindError(err, dto.EditUserMessages))
		return
	}

	// 空のユーザー名・パスワードは「変更しない」
	// そのため一度設定したユーザー名を画面から空に戻すことはできない
	_, err := h.users.UpdateUser(c.Request.Context(), id, usecase.UpdateUserInput{
		Email:    &form.Email,
		Username: dto.OptionalString(form.Username),
		Password: dto.OptionalString(form.Password),
	})
	switch {
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		h.renderEdit(c, id, form, web.FieldErrors{"email": dto.DuplicateEmailMessage})
		return
	case errors.Is(err, usecase.ErrUserNotFound):
		c.String(http.StatusNotFound, "User not found")
		return
	case err != nil:
		internalError(c, "failed to update user", err)
		return
	}

	slog.Info("user updated", "user_id", id)
	redirectWithFlash(c, "/users", "ユーザー情報を更新しました")
}

func (h *UserHandler) delete(c *gin.Context, id uint) {
	err := h.users.DeleteUser(c.Request.Context(), id)
	if errors.Is(err, usecase.ErrUserNotFound) {
		c.String(http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(c, "failed to delete user", err)
		return
	}

	slog.Info("user deleted", "user_id", id)
	redirectWithFlash(c, "/users", "ユーザーを削除しました")
}

func (h *UserHandler) renderNew(c *gin.Context, form dto.CreateUserForm, errs web.FieldErrors) {
	form.Password, form.ConfirmPassword = "", ""
	web.Render(c, http.StatusOK, "users_new.html", gin.H{
		"Title":  "ユーザー登録",
		"Form":   form,
		"Errors": orEmpty(errs),
	})
}

func (h *UserHandler) renderEdit(c *gin.Context, id uint, form dto.EditUserForm, errs web.FieldErrors) {
	form.Password, form.ConfirmPassword = "", ""
	web.Render(c, http.StatusOK, "users_edit.html", gin.H{
		"Title":  "ユーザー編集",
		"UserID": id,
		"Form":   form,
		"Errors": orEmpty(errs),
	})
}

// parseID はパスパラメータ :id を読み取ります。数値でなければ400を返して false を返します。
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid user ID")
		return 0, false
	}
	return uint(id), true
}

func redirectWithFlash(c *gin.Context, location, message string) {
	s := session.Load(c)
	s.AddFlash(session.FlashSuccess, message)
	if err := s.Commit(); err != nil {
		slog.Warn("failed to save flash", "error", err)
	}
	c.Redirect(http.StatusFound, location)
}

func internalError(c *gin.Context, msg string, err error) {
	slog.Error(msg, "error", err, "path", c.Request.URL.Path)
	c.String(http.StatusInternalServerError, "internal server error")
}

func orEmpty(errs web.FieldErrors) web.FieldErrors {
	if errs == nil {
		return web.FieldErrors{}
	}
	return errs
}
