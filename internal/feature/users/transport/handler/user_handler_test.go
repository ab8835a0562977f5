package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authentity "user_admin/internal/feature/auth/domain/entity"
	"user_admin/internal/feature/users/domain/entity"
	"user_admin/internal/feature/users/usecase"
	"user_admin/internal/platform/session"
	"user_admin/internal/platform/web"
)

// TestMain はテスト実行前にGinをテストモードに設定します。
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockUserUsecase is a mock implementation of UserUsecase.
type mockUserUsecase struct {
	GetAllUsersFunc func(ctx context.Context) ([]entity.User, error)
	GetUserByIDFunc func(ctx context.Context, id uint) (*entity.User, error)
	CreateUserFunc  func(ctx context.Context, in usecase.CreateUserInput) (*entity.User, error)
	UpdateUserFunc  func(ctx context.Context, id uint, in usecase.UpdateUserInput) (*entity.User, error)
	DeleteUserFunc  func(ctx context.Context, id uint) error

	created []usecase.CreateUserInput
	updated []usecase.UpdateUserInput
	deleted []uint
}

// GetAllUsers is the mock implementation of the GetAllUsers method.
func (m *mockUserUsecase) GetAllUsers(ctx context.Context) ([]entity.User, error) {
	if m.GetAllUsersFunc != nil {
		return m.GetAllUsersFunc(ctx)
	}
	return []entity.User{}, nil
}

// GetUserByID is the mock implementation of the GetUserByID method.
func (m *mockUserUsecase) GetUserByID(ctx context.Context, id uint) (*entity.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, id)
	}
	return nil, usecase.ErrUserNotFound
}

// CreateUser is the mock implementation of the CreateUser method.
func (m *mockUserUsecase) CreateUser(ctx context.Context, in usecase.CreateUserInput) (*entity.User, error) {
	m.created = append(m.created, in)
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, in)
	}
	return &entity.User{ID: 10, Email: in.Email, Username: in.Username}, nil
}

// UpdateUser is the mock implementation of the UpdateUser method.
func (m *mockUserUsecase) UpdateUser(ctx context.Context, id uint, in usecase.UpdateUserInput) (*entity.User, error) {
	m.updated = append(m.updated, in)
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, id, in)
	}
	return &entity.User{ID: id}, nil
}

// DeleteUser is the mock implementation of the DeleteUser method.
func (m *mockUserUsecase) DeleteUser(ctx context.Context, id uint) error {
	m.deleted = append(m.deleted, id)
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, id)
	}
	return nil
}

func setupRouter(h *UserHandler) *gin.Engine {
	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.Use(session.NewCodec([]byte("test-secret"), false).Middleware())
	r.Use(func(c *gin.Context) {
		c.Set(web.UserContextKey, &authentity.AuthUser{UserID: 1, Email: "admin@example.com"})
	})
	r.GET("/users", h.List)
	r.GET("/users/new", h.NewPage)
	r.POST("/users/new", h.Create)
	r.GET("/users/:id/edit", h.EditPage)
	r.POST("/users/:id/edit", h.Edit)
	return r
}

func do(r *gin.Engine, method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == session.CookieName {
			return ck
		}
	}
	return nil
}

func TestUserHandler_List(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	uc := &mockUserUsecase{GetAllUsersFunc: func(ctx context.Context) ([]entity.User, error) {
		return []entity.User{
			{ID: 2, Email: "b@example.com", CreatedAt: older.Add(time.Hour)},
			{ID: 1, Email: "a@example.com", CreatedAt: older},
		}, nil
	}}
	r := setupRouter(NewUserHandler(uc))

	w := do(r, http.MethodGet, "/users", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Less(t, strings.Index(body, "b@example.com"), strings.Index(body, "a@example.com"), "newest first")
}

func TestUserHandler_ListError(t *testing.T) {
	uc := &mockUserUsecase{GetAllUsersFunc: func(ctx context.Context) ([]entity.User, error) {
		return nil, errors.New("connection lost")
	}}
	r := setupRouter(NewUserHandler(uc))

	w := do(r, http.MethodGet, "/users", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUserHandler_Create(t *testing.T) {
	valid := url.Values{
		"email":           {"new@example.com"},
		"username":        {""},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	}
	with := func(key, value string) url.Values {
		v := url.Values{}
		for k, vs := range valid {
			v[k] = append([]string(nil), vs...)
		}
		v.Set(key, value)
		return v
	}

	tests := []struct {
		name        string
		form        url.Values
		create      func(ctx context.Context, in usecase.CreateUserInput) (*entity.User, error)
		wantStatus  int
		wantBody    string
		wantCreated int
	}{
		{
			name:       "failure: invalid email",
			form:       with("email", "not-an-email"),
			wantStatus: http.StatusOK,
			wantBody:   "有効なメールアドレスを入力してください",
		},
		{
			name:       "failure: short password",
			form:       with("password", "12345"),
			wantStatus: http.StatusOK,
			wantBody:   "パスワードは6文字以上で入力してください",
		},
		{
			name:       "failure: confirmation mismatch",
			form:       with("confirmPassword", "secret2"),
			wantStatus: http.StatusOK,
			wantBody:   "パスワードが一致しません",
		},
		{
			name: "failure: duplicate email",
			form: valid,
			create: func(ctx context.Context, in usecase.CreateUserInput) (*entity.User, error) {
				return nil, usecase.ErrEmailAlreadyExists
			},
			wantStatus:  http.StatusOK,
			wantBody:    "このメールアドレスは既に使用されています",
			wantCreated: 1,
		},
		{
			name: "failure: store error",
			form: valid,
			create: func(ctx context.Context, in usecase.CreateUserInput) (*entity.User, error) {
				return nil, errors.New("connection lost")
			},
			wantStatus:  http.StatusInternalServerError,
			wantCreated: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUserUsecase{CreateUserFunc: tt.create}
			r := setupRouter(NewUserHandler(uc))

			w := do(r, http.MethodPost, "/users/new", tt.form)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Len(t, uc.created, tt.wantCreated)
			assert.NotContains(t, w.Body.String(), "secret1", "password is never echoed")
		})
	}
}

// TestUserHandler_CreateSuccess は作成後に一覧へ戻り、フラッシュが一度だけ表示されることを検証します。
func TestUserHandler_CreateSuccess(t *testing.T) {
	uc := &mockUserUsecase{}
	r := setupRouter(NewUserHandler(uc))

	w := do(r, http.MethodPost, "/users/new", url.Values{
		"email":           {"new@example.com"},
		"username":        {"新人"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	})

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/users", w.Header().Get("Location"))
	require.Len(t, uc.created, 1)
	assert.Equal(t, "new@example.com", uc.created[0].Email)
	require.NotNil(t, uc.created[0].Username)
	assert.Equal(t, "新人", *uc.created[0].Username)
	assert.Equal(t, "secret1", uc.created[0].Password)

	ck := sessionCookie(w)
	require.NotNil(t, ck)
	list := do(r, http.MethodGet, "/users", nil, ck)
	assert.Contains(t, list.Body.String(), "ユーザーを作成しました")

	again := do(r, http.MethodGet, "/users", nil, sessionCookie(list))
	assert.NotContains(t, again.Body.String(), "ユーザーを作成しました")
}

func TestUserHandler_CreateWithoutUsername(t *testing.T) {
	uc := &mockUserUsecase{}
	r := setupRouter(NewUserHandler(uc))

	do(r, http.MethodPost, "/users/new", url.Values{
		"email":           {"new@example.com"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	})

	require.Len(t, uc.created, 1)
	assert.Nil(t, uc.created[0].Username)
}

func TestUserHandler_EditPage(t *testing.T) {
	name := "太郎"
	uc := &mockUserUsecase{GetUserByIDFunc: func(ctx context.Context, id uint) (*entity.User, error) {
		switch id {
		case 3:
			return &entity.User{ID: 3, Email: "taro@example.com", Username: &name}, nil
		case 4:
			return nil, errors.New("connection lost")
		}
		return nil, usecase.ErrUserNotFound
	}}
	r := setupRouter(NewUserHandler(uc))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"found", "/users/3/edit", http.StatusOK, `value="taro@example.com"`},
		{"non numeric id", "/users/abc/edit", http.StatusBadRequest, "Invalid user ID"},
		{"negative id", "/users/-1/edit", http.StatusBadRequest, "Invalid user ID"},
		{"missing user", "/users/99/edit", http.StatusNotFound, "User not found"},
		{"store error", "/users/4/edit", http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestUserHandler_Edit(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		form        url.Values
		update      func(ctx context.Context, id uint, in usecase.UpdateUserInput) (*entity.User, error)
		wantStatus  int
		wantBody    string
		wantUpdated int
	}{
		{
			name:        "success without password change",
			path:        "/users/3/edit",
			form:        url.Values{"email": {"taro@example.com"}, "username": {"太郎"}},
			wantStatus:  http.StatusFound,
			wantUpdated: 1,
		},
		{
			name: "failure: duplicate email",
			path: "/users/3/edit",
			form: url.Values{"email": {"taken@example.com"}},
			update: func(ctx context.Context, id uint, in usecase.UpdateUserInput) (*entity.User, error) {
				return nil, usecase.ErrEmailAlreadyExists
			},
			wantStatus:  http.StatusOK,
			wantBody:    "このメールアドレスは既に使用されています",
			wantUpdated: 1,
		},
		{
			name:       "failure: short password",
			path:       "/users/3/edit",
			form:       url.Values{"email": {"taro@example.com"}, "password": {"abc"}, "confirmPassword": {"abc"}},
			wantStatus: http.StatusOK,
			wantBody:   "パスワードは6文字以上で、確認用パスワードと一致している必要があります",
		},
		{
			name:       "failure: confirmation only",
			path:       "/users/3/edit",
			form:       url.Values{"email": {"taro@example.com"}, "confirmPassword": {"secret1"}},
			wantStatus: http.StatusOK,
			wantBody:   "パスワードは6文字以上で、確認用パスワードと一致している必要があります",
		},
		{
			name:       "failure: invalid email",
			path:       "/users/3/edit",
			form:       url.Values{"email": {"broken"}},
			wantStatus: http.StatusOK,
			wantBody:   "有効なメールアドレスを入力してください",
		},
		{
			name: "failure: missing user",
			path: "/users/99/edit",
			form: url.Values{"email": {"taro@example.com"}},
			update: func(ctx context.Context, id uint, in usecase.UpdateUserInput) (*entity.User, error) {
				return nil, usecase.ErrUserNotFound
			},
			wantStatus:  http.StatusNotFound,
			wantUpdated: 1,
		},
		{
			name:       "failure: non numeric id",
			path:       "/users/x/edit",
			form:       url.Values{"email": {"taro@example.com"}},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUserUsecase{UpdateUserFunc: tt.update}
			r := setupRouter(NewUserHandler(uc))

			w := do(r, http.MethodPost, tt.path, tt.form)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Len(t, uc.updated, tt.wantUpdated)
			assert.Empty(t, uc.deleted)
		})
	}
}

// TestUserHandler_EditInput は空のユーザー名・パスワードが「変更なし」として渡されることを検証します。
func TestUserHandler_EditInput(t *testing.T) {
	uc := &mockUserUsecase{}
	r := setupRouter(NewUserHandler(uc))

	do(r, http.MethodPost, "/users/3/edit", url.Values{"email": {"taro@example.com"}, "username": {""}, "password": {""}})
	do(r, http.MethodPost, "/users/3/edit", url.Values{"email": {"taro@example.com"}, "password": {"secret1"}, "confirmPassword": {"secret1"}})

	require.Len(t, uc.updated, 2)
	require.NotNil(t, uc.updated[0].Email)
	assert.Equal(t, "taro@example.com", *uc.updated[0].Email)
	assert.Nil(t, uc.updated[0].Username)
	assert.Nil(t, uc.updated[0].Password)
	require.NotNil(t, uc.updated[1].Password)
	assert.Equal(t, "secret1", *uc.updated[1].Password)
}

func TestUserHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		del        func(ctx context.Context, id uint) error
		wantStatus int
		wantIDs    []uint
	}{
		{"success", "/users/3/edit", nil, http.StatusFound, []uint{3}},
		{"missing user", "/users/99/edit", func(ctx context.Context, id uint) error { return usecase.ErrUserNotFound }, http.StatusNotFound, []uint{99}},
		{"store error", "/users/3/edit", func(ctx context.Context, id uint) error { return errors.New("connection lost") }, http.StatusInternalServerError, []uint{3}},
		{"non numeric id", "/users/abc/edit", nil, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUserUsecase{DeleteUserFunc: tt.del}
			r := setupRouter(NewUserHandler(uc))

			// 削除フォームは他の項目を送らないため、バリデーションは行われない
			w := do(r, http.MethodPost, tt.path, url.Values{"intent": {"delete"}})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantIDs, uc.deleted)
			assert.Empty(t, uc.updated)
			if tt.wantStatus == http.StatusFound {
				assert.Equal(t, "/users", w.Header().Get("Location"))
			}
		})
	}
}
