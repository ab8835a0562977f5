package main

import (
	"context"
	"errors"

	"user_admin/internal/feature/users/domain/entity"
	usersusecase "user_admin/internal/feature/users/usecase"
)

// adminCreator はシードに必要なユーザー操作です。
type adminCreator interface {
	CheckEmailExists(ctx context.Context, email string, excludeUserID *uint) (bool, error)
	CreateUser(ctx context.Context, in usersusecase.CreateUserInput) (*entity.User, error)
}

// seedAdmin は管理者が未登録の場合のみ作成します。作成した場合は true を返します。
// 同時実行で先に作成された場合も既存扱いにします。
func seedAdmin(ctx context.Context, users adminCreator, email, username, password string) (bool, error) {
	exists, err := users.CheckEmailExists(ctx, email, nil)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	var name *string
	if username != "" {
		name = &username
	}
	_, err = users.CreateUser(ctx, usersusecase.CreateUserInput{Email: email, Username: name, Password: password})
	if errors.Is(err, usersusecase.ErrEmailAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
