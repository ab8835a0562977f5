// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"

	"user_admin/internal/feature/auth/domain/entity"
	userentity "user_admin/internal/feature/users/domain/entity"
	usersusecase "user_admin/internal/feature/users/usecase"
)

// dummyHash はユーザーが存在しない場合に比較へ使うbcryptハッシュです。
// 存在有無で応答時間が変わらないようにします。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserReader は認証に必要なユーザー参照操作を定義します。
// Goの慣例に従い、インターフェースはプロバイダー（users adapters）ではなくコンシューマー（usecase）が定義します。
type UserReader interface {
	// FindByID はIDでユーザーを取得します。存在しない場合はErrUserNotFoundを返します。
	FindByID(ctx context.Context, id uint) (*userentity.User, error)

	// FindByEmailWithAuth はUserAuthを含めてユーザーを取得します。
	FindByEmailWithAuth(ctx context.Context, email string) (*userentity.User, error)
}

// PasswordVerifier はパスワード検証のインターフェースです。
type PasswordVerifier interface {
	Verify(plaintext, digest string) bool
}

// AuthUsecase は認証の解決と資格情報の検証を行います。副作用はありません。
type AuthUsecase struct {
	users    UserReader
	verifier PasswordVerifier
}

// NewAuthUsecase はAuthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserReader, verifier PasswordVerifier) *AuthUsecase {
	return &AuthUsecase{users: users, verifier: verifier}
}

// GetAuthUser はセッションのユーザーIDから認証済みユーザーを解決します。
// IDが0、またはユーザーが削除済みの場合はエラーではなく nil を返します。
func (u *AuthUsecase) GetAuthUser(ctx context.Context, userID uint) (*entity.AuthUser, error) {
	if userID == 0 {
		return nil, nil
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, usersusecase.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return toAuthUser(user), nil
}

// AuthenticateUser はメールアドレスとパスワードを検証します。
// 「メールアドレスが存在しない」と「パスワード違い」は区別せず、どちらも nil を返します。
// 最終ログイン時刻の更新とセッション発行は呼び出し側の責務です。
func (u *AuthUsecase) AuthenticateUser(ctx context.Context, email, password string) (*entity.AuthUser, error) {
	user, err := u.users.FindByEmailWithAuth(ctx, email)
	if err != nil && !errors.Is(err, usersusecase.ErrUserNotFound) {
		return nil, err
	}

	// タイミング攻撃防止のため、ユーザーが存在しない場合も比較を実行する
	digest := dummyHash
	if err == nil && user.Auth != nil {
		digest = user.Auth.HashedPassword
	}
	valid := u.verifier.Verify(password, digest)

	if err != nil || user.Auth == nil || !valid {
		return nil, nil
	}

	return toAuthUser(user), nil
}

func toAuthUser(u *userentity.User) *entity.AuthUser {
	return &entity.AuthUser{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
	}
}
