// Package usecase はusersフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"time"

	"user_admin/internal/feature/users/domain/entity"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create はUserとUserAuthを1つのトランザクションで永続化します。
	// メールアドレスの一意制約に違反した場合、ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByID は指定されたIDに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// FindByEmailWithAuth はUserAuthを含めてメールアドレスでユーザーを取得します。
	FindByEmailWithAuth(ctx context.Context, email string) (*entity.User, error)

	// List は作成日時の降順で全ユーザーを返します。
	List(ctx context.Context) ([]entity.User, error)

	// Update は指定された項目のみを更新します。
	Update(ctx context.Context, id uint, changes UserChanges) (*entity.User, error)

	// Delete はUserとUserAuthを1つのトランザクションで削除します。
	Delete(ctx context.Context, id uint) error

	// EmailExists は他のユーザーが指定のメールアドレスを使用しているかを返します。
	EmailExists(ctx context.Context, email string, excludeUserID *uint) (bool, error)

	// UpdateLastLogin はUserAuthの最終ログイン時刻を更新します。
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

// PasswordHasher はパスワードのハッシュ化インターフェースを定義します。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// UserChanges はリポジトリに渡す部分更新の内容です。nilの項目は変更しません。
type UserChanges struct {
	Email          *string
	Username       *string
	HashedPassword *string
}

// CreateUserInput はユーザー作成時の入力です。
type CreateUserInput struct {
	Email    string
	Username *string
	Password string
}

// UpdateUserInput はユーザー更新時の入力です。nilの項目は変更しません。
type UpdateUserInput struct {
	Email    *string
	Username *string
	Password *string
}

// UserUsecase はユーザー管理のビジネスロジックを提供します。
type UserUsecase struct {
	users  UserRepository
	hasher PasswordHasher
	now    func() time.Time
}

// NewUserUsecase はUserUsecaseの新しいインスタンスを生成します。
func NewUserUsecase(users UserRepository, hasher PasswordHasher) *UserUsecase {
	return &UserUsecase{
		users:  users,
		hasher: hasher,
		now:    time.Now,
	}
}

// GetAllUsers は作成日時の降順（新しい順）でユーザー一覧を返します。
func (u *UserUsecase) GetAllUsers(ctx context.Context) ([]entity.User, error) {
	return u.users.List(ctx)
}

// GetUserByID はIDでユーザーを取得します。
func (u *UserUsecase) GetUserByID(ctx context.Context, id uint) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}

// CheckEmailExists は他のユーザーがメールアドレスを使用しているかを返します。
// excludeUserID が所有者自身の場合は false を返します。
func (u *UserUsecase) CheckEmailExists(ctx context.Context, email string, excludeUserID *uint) (bool, error) {
	return u.users.EmailExists(ctx, email, excludeUserID)
}

// CreateUser はパスワードをハッシュ化してユーザーを作成します。
// 事前チェックはUX向けの高速パスで、最終的な判定はストアの一意制約に委ねます。
func (u *UserUsecase) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	exists, err := u.users.EmailExists(ctx, in.Email, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:    in.Email,
		Username: in.Username,
		Auth:     &entity.UserAuth{HashedPassword: hashed},
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser はユーザーを部分更新します。
// パスワードが指定された場合のみUserAuthを再ハッシュして保存します。
func (u *UserUsecase) UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*entity.User, error) {
	if in.Email != nil {
		exists, err := u.users.EmailExists(ctx, *in.Email, &id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrEmailAlreadyExists
		}
	}

	changes := UserChanges{Email: in.Email, Username: in.Username}
	if in.Password != nil {
		hashed, err := u.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		changes.HashedPassword = &hashed
	}

	return u.users.Update(ctx, id, changes)
}

// DeleteUser はユーザーを削除します。UserAuthも同じトランザクションで削除されます。
func (u *UserUsecase) DeleteUser(ctx context.Context, id uint) error {
	return u.users.Delete(ctx, id)
}

// UpdateLastLogin は最終ログイン時刻を現在時刻に更新します。
func (u *UserUsecase) UpdateLastLogin(ctx context.Context, id uint) error {
	if err := u.users.UpdateLastLogin(ctx, id, u.now()); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
