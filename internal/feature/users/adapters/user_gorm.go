// Package adapters はusersフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"user_admin/internal/feature/users/domain/entity"
	"user_admin/internal/feature/users/usecase"
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
// PostgreSQL と SQLite のどちらでも動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserRepository は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserRepository(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はUserとUserAuthを1つのトランザクションで追加します。
// どちらかが失敗した場合は両方ロールバックされます。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	if u.Auth == nil {
		return errors.New("user auth is required")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return err
		}
		u.Auth.UserID = u.ID
		return tx.Create(u.Auth).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmailWithAuth はUserAuthを含めてメールアドレスでユーザーを取得します。
func (r *userGorm) FindByEmailWithAuth(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Preload("Auth").Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List は作成日時の降順で全ユーザーを返します。同時刻の場合はIDの降順です。
func (r *userGorm) List(ctx context.Context) ([]entity.User, error) {
	users := []entity.User{}
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("user_id DESC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update は指定された項目のみを更新し、更新後のユーザーを返します。
// HashedPasswordが指定された場合はUserAuthをupsertします。
func (r *userGorm) Update(ctx context.Context, id uint, changes usecase.UserChanges) (*entity.User, error) {
	var updated entity.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).First(&updated).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return usecase.ErrUserNotFound
			}
			return err
		}

		values := map[string]any{}
		if changes.Email != nil {
			values["email"] = *changes.Email
		}
		if changes.Username != nil {
			values["username"] = *changes.Username
		}
		if len(values) > 0 {
			if err := tx.Model(&entity.User{}).Where("user_id = ?", id).Updates(values).Error; err != nil {
				return err
			}
		}

		if changes.HashedPassword != nil {
			auth := entity.UserAuth{UserID: id, HashedPassword: *changes.HashedPassword}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"hashed_password"}),
			}).Create(&auth).Error; err != nil {
				return err
			}
		}

		return tx.Where("user_id = ?", id).First(&updated).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, usecase.ErrEmailAlreadyExists
		}
		return nil, err
	}
	return &updated, nil
}

// Delete はUserAuthとUserを同じトランザクションで削除します。
// 外部キーのON DELETE CASCADEにも頼りますが、明示的に削除して孤立行を残しません。
func (r *userGorm) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&entity.UserAuth{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ?", id).Delete(&entity.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrUserNotFound
		}
		return nil
	})
}

// EmailExists は指定のメールアドレスを持つユーザーが（excludeUserIDを除いて）存在するかを返します。
func (r *userGorm) EmailExists(ctx context.Context, email string, excludeUserID *uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&entity.User{}).Where("email = ?", email)
	if excludeUserID != nil {
		q = q.Where("user_id <> ?", *excludeUserID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastLogin はUserAuthの最終ログイン時刻を設定します。何度呼んでも安全です。
func (r *userGorm) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.UserAuth{}).
		Where("user_id = ?", id).
		Update("last_login_at", at).Error
}

// isUniqueViolation は一意制約違反かを判定します。
// TranslateError が無効な接続でも検出できるよう、ドライバーのメッセージも確認します。
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
