// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authhandler "user_admin/internal/feature/auth/transport/handler"
	authusecase "user_admin/internal/feature/auth/usecase"
	usersadapters "user_admin/internal/feature/users/adapters"
	usershandler "user_admin/internal/feature/users/transport/handler"
	usersusecase "user_admin/internal/feature/users/usecase"
	"user_admin/internal/platform/cache"
	platformhandler "user_admin/internal/platform/http/handler"
	"user_admin/internal/platform/password"
)

// Options はコンテナ構築時に外部から渡す依存です。
type Options struct {
	DB         *gorm.DB
	Redis      *redis.Client // nil ならキャッシュ無し
	CacheTTL   time.Duration
	BcryptCost int
}

// Container はプロセス起動時に一度だけ構築される依存オブジェクトの集合です。
type Container struct {
	Users    *usersusecase.UserUsecase
	Resolver *authusecase.AuthUsecase

	AuthHandler   *authhandler.AuthHandler
	UserHandler   *usershandler.UserHandler
	HealthHandler *platformhandler.HealthHandler
}

// NewContainer wires repositories, usecases and handlers.
func NewContainer(opts Options) (*Container, error) {
	sqlDB, err := opts.DB.DB()
	if err != nil {
		return nil, err
	}

	// Repository（画面表示用はRedisキャッシュでラップ）
	storeRepo := usersadapters.NewUserRepository(opts.DB)
	userRepo := cache.NewCachingUserRepository(opts.Redis, opts.CacheTTL, storeRepo, "users")
	hasher := password.NewBcryptHasher(opts.BcryptCost)

	// Usecase
	// 認証はリクエストごとにDBで解決する（削除済みユーザーをキャッシュから復元しない）
	usersUC := usersusecase.NewUserUsecase(userRepo, hasher)
	authUC := authusecase.NewAuthUsecase(storeRepo, hasher)

	return &Container{
		Users:         usersUC,
		Resolver:      authUC,
		AuthHandler:   authhandler.NewAuthHandler(authUC, usersUC),
		UserHandler:   usershandler.NewUserHandler(usersUC),
		HealthHandler: platformhandler.NewHealthHandler(sqlDB),
	}, nil
}
