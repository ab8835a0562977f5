// Command seed は初期管理者アカウントを作成します。既に存在する場合は何もしません。
package main

import (
	"context"
	"log"
	"os"

	"user_admin/internal/config"
	usersadapters "user_admin/internal/feature/users/adapters"
	usersusecase "user_admin/internal/feature/users/usecase"
	"user_admin/internal/platform/db"
	"user_admin/internal/platform/logger"
	"user_admin/internal/platform/password"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	l := logger.Setup(os.Stdout, cfg.AppEnv)

	gdb, err := db.Open(db.ConfigFromApp(cfg), true)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	users := usersusecase.NewUserUsecase(usersadapters.NewUserRepository(gdb), password.NewBcryptHasher(cfg.BcryptCost))

	created, err := seedAdmin(context.Background(), users, cfg.SeedAdminEmail, cfg.SeedAdminUsername, cfg.SeedAdminPassword)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if created {
		l.Info("admin user created", "email", cfg.SeedAdminEmail)
	} else {
		l.Info("admin user already exists", "email", cfg.SeedAdminEmail)
	}
}
