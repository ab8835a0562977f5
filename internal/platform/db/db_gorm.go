// Package db はGORMによるデータベース接続とマイグレーションを提供します。
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"user_admin/internal/config"
	"user_admin/internal/feature/users/domain/entity"
)

// retryInterval は接続リトライの間隔です。
const retryInterval = 3 * time.Second

// Config はデータベース接続設定です。
type Config struct {
	Driver   string
	User     string
	Password string
	Name     string
	Host     string
	Port     string
	SSLMode  string
	Path     string // SQLiteのファイルパス
}

// Opener はDSNからgorm.DBを開く関数です。テストで差し替え可能です。
type Opener func(dsn string) (*gorm.DB, error)

// ConfigFromApp はアプリケーション設定からDB設定を作成します。
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		Driver:   cfg.DBDriver,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		SSLMode:  cfg.DBSSLMode,
		Path:     cfg.SQLitePath,
	}
}

// BuildDSN はドライバーに応じた接続文字列を生成します。
func BuildDSN(cfg Config) string {
	if cfg.Driver == "postgres" {
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode)
	}

	path := cfg.Path
	if path == "" || path == ":memory:" {
		path = "file::memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	// SQLiteは外部キー制約がデフォルトで無効なので明示的に有効化する
	return path + sep + "_foreign_keys=on"
}

// gormConfig は全ドライバー共通のGORM設定です。
// TranslateError で一意制約違反を gorm.ErrDuplicatedKey に変換します。
func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

// OpenerFor はドライバー名に対応するOpenerを返します。
func OpenerFor(driver string) Opener {
	if driver == "postgres" {
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormConfig())
		}
	}
	return func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), gormConfig())
	}
}

// ConnectWithRetry は接続に成功するかタイムアウトするまでリトライします。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// Open は設定に従ってDBに接続し、必要であればマイグレーションを実行します。
func Open(cfg Config, runMigrations bool) (*gorm.DB, error) {
	db, err := ConnectWithRetry(BuildDSN(cfg), 60*time.Second, OpenerFor(cfg.Driver))
	if err != nil {
		return nil, err
	}

	if cfg.Driver != "postgres" {
		// インメモリSQLiteは接続ごとに別DBになるため、接続を1本に固定する
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if runMigrations {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	slog.Info("database connected", "driver", cfg.Driver)
	return db, nil
}

// OpenInMemory はテスト用のインメモリSQLiteを開き、マイグレーションまで実行します。
func OpenInMemory() (*gorm.DB, error) {
	return Open(Config{Driver: "sqlite", Path: ":memory:"}, true)
}

// Migrate はUserとUserAuthのテーブルを作成します。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&entity.User{}, &entity.UserAuth{})
}
