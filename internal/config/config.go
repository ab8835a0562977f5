// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrConfig は起動時の設定不備を表します。プロセスはこのエラーで起動を中止します。
var ErrConfig = errors.New("invalid configuration")

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // HTTPサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)
	AppEnv  string // 実行環境 (development, production)

	// セッション設定
	SessionSecret string // セッションCookie署名用の秘密鍵

	// DB設定
	DBDriver      string // sqlite または postgres
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	SQLitePath    string
	RunMigrations bool

	// Redis設定（未接続でも起動可能）
	RedisHost     string
	RedisPort     string
	RedisPassword string
	CacheTTL      time.Duration

	// パスワードハッシュのコスト
	BcryptCost int

	// シード用の管理者アカウント
	SeedAdminEmail    string
	SeedAdminPassword string
	SeedAdminUsername string
}

// Load は環境変数から設定を読み込みます。
// .env ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),
		AppEnv:  getEnv("APP_ENV", "development"),

		SessionSecret: getEnv("SESSION_SECRET", ""),

		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBHost:        getEnv("DB_HOST", ""),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", ""),
		DBPassword:    getEnv("DB_PASSWORD", ""),
		DBName:        getEnv("DB_NAME", ""),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		SQLitePath:    getEnv("SQLITE_PATH", "./user_admin.db"),
		RunMigrations: getEnvAsBool("RUN_MIGRATIONS", true),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		BcryptCost: getEnvAsInt("BCRYPT_COST", 0),

		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
		SeedAdminUsername: getEnv("SEED_ADMIN_USERNAME", "Administrator"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env"))
}

// IsRelease は本番相当のモードで動作しているかを返します。
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// Validate は設定の妥当性を検証します。
// ローカル開発では秘密鍵は任意ですが、release モードでは必須です。
func (c *Config) Validate() error {
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("%w: unsupported GIN_MODE %q", ErrConfig, c.GinMode)
	}

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: unsupported DB_DRIVER %q", ErrConfig, c.DBDriver)
	}

	if !c.IsRelease() {
		return nil
	}

	if c.SessionSecret == "" {
		return fmt.Errorf("%w: SESSION_SECRET is required in release mode", ErrConfig)
	}
	if c.DBDriver == "postgres" {
		if c.DBHost == "" {
			return fmt.Errorf("%w: DB_HOST is required in release mode", ErrConfig)
		}
		if c.DBName == "" {
			return fmt.Errorf("%w: DB_NAME is required in release mode", ErrConfig)
		}
	}

	return nil
}

// RedisAddr は Redis の接続先を返します。REDIS_HOST 未設定時は空文字です。
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
