// Package redis はキャッシュ用のRedisクライアントを構築します。
package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient はRedisに接続し、疎通確認に成功したクライアントを返します。
// 接続できない場合はエラーを返します。呼び出し側はキャッシュ無しで起動を続けられます。
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          0,
		DialTimeout: 2 * time.Second,
	})

	// 接続確認
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		slog.Warn("Redis connection failed", "address", addr, "error", err)
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
