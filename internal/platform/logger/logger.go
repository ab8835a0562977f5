// Package logger はアプリケーション全体で使うslogロガーを構築します。
package logger

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// New はAPP_ENVに応じたロガーを返します。
//   - development（または未設定）: tintによる色付きテキスト、Debugレベル
//   - それ以外: JSON、Infoレベル
func New(w io.Writer, env string) *slog.Logger {
	if env == "development" || env == "" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Setup はロガーを構築してslogのデフォルトに設定します。
func Setup(w io.Writer, env string) *slog.Logger {
	l := New(w, env)
	slog.SetDefault(l)
	return l
}
