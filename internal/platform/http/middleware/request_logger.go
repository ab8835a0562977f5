// Package middleware はプラットフォーム共通のginミドルウェアを提供します。
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger はリクエストの開始と完了を構造化ログに出力します。
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		r := c.Request

		requestLogger := logger.With(
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", c.ClientIP()),
			slog.String("user_agent", r.UserAgent()),
		)
		requestLogger.DebugContext(r.Context(), "request started")

		c.Next()

		latency := time.Since(start)
		attrs := []any{
			slog.Int("status", c.Writer.Status()),
			slog.Int("bytes_written", c.Writer.Size()),
			slog.Duration("latency", latency),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		requestLogger.Log(r.Context(), level, "request completed", attrs...)
	}
}
