package di

import (
	"log/slog"

	"user_admin/internal/config"
	"user_admin/internal/platform/session"
)

// devSessionSecret はdebug/testモードで SESSION_SECRET 未設定時に使う鍵です。
// releaseモードでは config.Validate が未設定を拒否するため使われません。
const devSessionSecret = "user-admin-development-secret-change-me"

// NewSessionCodec creates the cookie session codec.
// Cookies are marked Secure in release mode.
func NewSessionCodec(cfg *config.Config) *session.Codec {
	secret := cfg.SessionSecret
	if secret == "" {
		slog.Warn("SESSION_SECRET is not set. Using a development secret; set a strong secret in production.")
		secret = devSessionSecret
	}
	return session.NewCodec([]byte(secret), cfg.IsRelease())
}
