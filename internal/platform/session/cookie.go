// Package session は署名付きCookieによるセッション管理を提供します。
// セッションはサーバー側に保存されず、ユーザーIDとメールアドレスのみをCookieに保持します。
package session

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	// CookieName はセッションCookieの名前です。
	CookieName = "__session"

	// MaxAge はセッションの有効期間です（発行から7日）。
	MaxAge = 7 * 24 * time.Hour

	// FlashError / FlashSuccess は一度だけ表示するメッセージの種別です。
	FlashError   = "error"
	FlashSuccess = "success"

	keyUserID   = "userId"
	keyEmail    = "email"
	keyIssuedAt = "issuedAt"

	codecContextKey = "session.codec"
)

// Codec はCookieストアとその属性をまとめたものです。プロセス起動時に1つだけ作成します。
type Codec struct {
	store   cookie.Store
	options sessions.Options
	now     func() time.Time
}

// NewCodec は秘密鍵でHMAC署名するCookieストアを作成します。
// secure は本番モードで true にします。
func NewCodec(secret []byte, secure bool) *Codec {
	options := sessions.Options{
		Path:     "/",
		MaxAge:   int(MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store := cookie.NewStore(secret)
	store.Options(options)
	return &Codec{store: store, options: options, now: time.Now}
}

// Middleware はリクエストごとにセッションを読み込むginミドルウェアを返します。
func (k *Codec) Middleware() gin.HandlerFunc {
	inner := sessions.Sessions(CookieName, k.store)
	return func(c *gin.Context) {
		c.Set(codecContextKey, k)
		inner(c)
	}
}

// Session は1リクエスト分のセッションです。
type Session struct {
	raw   sessions.Session
	codec *Codec
}

// Load は現在のリクエストのセッションを返します。
// Cookieが無い・壊れている・署名が不正な場合は空のセッションになり、エラーにはなりません。
func Load(c *gin.Context) *Session {
	codec, ok := c.Get(codecContextKey)
	if !ok {
		panic("session: Codec.Middleware is not installed")
	}
	return &Session{raw: sessions.Default(c), codec: codec.(*Codec)}
}

// UserID はログイン中のユーザーIDを返します。未ログインまたは期限切れの場合は0です。
func (s *Session) UserID() uint {
	if !s.valid() {
		return 0
	}
	id, _ := s.raw.Get(keyUserID).(uint)
	return id
}

// Email はセッションに保存されたメールアドレスを返します。
func (s *Session) Email() string {
	if !s.valid() {
		return ""
	}
	email, _ := s.raw.Get(keyEmail).(string)
	return email
}

// SetIdentity はログインしたユーザーをセッションに記録します。Commitで確定します。
func (s *Session) SetIdentity(userID uint, email string) {
	s.raw.Set(keyUserID, userID)
	s.raw.Set(keyEmail, email)
	s.raw.Set(keyIssuedAt, s.codec.now().Unix())
}

// Commit はセッションをSet-Cookieとしてレスポンスに書き込みます。
func (s *Session) Commit() error {
	return s.raw.Save()
}

// Destroy はセッションを破棄し、Cookieを即時失効させます。
func (s *Session) Destroy() error {
	s.raw.Clear()
	expired := s.codec.options
	expired.MaxAge = -1
	s.raw.Options(expired)
	return s.raw.Save()
}

// AddFlash は次のリクエストで一度だけ読まれるメッセージを追加します。
func (s *Session) AddFlash(kind, message string) {
	s.raw.AddFlash(message, kind)
}

// Flash は指定種別のメッセージを取り出します。取り出した後はCommitで削除が確定します。
func (s *Session) Flash(kind string) string {
	for _, f := range s.raw.Flashes(kind) {
		if msg, ok := f.(string); ok && msg != "" {
			return msg
		}
	}
	return ""
}

// valid は発行から有効期間内かを返します。
// ブラウザがMaxAgeを無視して古いCookieを送ってきた場合もここで弾きます。
func (s *Session) valid() bool {
	issuedAt := readUnix(s.raw.Get(keyIssuedAt))
	if issuedAt.IsZero() {
		return false
	}
	return s.codec.now().Sub(issuedAt) <= MaxAge
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
