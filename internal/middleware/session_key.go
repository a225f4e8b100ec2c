package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxSessionKeyKey = "session_key" // string

	// クライアントが明示的に渡す場合のヘッダ。cookieより優先。
	SessionKeyHeader = "X-Session-ID"

	sessionCookieName = "cart_session"
	sessionCookieTTL  = 7 * 24 * time.Hour
)

// SessionKey は匿名カートのキーを解決してcontextに積む。
// ヘッダがあればそれを使い、無ければcookie、どちらも無ければ新しく発行する。
func SessionKey() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key := c.Request().Header.Get(SessionKeyHeader); key != "" {
				c.Set(CtxSessionKeyKey, key)
				return next(c)
			}

			if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				c.Set(CtxSessionKeyKey, cookie.Value)
				return next(c)
			}

			// 初回アクセス。cookieを植えて同じキーを使い続けさせる。
			key := uuid.NewString()
			c.SetCookie(&http.Cookie{
				Name:     sessionCookieName,
				Value:    key,
				Path:     "/",
				Expires:  time.Now().Add(sessionCookieTTL),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(CtxSessionKeyKey, key)
			return next(c)
		}
	}
}
