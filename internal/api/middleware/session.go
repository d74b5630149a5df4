package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session_token"

const sessionKey = "session"

// SessionParser verifies a session token. It is satisfied by
// ports.SessionService.
type SessionParser interface {
	Parse(token string) (*domain.Session, error)
}

// Session resolves the caller's session and stores it in the context. An
// Authorization bearer header takes precedence over the cookie. Missing or
// invalid tokens are not an error here; the guard decides what an anonymous
// request may reach.
//
// API clients may also put a raw backend credential in the Authorization
// header. It does not parse as a session token, and BearerFrom hands it to
// the gateway, which resolves it against the backend itself.
func Session(parser SessionParser, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromRequest(c)
			if token == "" {
				return next(c)
			}

			sess, err := parser.Parse(token)
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("discarding session token")
				return next(c)
			}
			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by Session, or nil.
func SessionFrom(c echo.Context) *domain.Session {
	sess, _ := c.Get(sessionKey).(*domain.Session)
	return sess
}

// BearerFrom returns the backend credential for the request: the one carried
// by the session when there is a session, otherwise the raw Authorization
// bearer token. It returns "" for anonymous requests.
func BearerFrom(c echo.Context) string {
	if sess := SessionFrom(c); sess != nil {
		return sess.Bearer
	}
	return headerToken(c)
}

func headerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(h, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func tokenFromRequest(c echo.Context) string {
	if t := headerToken(c); t != "" {
		return t
	}
	if ck, err := c.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}
