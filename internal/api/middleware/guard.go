package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/contactbook/contacts-gateway/internal/api/metrics"
	"github.com/contactbook/contacts-gateway/internal/core/domain"
)

// Decision is the outcome of the access check for one request.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case RedirectToLogin:
		return "redirect_login"
	case RedirectToHome:
		return "redirect_home"
	default:
		return "allow"
	}
}

const (
	LoginPath = "/login"
	HomePath  = "/home"
)

var (
	publicRoutes    = []string{"/login", "/signup"}
	protectedRoutes = []string{"/home", "/api/contacts"}
	adminRoutes     = []string{"/debug", "/users"}
)

// Decide classifies path and applies the session rules:
//   - public: signed-in users are sent home
//   - protected: any session is enough
//   - admin-only: the session role must be the administrator role exactly,
//     otherwise the user is sent home without an error page
func Decide(path string, sess *domain.Session) Decision {
	switch {
	case matchAny(path, publicRoutes):
		if sess != nil {
			return RedirectToHome
		}
		return Allow
	case matchAny(path, protectedRoutes):
		if sess == nil {
			return RedirectToLogin
		}
		return Allow
	case matchAny(path, adminRoutes):
		if sess == nil {
			return RedirectToLogin
		}
		if !sess.IsAdmin() {
			return RedirectToHome
		}
		return Allow
	default:
		return Allow
	}
}

// Guard enforces Decide before any handler runs. API callers get a 401
// instead of a login redirect. An API request carrying a bearer credential
// but no session is let through; the gateway authenticates it.
func Guard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			sess := SessionFrom(c)
			d := Decide(path, sess)
			if d == RedirectToLogin && sess == nil && isAPI(path) && headerToken(c) != "" {
				d = Allow
			}
			metrics.GuardDecisionsTotal.WithLabelValues(d.String()).Inc()

			switch d {
			case RedirectToLogin:
				if isAPI(path) {
					return fmt.Errorf("%w: sign in required", domain.ErrUnauthorized)
				}
				return c.Redirect(http.StatusFound, LoginPath)
			case RedirectToHome:
				return c.Redirect(http.StatusFound, HomePath)
			}
			return next(c)
		}
	}
}

func isAPI(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// matchAny reports whether path equals one of routes or lies below it.
func matchAny(path string, routes []string) bool {
	for _, r := range routes {
		if path == r || strings.HasPrefix(path, r+"/") {
			return true
		}
	}
	return false
}
