package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/contactbook/contacts-gateway/internal/api/metrics"
	"github.com/contactbook/contacts-gateway/internal/api/middleware"
	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

type AuthHandler struct {
	sessions     ports.SessionService
	sessionTTL   time.Duration
	secureCookie bool
}

func NewAuthHandler(sessions ports.SessionService, sessionTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{sessions: sessions, sessionTTL: sessionTTL, secureCookie: secureCookie}
}

type registerRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Identifier string `json:"identifier" form:"identifier" validate:"required"`
	Password   string `json:"password"   form:"password"   validate:"required"`
}

type authResponse struct {
	Token   string          `json:"token,omitempty"`
	User    *domain.User    `json:"user,omitempty"`
	Session *domain.Session `json:"session,omitempty"`
}

// Register creates a new user account on the backend.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return domain.ValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return domain.ValidationError(err.Error())
	}

	user, err := h.sessions.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Login authenticates against the backend and returns a session token to be
// sent as a bearer credential.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.ValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return domain.ValidationError(err.Error())
	}

	sess, token, err := h.signIn(c, req)
	if err != nil {
		return err
	}
	h.setCookie(c, token)
	return c.JSON(http.StatusOK, authResponse{Token: token, Session: sess})
}

// LoginForm handles the browser sign-in form: POST /login.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil || c.Validate(&req) != nil {
		return redirectWithError(c, middleware.LoginPath, "Enter your username and password.")
	}

	_, token, err := h.signIn(c, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return redirectWithError(c, middleware.LoginPath, "Invalid credentials.")
		}
		return err
	}
	h.setCookie(c, token)
	return c.Redirect(http.StatusSeeOther, middleware.HomePath)
}

// SignupForm handles the browser registration form: POST /signup.
func (h *AuthHandler) SignupForm(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return redirectWithError(c, "/signup", "Invalid form submission.")
	}
	if err := c.Validate(&req); err != nil {
		return redirectWithError(c, "/signup", err.Error())
	}

	_, err := h.sessions.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) && ue.Message != "" {
			return redirectWithError(c, "/signup", ue.Message)
		}
		return redirectWithError(c, "/signup", "Registration failed.")
	}
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath+"?registered=1")
}

// Logout clears the session cookie: POST /logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

func (h *AuthHandler) signIn(c echo.Context, req loginRequest) (*domain.Session, string, error) {
	sess, err := h.sessions.Authenticate(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return nil, "", err
	}
	token, err := h.sessions.Issue(sess)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, "", err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	return sess, token, nil
}

func (h *AuthHandler) setCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func redirectWithError(c echo.Context, path, msg string) error {
	return c.Redirect(http.StatusSeeOther, path+"?error="+url.QueryEscape(msg))
}
