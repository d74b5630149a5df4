package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/contactbook/contacts-gateway/internal/api/middleware"
	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

type stubSessionService struct {
	authenticateFn func(ctx context.Context, identifier, password string) (*domain.Session, error)
	registerFn     func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	issueFn        func(s *domain.Session) (string, error)
	parseFn        func(token string) (*domain.Session, error)
}

func (s *stubSessionService) Authenticate(ctx context.Context, identifier, password string) (*domain.Session, error) {
	return s.authenticateFn(ctx, identifier, password)
}

func (s *stubSessionService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubSessionService) Issue(sess *domain.Session) (string, error) {
	if s.issueFn == nil {
		return "signed-" + sess.Bearer, nil
	}
	return s.issueFn(sess)
}

func (s *stubSessionService) Parse(token string) (*domain.Session, error) {
	return s.parseFn(token)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			return ck
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "alice" || in.Email != "a@example.com" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: 7, Username: in.Username, Email: in.Email}, nil
		},
	}
	handler := NewAuthHandler(stub, time.Hour, false)

	req := jsonRequest(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"a@example.com","password":"secret1"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["username"] != "alice" {
		t.Fatalf("unexpected user payload: %v", resp)
	}
}

func TestAuthHandler_Register_Invalid(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubSessionService{}, time.Hour, false)

	req := jsonRequest(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"nope","password":"123"}`)
	c := e.NewContext(req, httptest.NewRecorder())

	err := handler.Register(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthHandler_Register_UpstreamError(t *testing.T) {
	e := newTestEcho()
	upstream := &domain.UpstreamError{Op: "register", Status: 400, Message: "Email or Username are already taken"}
	stub := &stubSessionService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) { return nil, upstream },
	}
	handler := NewAuthHandler(stub, time.Hour, false)

	req := jsonRequest(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"a@example.com","password":"secret1"}`)
	c := e.NewContext(req, httptest.NewRecorder())

	var ue *domain.UpstreamError
	if err := handler.Register(c); !errors.As(err, &ue) || ue != upstream {
		t.Fatalf("expected upstream error passed through, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		authenticateFn: func(_ context.Context, identifier, password string) (*domain.Session, error) {
			if identifier != "alice" || password != "secret1" {
				t.Fatalf("unexpected credentials: %s/%s", identifier, password)
			}
			return &domain.Session{UserID: 1, Name: "alice", Bearer: "backend-jwt", Role: domain.RoleMember}, nil
		},
	}
	handler := NewAuthHandler(stub, time.Hour, true)

	req := jsonRequest(http.MethodPost, "/api/auth/login", `{"identifier":"alice","password":"secret1"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "signed-backend-jwt" {
		t.Fatalf("unexpected token: %v", resp["token"])
	}
	if strings.Contains(rec.Body.String(), `"backend-jwt"`) {
		t.Error("raw backend credential leaked into the response")
	}

	ck := sessionCookie(rec)
	if ck == nil || ck.Value != "signed-backend-jwt" {
		t.Fatalf("expected session cookie, got %+v", ck)
	}
	if !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteLaxMode || ck.MaxAge != 3600 {
		t.Errorf("unexpected cookie attributes: %+v", ck)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		authenticateFn: func(context.Context, string, string) (*domain.Session, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub, time.Hour, false)

	req := jsonRequest(http.MethodPost, "/api/auth/login", `{"identifier":"alice","password":"wrong"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sessionCookie(rec) != nil {
		t.Error("no cookie may be set on failure")
	}
}

func TestAuthHandler_LoginForm(t *testing.T) {
	stub := &stubSessionService{
		authenticateFn: func(_ context.Context, identifier, _ string) (*domain.Session, error) {
			if identifier == "alice" {
				return &domain.Session{UserID: 1, Bearer: "backend-jwt"}, nil
			}
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub, time.Hour, false)

	cases := []struct {
		name       string
		form       url.Values
		location   string
		wantCookie bool
	}{
		{"success", url.Values{"identifier": {"alice"}, "password": {"pw"}}, "/home", true},
		{"rejected", url.Values{"identifier": {"mallory"}, "password": {"pw"}}, "/login?error=Invalid+credentials.", false},
		{"missing fields", url.Values{"identifier": {"alice"}}, "/login?error=Enter+your+username+and+password.", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			rec := httptest.NewRecorder()
			c := e.NewContext(formRequest("/login", tc.form), rec)

			if err := handler.LoginForm(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", rec.Code)
			}
			if loc := rec.Header().Get(echo.HeaderLocation); loc != tc.location {
				t.Errorf("location = %q, want %q", loc, tc.location)
			}
			if got := sessionCookie(rec) != nil; got != tc.wantCookie {
				t.Errorf("cookie set = %v, want %v", got, tc.wantCookie)
			}
		})
	}
}

func TestAuthHandler_SignupForm_ShowsUpstreamMessage(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, &domain.UpstreamError{Status: 400, Message: "Email or Username are already taken"}
		},
	}
	handler := NewAuthHandler(stub, time.Hour, false)

	form := url.Values{"username": {"alice"}, "email": {"a@example.com"}, "password": {"secret1"}}
	rec := httptest.NewRecorder()
	c := e.NewContext(formRequest("/signup", form), rec)

	if err := handler.SignupForm(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	loc, _ := url.Parse(rec.Header().Get(echo.HeaderLocation))
	if loc.Path != "/signup" || loc.Query().Get("error") != "Email or Username are already taken" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestAuthHandler_SignupForm_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			return &domain.User{ID: 9, Username: in.Username}, nil
		},
	}
	handler := NewAuthHandler(stub, time.Hour, false)

	form := url.Values{"username": {"alice"}, "email": {"a@example.com"}, "password": {"secret1"}}
	rec := httptest.NewRecorder()
	c := e.NewContext(formRequest("/signup", form), rec)

	if err := handler.SignupForm(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login?registered=1" {
		t.Fatalf("location = %q", loc)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubSessionService{}, time.Hour, false)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/logout", nil), rec)

	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	ck := sessionCookie(rec)
	if ck == nil || ck.Value != "" || ck.MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", ck)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login" {
		t.Errorf("location = %q", loc)
	}
}
