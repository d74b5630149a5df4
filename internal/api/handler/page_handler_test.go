package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/contactbook/contacts-gateway/internal/api/middleware"
	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

type memoryCache struct {
	views map[string][]byte
}

func newMemoryCache() *memoryCache { return &memoryCache{views: map[string][]byte{}} }

func (m *memoryCache) Get(_ context.Context, path, viewer string) ([]byte, bool, error) {
	b, ok := m.views[path+"|"+viewer]
	return b, ok, nil
}

func (m *memoryCache) Set(_ context.Context, path, viewer string, body []byte) error {
	m.views[path+"|"+viewer] = body
	return nil
}

func (m *memoryCache) Invalidate(context.Context, ...string) error { return nil }

type stubDirectoryService struct {
	members []domain.User
	err     error
}

func (s *stubDirectoryService) ListMembers(context.Context, string) ([]domain.User, error) {
	return s.members, s.err
}

func (s *stubDirectoryService) GetMember(_ context.Context, _ string, id int64) (*ports.MemberDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ports.MemberDetail{User: domain.User{ID: id, Username: "alice"}}, nil
}

type stubDiagnostics struct{ report ports.DiagnosticsReport }

func (s stubDiagnostics) Check(context.Context) ports.DiagnosticsReport { return s.report }

type staticParser struct{ sess *domain.Session }

func (p staticParser) Parse(string) (*domain.Session, error) { return p.sess, nil }

var aliceSession = &domain.Session{UserID: 1, Name: "alice", Bearer: "alice-jwt", Role: domain.RoleMember}

func newPageEcho(t *testing.T) *echo.Echo {
	t.Helper()
	tmpl, err := NewTemplates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	e := newTestEcho()
	e.Renderer = tmpl
	return e
}

// serve runs h behind the session middleware with sess as the signed-in user.
func serve(e *echo.Echo, h echo.HandlerFunc, req *http.Request, sess *domain.Session, params ...string) (*httptest.ResponseRecorder, error) {
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "token"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	err := middleware.Session(staticParser{sess}, zerolog.Nop())(h)(c)
	return rec, err
}

func newPages(contacts ports.ContactService, cache ports.ViewCache) *PageHandler {
	return NewPageHandler(contacts, &stubDirectoryService{}, stubDiagnostics{}, cache, zerolog.Nop())
}

func TestPageHandler_Home_RendersAndCaches(t *testing.T) {
	e := newPageEcho(t)
	calls := 0
	stub := &stubContactService{
		listFn: func(_ context.Context, bearer string) ([]domain.Contact, error) {
			calls++
			if bearer != "alice-jwt" {
				t.Fatalf("unexpected bearer %q", bearer)
			}
			return []domain.Contact{{ID: "doc-1", Name: "Ann <3"}}, nil
		},
	}
	cache := newMemoryCache()
	pages := newPages(stub, cache)

	for i := 0; i < 2; i++ {
		rec, err := serve(e, pages.Home, httptest.NewRequest(http.MethodGet, "/home", nil), aliceSession)
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, `href="/home/doc-1"`) || !strings.Contains(body, "Ann &lt;3") {
			t.Fatalf("contact not rendered: %s", body)
		}
	}
	if calls != 1 {
		t.Errorf("expected the second request to be served from cache, service called %d times", calls)
	}
	if _, ok := cache.views["/home|1"]; !ok {
		t.Errorf("expected cached view for viewer 1, got keys %v", cache.views)
	}
}

func TestPageHandler_Home_FlashBypassesCache(t *testing.T) {
	e := newPageEcho(t)
	calls := 0
	stub := &stubContactService{
		listFn: func(context.Context, string) ([]domain.Contact, error) { calls++; return nil, nil },
	}
	cache := newMemoryCache()
	cache.views["/home|1"] = []byte("stale")
	pages := newPages(stub, cache)

	rec, err := serve(e, pages.Home, httptest.NewRequest(http.MethodGet, "/home?error=Boom", nil), aliceSession)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if calls != 1 || !strings.Contains(rec.Body.String(), `class="error">Boom`) {
		t.Fatalf("expected fresh render with flash, got %s", rec.Body.String())
	}
	if string(cache.views["/home|1"]) != "stale" {
		t.Error("flash render must not overwrite the cache")
	}
}

func TestPageHandler_ContactDetail_ForbiddenInline(t *testing.T) {
	e := newPageEcho(t)
	stub := &stubContactService{
		getFn: func(context.Context, string, string) (*domain.Contact, error) { return nil, domain.ErrForbidden },
	}
	cache := newMemoryCache()
	pages := newPages(stub, cache)

	rec, err := serve(e, pages.ContactDetail, httptest.NewRequest(http.MethodGet, "/home/doc-9", nil), aliceSession, "id", "doc-9")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "You are not allowed to do that.") {
		t.Errorf("missing inline error: %s", rec.Body.String())
	}
	if len(cache.views) != 0 {
		t.Error("failures must not be cached")
	}
}

func TestPageHandler_CreateContact_Redirects(t *testing.T) {
	e := newPageEcho(t)
	stub := &stubContactService{
		createFn: func(_ context.Context, _ string, in ports.CreateContactInput) (*domain.Contact, error) {
			if in.Name != "Ann" || in.Image != nil {
				t.Fatalf("unexpected input %+v", in)
			}
			return &domain.Contact{ID: "doc-3"}, nil
		},
	}
	pages := newPages(stub, newMemoryCache())

	req := formRequest("/home/new", url.Values{"name": {"Ann"}, "phone": {"555"}})
	rec, err := serve(e, pages.CreateContact, req, aliceSession)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/home/doc-3" {
		t.Fatalf("unexpected redirect %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestPageHandler_CreateContact_NameRequired(t *testing.T) {
	e := newPageEcho(t)
	pages := newPages(&stubContactService{}, newMemoryCache())

	rec, err := serve(e, pages.CreateContact, formRequest("/home/new", url.Values{"phone": {"555"}}), aliceSession)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	loc, _ := url.Parse(rec.Header().Get(echo.HeaderLocation))
	if loc.Path != "/home/new" || loc.Query().Get("error") != "Name is required." {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestPageHandler_DeleteContact_NotVerified(t *testing.T) {
	e := newPageEcho(t)
	stub := &stubContactService{
		deleteFn: func(context.Context, string, string) error { return domain.ErrDeleteNotVerified },
	}
	pages := newPages(stub, newMemoryCache())

	rec, err := serve(e, pages.DeleteContact, httptest.NewRequest(http.MethodPost, "/home/doc-1/delete", nil), aliceSession, "id", "doc-1")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	loc, _ := url.Parse(rec.Header().Get(echo.HeaderLocation))
	if loc.Path != "/home/doc-1" || !strings.Contains(loc.Query().Get("error"), "may not have been deleted") {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestPageHandler_Users(t *testing.T) {
	e := newPageEcho(t)
	dir := &stubDirectoryService{members: []domain.User{{ID: 1, Username: "alice", Email: "alice@example.com"}}}
	pages := NewPageHandler(&stubContactService{}, dir, stubDiagnostics{}, newMemoryCache(), zerolog.Nop())
	admin := &domain.Session{UserID: 3, Name: "root", Bearer: "root-jwt", Role: domain.RoleSuperAdmin}

	rec, err := serve(e, pages.Users, httptest.NewRequest(http.MethodGet, "/users", nil), admin)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `href="/users/1"`) {
		t.Fatalf("member not rendered: %s", rec.Body.String())
	}
}

func TestPageHandler_Debug(t *testing.T) {
	e := newPageEcho(t)
	diag := stubDiagnostics{report: ports.DiagnosticsReport{BackendURL: "http://cms.test", Reachable: true, Status: "403 Forbidden"}}
	pages := NewPageHandler(&stubContactService{}, &stubDirectoryService{}, diag, newMemoryCache(), zerolog.Nop())
	admin := &domain.Session{UserID: 3, Name: "root", Bearer: "root-jwt", Role: domain.RoleSuperAdmin}

	rec, err := serve(e, pages.Debug, httptest.NewRequest(http.MethodGet, "/debug", nil), admin)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "http://cms.test") || !strings.Contains(body, "403 Forbidden") {
		t.Fatalf("report not rendered: %s", body)
	}
}
