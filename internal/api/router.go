package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/contactbook/contacts-gateway/docs"
	"github.com/contactbook/contacts-gateway/internal/api/handler"
	"github.com/contactbook/contacts-gateway/internal/api/middleware"
	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

// Dependencies are the services and clients the router wires into handlers.
type Dependencies struct {
	Sessions    ports.SessionService
	Contacts    ports.ContactService
	Directory   ports.DirectoryService
	Diagnostics ports.DiagnosticsService
	Cache       ports.ViewCache
	Backend     ports.Backend
	// Redis is nil when the view cache is disabled.
	Redis *redis.Client

	Logger       zerolog.Logger
	SessionTTL   time.Duration
	SecureCookie bool
	CORSOrigins  []string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	templates, err := handler.NewTemplates()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Renderer = templates
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Metrics())
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.Session(deps.Sessions, deps.Logger))
	e.Use(middleware.Guard())

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Sessions, deps.SessionTTL, deps.SecureCookie)
	contactHandler := handler.NewContactHandler(deps.Contacts)
	directoryHandler := handler.NewDirectoryHandler(deps.Directory)
	pageHandler := handler.NewPageHandler(deps.Contacts, deps.Directory, deps.Diagnostics, deps.Cache, deps.Logger)

	// --- Auth API (no session required) ---
	e.POST("/api/auth/register", authHandler.Register)
	e.POST("/api/auth/login", authHandler.Login)

	// --- Contact gateway ---
	contacts := e.Group("/api/contacts")
	contacts.POST("", contactHandler.Create)
	contacts.GET("", contactHandler.List)
	contacts.GET("/:id", contactHandler.Get)
	contacts.PUT("/:id", contactHandler.Update)
	contacts.DELETE("/:id", contactHandler.Delete)

	// --- Admin directory API ---
	users := e.Group("/api/users", middleware.RBAC(domain.RoleSuperAdmin))
	users.GET("", directoryHandler.ListMembers)
	users.GET("/:id", directoryHandler.GetMember)

	// --- Pages ---
	e.GET("/", pageHandler.Root)
	e.GET("/login", pageHandler.Login)
	e.POST("/login", authHandler.LoginForm)
	e.GET("/signup", pageHandler.Signup)
	e.POST("/signup", authHandler.SignupForm)
	e.POST("/logout", authHandler.Logout)

	e.GET("/home", pageHandler.Home)
	e.GET("/home/new", pageHandler.NewContact)
	e.POST("/home/new", pageHandler.CreateContact)
	e.GET("/home/:id", pageHandler.ContactDetail)
	e.GET("/home/:id/edit", pageHandler.EditContact)
	e.POST("/home/:id/edit", pageHandler.UpdateContact)
	e.POST("/home/:id/delete", pageHandler.DeleteContact)

	e.GET("/users", pageHandler.Users)
	e.GET("/users/:id", pageHandler.UserDetail)
	e.GET("/debug", pageHandler.Debug)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Backend, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			} else if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
