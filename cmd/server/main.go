package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contactbook/contacts-gateway/internal/api"
	"github.com/contactbook/contacts-gateway/internal/core/service"
	"github.com/contactbook/contacts-gateway/internal/infrastructure/backend"
	redisdb "github.com/contactbook/contacts-gateway/internal/infrastructure/db/redis"
	"github.com/contactbook/contacts-gateway/internal/pkg/config"
	"github.com/contactbook/contacts-gateway/pkg/logger"
)

const (
	roleProbeTimeout = 10 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// @title                       Contacts Gateway API
// @version                     1.0
// @description                 Session-aware gateway in front of the contacts backend.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := backend.NewClient(backend.Config{
		BaseURL:  cfg.Backend.URL,
		APIToken: cfg.Backend.APIToken,
		Timeout:  cfg.Backend.Timeout,
	}, logger.Component("backend"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid backend configuration")
	}
	if !client.HasAPIToken() {
		log.Warn().Msg("BACKEND_API_TOKEN is not set; create, update, delete and upload will likely be rejected by the backend")
	}

	cache, rdb, err := redisdb.OpenViewCache(ctx, redisdb.Config{
		Addr:    cfg.Redis.Addr,
		DB:      cfg.Redis.DB,
		ViewTTL: cfg.Redis.ViewTTL,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect view cache")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	sessions := service.NewSessionService(client, cfg.Session.Secret, cfg.Session.TTL, logger.Component("session"))
	contacts := service.NewContactService(client, cache, logger.Component("contacts"))
	directory := service.NewDirectoryService(client, logger.Component("directory"))
	diagnostics := service.NewDiagnosticsService(client)

	probeCtx, cancel := context.WithTimeout(ctx, roleProbeTimeout)
	if err := sessions.VerifyRoleLiterals(probeCtx); err != nil && !errors.Is(err, service.ErrAdminRoleUnknown) {
		log.Warn().Err(err).Msg("could not verify role names against the backend")
	}
	cancel()

	e, err := api.NewRouter(api.Dependencies{
		Sessions:     sessions,
		Contacts:     contacts,
		Directory:    directory,
		Diagnostics:  diagnostics,
		Cache:        cache,
		Backend:      client,
		Redis:        rdb,
		Logger:       logger.Component("http"),
		SessionTTL:   cfg.Session.TTL,
		SecureCookie: !cfg.IsDevelopment(),
		CORSOrigins:  cfg.CORSOrigins,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", client.BaseURL()).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
