//	@title			Image Gateway API
//	@version		1.0
//	@description	Upload, list and delete images in object storage, with server-side upload sessions.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/radif/imagehub/internal/config"
	"github.com/radif/imagehub/internal/gateway"
	"github.com/radif/imagehub/internal/logging"
	"github.com/radif/imagehub/internal/session"
	"github.com/radif/imagehub/internal/storage"
	"github.com/radif/imagehub/internal/upload"
)

func main() {
	cfg := config.Load()

	log := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.IsProduction(), Output: os.Stdout})
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	observer, err := gateway.NewPrometheusObserver("image_gateway", reg)
	if err != nil {
		log.Error("metrics init failed", "error", err)
		os.Exit(1)
	}

	// The store is dialled on first use so a missing credential fails each
	// call with a configuration error instead of aborting startup.
	conn := storage.NewConnector(cfg.Storage)

	// Wire dependencies: connector → gateway → sessions → handlers
	gw := gateway.New(conn,
		gateway.WithLogger(log.With("component", "gateway")),
		gateway.WithObserver(observer),
		gateway.WithListCache(gateway.NewListCache(cfg.Storage.ListCacheSize, cfg.Storage.ListCacheTTL)),
		gateway.WithDefaultMaxResults(cfg.Storage.ListMaxResults),
	)
	gatewayHandler := gateway.NewHandler(gw, cfg.BodyLimitBytes())

	sessions := session.NewRegistry(cfg.Session.Max, cfg.Session.TTL)
	if err := sessions.RegisterMetrics(reg); err != nil {
		log.Error("metrics init failed", "error", err)
		os.Exit(1)
	}
	sessionSvc := session.NewService(sessions, gw, session.Defaults{
		Container:       cfg.Storage.DefaultContainer,
		Policy:          upload.Policy{AllowedTypes: cfg.Upload.AllowedTypes, MaxSizeMB: cfg.Upload.MaxSizeMB},
		MaxFiles:        cfg.Upload.MaxFiles,
		MaxImages:       cfg.Gallery.MaxImages,
		RefreshInterval: cfg.Gallery.RefreshInterval,
	}, log.With("component", "session"))
	sessionHandler := session.NewHandler(sessionSvc, cfg.BodyLimitBytes())

	r := newRouter(cfg, log, reg, gatewayHandler, sessionHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.AppEnv, "storage", cfg.Storage.Driver)
		log.Info("swagger UI available", "url", "http://localhost:"+cfg.Port+"/swagger/")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	log.Info("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
