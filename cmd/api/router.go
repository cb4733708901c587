package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/radif/imagehub/internal/config"
	"github.com/radif/imagehub/internal/gateway"
	appMiddleware "github.com/radif/imagehub/internal/middleware"
	"github.com/radif/imagehub/internal/session"

	_ "github.com/radif/imagehub/docs/swagger"
)

func newRouter(cfg *config.Config, log *slog.Logger, reg *prometheus.Registry, gatewayHandler *gateway.Handler, sessionHandler *session.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Swagger UI, available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// The local driver's object URLs point back at this server.
	if cfg.Storage.Driver == config.DriverLocal && cfg.Storage.LocalDir != "" {
		r.Handle("/blobs/*", http.StripPrefix("/blobs/", http.FileServer(http.Dir(cfg.Storage.LocalDir))))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/containers/{container}/images", func(r chi.Router) {
			r.Get("/", gatewayHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
				r.Post("/", gatewayHandler.Upload)
				r.Delete("/", gatewayHandler.Delete)
			})
		})

		// Sessions upload and delete through the gateway, so every session
		// route sits behind the same token check.
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Route("/sessions", sessionHandler.Routes)
		})
	})

	return r
}
