package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/casedex/internal/logger"
	"github.com/kailas-cloud/casedex/internal/version"
)

// NewServeCmd constructs the `casedex serve` command: the operational
// metrics and health listener. Document generation stays in the CLI; this
// listener only exposes observability endpoints.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics and health HTTP listener",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			logger := a.logger
			logger.Info("Starting casedex metrics listener",
				zap.String("version", version.Version),
				zap.String("commit", version.Commit),
				zap.String("env", envName),
				zap.Int("http_port", a.cfg.HTTP.Port))

			r := chi.NewRouter()
			r.Use(chiMiddleware.RequestID)
			r.Use(chiMiddleware.Recoverer)
			r.Use(requestLogger(logger))
			r.Handle("/metrics", promhttp.Handler())
			r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
				status := map[string]string{"status": "ok", "version": version.Version}
				if len(a.cfg.Database.Addrs) > 0 {
					if store, err := a.database(req.Context()); err != nil || store.Ping(req.Context()) != nil {
						logpkg.FromContext(req.Context()).Warn("Health check: database unreachable")
						w.WriteHeader(http.StatusServiceUnavailable)
						status["status"] = "degraded"
						status["database"] = "unreachable"
					}
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(status)
			})

			srv := &http.Server{
				Addr:         fmt.Sprintf(":%d", a.cfg.HTTP.Port),
				Handler:      r,
				ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
				WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

			go func() {
				logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("HTTP server error", zap.Error(err))
				}
			}()

			<-quit
			logger.Info("Received shutdown signal")

			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error during shutdown", zap.Error(err))
			}

			logger.Info("Server stopped gracefully")
			return nil
		},
	}
}

// requestLogger stashes a request-scoped logger carrying the chi request id
// into the request context.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			reqLogger := logger.With(zap.String("request_id", chiMiddleware.GetReqID(req.Context())))
			next.ServeHTTP(w, req.WithContext(logpkg.ContextWithLogger(req.Context(), reqLogger)))
		})
	}
}
