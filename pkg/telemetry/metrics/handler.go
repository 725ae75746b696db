package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AdminServer exposes /metrics and /healthz on a sidecar listener, separate
// from the raw TCP data path. It uses net/http because the exposition format
// and its scrapers live entirely in that ecosystem.
type AdminServer struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewAdminServer creates the sidecar server. The promhttp handler serves the
// default registry, which is where New(nil) registers its collectors.
func NewAdminServer(addr string, logger *slog.Logger) *AdminServer {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return &AdminServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start runs the sidecar listener in a background goroutine.
func (a *AdminServer) Start() {
	go func() {
		a.logger.Info("metrics endpoint listening", "address", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics endpoint failed", "error", err)
		}
	}()
}

// Shutdown stops the sidecar listener.
func (a *AdminServer) Shutdown(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}
