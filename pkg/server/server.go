package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"coracle-hq/coracle/pkg/api"
	"coracle-hq/coracle/pkg/backoff"
	"coracle-hq/coracle/pkg/config"
	"coracle-hq/coracle/pkg/limits"
	"coracle-hq/coracle/pkg/shutdown"
	"coracle-hq/coracle/pkg/telemetry/metrics"
	"coracle-hq/coracle/pkg/telemetry/tracing"
)

// ErrShutdownTimeout is returned by Shutdown when active sessions did not
// drain within the configured shutdown timeout.
var ErrShutdownTimeout = errors.New("server: shutdown timed out before sessions drained")

// Server owns the listening socket, the accept loop and all connection
// sessions.
type Server struct {
	cfg     *config.Config
	handler *api.Handler
	metrics *metrics.Metrics
	tracer  *tracing.Tracer
	logger  *slog.Logger

	limiter     *limits.Limiter
	coordinator *shutdown.Coordinator

	listener     net.Listener
	wg           sync.WaitGroup
	shutdownOnce sync.Once

	mu        sync.RWMutex
	isRunning bool
}

// NewServer creates a server from its collaborators. A nil metrics, tracer or
// logger gets a quiet default, so tests can pass only what they assert on.
func NewServer(cfg *config.Config, handler *api.Handler, m *metrics.Metrics, tr *tracing.Tracer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	if tr == nil {
		tr, _ = tracing.New(&config.TracingConfig{})
	}
	return &Server{
		cfg:         cfg,
		handler:     handler,
		metrics:     m,
		tracer:      tr,
		logger:      logger,
		limiter:     limits.NewLimiter(cfg.Limits.MaxConnections),
		coordinator: shutdown.NewCoordinator(),
	}
}

// Start binds the listener and blocks until shutdown. It returns nil on a
// clean shutdown and the fatal error when the accept loop gives up.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	ln, err := listen(s.cfg.Server.ListenAddress)
	if err != nil {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("server listening",
		"address", ln.Addr().String(),
		"max_connections", s.limiter.Capacity(),
		"read_timeout", s.cfg.Server.ReadTimeout.String(),
	)

	// The accept loop always reports its exit, so Start unblocks both on a
	// fatal accept error and on an externally triggered Shutdown.
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.acceptLoop(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if err == nil {
			return s.Shutdown(context.Background())
		}
		s.logger.Error("accept loop failed", "error", err)
		if shutdownErr := s.Shutdown(context.Background()); shutdownErr != nil {
			s.logger.Error("error during shutdown after accept failure", "error", shutdownErr)
		}
		return err
	}
}

// acceptLoop takes connections until the listener closes. Transient accept
// failures are retried with backoff; an exhausted backoff is fatal.
func (s *Server) acceptLoop(ctx context.Context) error {
	policy := backoff.New(s.cfg.Server.AcceptBackoffInitial, s.cfg.Server.AcceptBackoffCeiling)

	// This subscription lives for the whole server; it must stay registered
	// even if the loop exits on a fatal accept error, so the terminate that
	// Shutdown broadcasts afterwards still closes the listener.
	terminate := s.coordinator.Subscribe()
	go func() {
		<-terminate.C
		terminate.Close()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.coordinator.IsTerminating() {
				s.logger.Info("listener closed, no longer accepting")
				return nil
			}

			wait, backoffErr := policy.Next()
			if backoffErr != nil {
				return fmt.Errorf("server: accept failing persistently: %w", err)
			}
			s.metrics.AcceptRetried()
			s.logger.Warn("accept failed, retrying", "error", err, "wait", wait.String())
			time.Sleep(wait)
			continue
		}

		policy.Reset()
		s.metrics.ConnectionAccepted()

		sess := s.newSession(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.run(ctx)
		}()
	}
}

// Shutdown stops the listener, broadcasts terminate and waits for active
// sessions to drain, bounded by the shutdown timeout. Safe to call more than
// once; only the first call does anything.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.Server.ShutdownTimeout.String())
		s.coordinator.SignalTerminate()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			s.logger.Info("all sessions drained")
		case <-time.After(s.cfg.Server.ShutdownTimeout):
			s.logger.Error("sessions did not drain in time")
			shutdownErr = ErrShutdownTimeout
		case <-ctx.Done():
			shutdownErr = fmt.Errorf("server: shutdown aborted: %w", ctx.Err())
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether Start has bound the listener and not yet shut down.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
