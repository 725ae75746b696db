package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"coracle-hq/coracle/pkg/api"
	"coracle-hq/coracle/pkg/httpwire"
	"coracle-hq/coracle/pkg/limits"
	"coracle-hq/coracle/pkg/shutdown"
	"coracle-hq/coracle/pkg/telemetry/metrics"
	"coracle-hq/coracle/pkg/telemetry/tracing"
)

// readBufferSize bounds a single request read. A request that does not fit in
// one buffer fails the terminator check and is rejected as truncated.
const readBufferSize = 4096

// session serves one accepted connection until it is closed.
type session struct {
	conn        net.Conn
	handler     *api.Handler
	limiter     *limits.Limiter
	coordinator *shutdown.Coordinator
	metrics     *metrics.Metrics
	tracer      *tracing.Tracer
	logger      *slog.Logger
	readTimeout time.Duration
}

func (s *Server) newSession(conn net.Conn) *session {
	return &session{
		conn:        conn,
		handler:     s.handler,
		limiter:     s.limiter,
		coordinator: s.coordinator,
		metrics:     s.metrics,
		tracer:      s.tracer,
		logger:      s.logger.With("remote", conn.RemoteAddr().String()),
		readTimeout: s.cfg.Server.ReadTimeout,
	}
}

// run serves the connection. It first waits for an admission slot, then loops
// over request/response cycles until the peer goes quiet, a request is
// rejected, or the terminate broadcast arrives between cycles.
func (sess *session) run(ctx context.Context) {
	defer sess.conn.Close()

	sub := sess.coordinator.Subscribe()
	defer sub.Close()

	// The admission wait aborts on terminate so a shutdown does not hang on
	// connections that were accepted but never got a slot.
	admitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sub.C:
			cancel()
		case <-admitCtx.Done():
		}
	}()

	token, err := sess.limiter.Acquire(admitCtx)
	if err != nil {
		sess.logger.Warn("connection dropped awaiting admission", "error", err)
		return
	}
	sess.metrics.SessionStarted()
	defer func() {
		token.Release()
		sess.metrics.SessionEnded()
	}()

	buf := make([]byte, readBufferSize)
	for sess.serveOne(ctx, buf) {
		if sess.coordinator.IsTerminating() {
			sess.logger.Debug("closing connection for shutdown")
			return
		}
	}
}

// serveOne runs a single request/response cycle. It reports whether the
// connection should be kept open for another cycle.
func (sess *session) serveOne(ctx context.Context, buf []byte) bool {
	if err := sess.conn.SetReadDeadline(time.Now().Add(sess.readTimeout)); err != nil {
		sess.logger.Warn("setting read deadline", "error", err)
		return false
	}

	// A read can return data together with an error when the peer writes a
	// request and half-closes in one go. Those bytes still get a response;
	// the error closes the connection after this cycle.
	n, readErr := sess.conn.Read(buf)
	if n == 0 {
		// EOF, timeout and reset all end the connection the same quiet way.
		if readErr != nil && !errors.Is(readErr, io.EOF) && !errors.Is(readErr, os.ErrDeadlineExceeded) {
			sess.logger.Debug("read ended", "error", readErr)
		}
		return false
	}
	raw := buf[:n]

	start := time.Now()
	_, span := sess.tracer.Start(ctx, "request_cycle")
	defer span.End()

	if err := httpwire.Validate(raw); err != nil {
		sess.reject(err)
		return false
	}
	req, err := httpwire.ParseRequest(raw)
	if err != nil {
		sess.reject(err)
		return false
	}

	resp := sess.dispatch(req)

	wire, err := resp.Encode()
	if err != nil {
		sess.logger.Error("encoding response", "error", err)
		return false
	}
	if _, err := sess.conn.Write(wire); err != nil {
		sess.logger.Warn("writing response", "error", err)
		return false
	}

	span.SetAttributes(
		attribute.String("http.method", req.Method.String()),
		attribute.String("http.target", req.URI),
		attribute.Int("http.status_code", int(resp.Status)),
	)
	sess.metrics.RequestServed(req.Method.String(), strconv.Itoa(int(resp.Status)), time.Since(start))
	return readErr == nil
}

// dispatch invokes the handler with panic recovery, so one bad route cannot
// take the whole process down.
func (sess *session) dispatch(req *httpwire.Request) (resp *httpwire.Response) {
	defer func() {
		if r := recover(); r != nil {
			sess.logger.Error("handler panic", "uri", req.URI, "panic", r)
			resp = httpwire.NewResponse().
				WithStatus(httpwire.StatusInternalServerError).
				WithContentType(httpwire.TextPlain).
				WithBody([]byte("500: internal server error"))
		}
	}()
	return sess.handler.Handle(req)
}

// reject records a validation or parse failure and sends a best-effort 400
// before the connection is closed.
func (sess *session) reject(err error) {
	check := "parse_error"
	var verr *httpwire.ValidationError
	if errors.As(err, &verr) {
		check = string(verr.Check)
	}
	sess.metrics.RequestRejected(check)
	sess.logger.Warn("rejecting request", "check", check, "error", err)

	wire, encErr := httpwire.NewResponse().
		WithStatus(httpwire.StatusBadRequest).
		WithContentType(httpwire.TextPlain).
		WithBody([]byte("400: bad request")).
		Encode()
	if encErr != nil {
		return
	}
	// The peer may already be gone; the close that follows is what counts.
	_, _ = sess.conn.Write(wire)
}
