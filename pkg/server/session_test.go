package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"coracle-hq/coracle/pkg/api"
	"coracle-hq/coracle/pkg/config"
	"coracle-hq/coracle/pkg/limits"
	"coracle-hq/coracle/pkg/shutdown"
	"coracle-hq/coracle/pkg/telemetry/metrics"
	"coracle-hq/coracle/pkg/telemetry/tracing"
)

// halfClosedConn models a peer that writes one request and shuts down its
// write side in the same segment: the first Read returns the payload together
// with io.EOF, every read after that is a plain EOF.
type halfClosedConn struct {
	mu      sync.Mutex
	payload []byte
	read    bool
	written bytes.Buffer
}

func (c *halfClosedConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.read {
		return 0, io.EOF
	}
	c.read = true
	n := copy(p, c.payload)
	return n, io.EOF
}

func (c *halfClosedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.Write(p)
}

func (c *halfClosedConn) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.String()
}

func (c *halfClosedConn) Close() error                       { return nil }
func (c *halfClosedConn) LocalAddr() net.Addr                { return &net.TCPAddr{IP: net.IPv6loopback, Port: 7878} }
func (c *halfClosedConn) RemoteAddr() net.Addr               { return &net.TCPAddr{IP: net.IPv6loopback, Port: 54321} }
func (c *halfClosedConn) SetDeadline(t time.Time) error      { return nil }
func (c *halfClosedConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *halfClosedConn) SetWriteDeadline(t time.Time) error { return nil }

func newTestSession(t *testing.T, conn net.Conn) *session {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>index</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache, err := api.NewStaticCache(dir, false, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })
	tracer, err := tracing.New(&config.TracingConfig{})
	if err != nil {
		t.Fatal(err)
	}

	return &session{
		conn:        conn,
		handler:     api.NewHandler(cache, nopStore{}, logger),
		limiter:     limits.NewLimiter(1),
		coordinator: shutdown.NewCoordinator(),
		metrics:     metrics.New(prometheus.NewRegistry()),
		tracer:      tracer,
		logger:      logger,
		readTimeout: time.Second,
	}
}

func TestSession_AnswersRequestFromHalfClosedPeer(t *testing.T) {
	conn := &halfClosedConn{payload: []byte("GET / HTTP/1.1\r\nHost: test\r\n\r\n")}
	sess := newTestSession(t, conn)

	done := make(chan struct{})
	go func() {
		sess.run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}

	resp := conn.output()
	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("status line = %q, want 200 despite the early EOF", firstLine(resp))
	}
	if !strings.Contains(resp, "<h1>index</h1>") {
		t.Errorf("response body missing, got %q", resp)
	}
}

func TestSession_ClosesAfterServingHalfClosedPeer(t *testing.T) {
	conn := &halfClosedConn{payload: []byte("GET / HTTP/1.1\r\nHost: test\r\n\r\n")}
	sess := newTestSession(t, conn)

	buf := make([]byte, readBufferSize)
	if again := sess.serveOne(context.Background(), buf); again {
		t.Error("serveOne kept the connection open after a read error")
	}
	if got := conn.output(); !strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("status line = %q, want the buffered request answered first", firstLine(got))
	}
}
