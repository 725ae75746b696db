package httpwire

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"
)

// splitWire separates the encoded response into status line, header map and
// raw body bytes.
func splitWire(t *testing.T, wire []byte) (string, []string, []byte) {
	t.Helper()
	head, body, ok := bytes.Cut(wire, []byte("\r\n\r\n"))
	if !ok {
		t.Fatal("encoded response has no blank line")
	}
	lines := strings.Split(string(head), "\r\n")
	return lines[0], lines[1:], body
}

func headerValue(headers []string, name string) (string, bool) {
	for _, h := range headers {
		if strings.HasPrefix(h, name+": ") {
			return strings.TrimPrefix(h, name+": "), true
		}
	}
	return "", false
}

func TestResponse_EncodeUncompressed(t *testing.T) {
	body := []byte("<h1>hello</h1>")
	resp := NewResponse().WithBody(body)

	wire, err := resp.Encode()
	if err != nil {
		t.Fatal(err)
	}

	status, headers, gotBody := splitWire(t, wire)
	if status != "HTTP/1.1 200 OK" {
		t.Errorf("status line = %q", status)
	}
	if !bytes.Equal(gotBody, body) {
		t.Errorf("body = %q, want %q", gotBody, body)
	}

	if v, _ := headerValue(headers, "Server"); v != ServerName {
		t.Errorf("Server = %q, want %q", v, ServerName)
	}
	if _, ok := headerValue(headers, "Date"); !ok {
		t.Error("Date header missing")
	}
	if v, _ := headerValue(headers, "Cache-Control"); v != "no-cache" {
		t.Errorf("Cache-Control = %q", v)
	}
	if v, _ := headerValue(headers, "Content-Type"); v != "text/html" {
		t.Errorf("Content-Type = %q", v)
	}
	if _, ok := headerValue(headers, "Content-Encoding"); ok {
		t.Error("Content-Encoding present on uncompressed response")
	}
	if v, _ := headerValue(headers, "Content-Length"); v != strconv.Itoa(len(body)) {
		t.Errorf("Content-Length = %q, want %d", v, len(body))
	}
}

func TestResponse_EncodeCompressed(t *testing.T) {
	body := bytes.Repeat([]byte("compress me "), 100)
	resp := NewResponse().WithBody(body).WithCompression(true)

	wire, err := resp.Encode()
	if err != nil {
		t.Fatal(err)
	}

	_, headers, gotBody := splitWire(t, wire)

	if v, _ := headerValue(headers, "Content-Encoding"); v != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", v)
	}

	// Content-Length must be the compressed length, not the original.
	cl, _ := headerValue(headers, "Content-Length")
	n, err := strconv.Atoi(cl)
	if err != nil {
		t.Fatalf("Content-Length %q not a number", cl)
	}
	if n != len(gotBody) {
		t.Errorf("Content-Length = %d, wire body is %d bytes", n, len(gotBody))
	}
	if n >= len(body) {
		t.Errorf("compressed length %d not smaller than original %d", n, len(body))
	}

	// Round-trip: decompressing yields the original bytes exactly.
	zr, err := gzip.NewReader(bytes.NewReader(gotBody))
	if err != nil {
		t.Fatal(err)
	}
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plain, body) {
		t.Error("decompressed body differs from original")
	}
}

func TestResponse_CustomHeadersInsertionOrder(t *testing.T) {
	resp := NewResponse().
		WithBody([]byte("x")).
		AddHeader("Set-Cookie", "session=abc; HttpOnly").
		AddHeader("X-First", "1").
		AddHeader("X-Second", "2")

	wire, err := resp.Encode()
	if err != nil {
		t.Fatal(err)
	}

	_, headers, _ := splitWire(t, wire)
	first := -1
	second := -1
	for i, h := range headers {
		if strings.HasPrefix(h, "X-First:") {
			first = i
		}
		if strings.HasPrefix(h, "X-Second:") {
			second = i
		}
	}
	if first == -1 || second == -1 || first > second {
		t.Errorf("custom headers out of order: %v", headers)
	}
	if v, ok := headerValue(headers, "Set-Cookie"); !ok || v != "session=abc; HttpOnly" {
		t.Errorf("Set-Cookie = (%q, %v)", v, ok)
	}
}

func TestResponse_StatusLines(t *testing.T) {
	tests := []struct {
		status StatusCode
		want   string
	}{
		{StatusOK, "HTTP/1.1 200 OK"},
		{StatusBadRequest, "HTTP/1.1 400 Bad Request"},
		{StatusNotFound, "HTTP/1.1 404 Not Found"},
		{StatusMethodNotAllowed, "HTTP/1.1 405 Method Not Allowed"},
		{StatusTeapot, "HTTP/1.1 418 I'm a teapot"},
		{StatusInternalServerError, "HTTP/1.1 500 Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(int(tt.status)), func(t *testing.T) {
			wire, err := NewResponse().WithStatus(tt.status).Encode()
			if err != nil {
				t.Fatal(err)
			}
			status, _, _ := splitWire(t, wire)
			if status != tt.want {
				t.Errorf("status line = %q, want %q", status, tt.want)
			}
		})
	}
}
