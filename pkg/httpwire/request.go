package httpwire

import (
	"errors"
	"fmt"
	"strings"
)

// Method is the closed set of supported HTTP methods. Dispatch over a Method
// is always an exhaustive switch.
type Method int

const (
	GET Method = iota
	POST
	PUT
	PATCH
	DELETE
)

// ErrUnknownMethod is returned by ParseMethod for tokens outside the set.
var ErrUnknownMethod = errors.New("httpwire: unknown method")

// ParseMethod maps a request-line token to a Method.
func ParseMethod(token string) (Method, error) {
	switch token {
	case "GET":
		return GET, nil
	case "POST":
		return POST, nil
	case "PUT":
		return PUT, nil
	case "PATCH":
		return PATCH, nil
	case "DELETE":
		return DELETE, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, token)
	}
}

func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case PATCH:
		return "PATCH"
	case DELETE:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// headerAllowList is the fixed set of header names the parser retains.
// Everything else is dropped on the floor.
var headerAllowList = []string{
	"Host",
	"User-Agent",
	"Accept",
	"Accept-Encoding",
	"Content-Type",
	"Content-Length",
	"Cookie",
	"Brew",
}

// Request is one parsed HTTP request. It is built once per read cycle and
// not mutated afterwards; the session passes it to the handler by pointer.
type Request struct {
	Method  Method
	URI     string
	Headers []string // raw "Name: value" lines, allow-listed, in arrival order
	Body    string
}

// ErrMalformedRequest is returned by ParseRequest when the buffer cannot be
// framed as a request at all. Validate catches most of these first; the
// parser only guards its own assumptions.
var ErrMalformedRequest = errors.New("httpwire: malformed request")

// ParseRequest converts a validated raw buffer into a Request. The buffer is
// expected to have passed Validate; parse failures are handled like
// validation failures by the caller.
func ParseRequest(raw []byte) (*Request, error) {
	lines := splitLines(string(raw))
	if len(lines) < 3 {
		return nil, fmt.Errorf("%w: %d lines", ErrMalformedRequest, len(lines))
	}

	parts := strings.Fields(lines[0])
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: bad request line", ErrMalformedRequest)
	}

	method, err := ParseMethod(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	req := &Request{
		Method: method,
		URI:    parts[1],
	}

	inBody := false
	var body []string
	for _, line := range lines[1:] {
		if !inBody {
			if line == "" {
				inBody = true
				continue
			}
			if allowed(line) {
				req.Headers = append(req.Headers, line)
			}
			continue
		}
		body = append(body, line)
	}
	req.Body = strings.TrimRight(strings.Join(body, "\n"), "\n")

	return req, nil
}

// allowed reports whether a header line's name is on the allow-list.
func allowed(line string) bool {
	name, _, ok := strings.Cut(line, ":")
	if !ok {
		return false
	}
	for _, n := range headerAllowList {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return true
		}
	}
	return false
}

// Header returns the value of the first retained header with the given name.
func (r *Request) Header(name string) (string, bool) {
	for _, line := range r.Headers {
		n, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(n), name) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// HasHeader reports whether a header with the given name was retained.
func (r *Request) HasHeader(name string) bool {
	_, ok := r.Header(name)
	return ok
}

// CompressionRequested reports whether the client's Accept-Encoding allows a
// gzip-compressed response. This is the negotiation input for
// Response.Compress.
func (r *Request) CompressionRequested() bool {
	v, ok := r.Header("Accept-Encoding")
	if !ok {
		return false
	}
	for _, enc := range strings.Split(v, ",") {
		enc = strings.TrimSpace(enc)
		if enc == "gzip" || strings.HasPrefix(enc, "gzip;") || enc == "*" {
			return true
		}
	}
	return false
}

// Cookie returns the value of a cookie from the Cookie header, if present.
func (r *Request) Cookie(name string) (string, bool) {
	v, ok := r.Header("Cookie")
	if !ok {
		return "", false
	}
	for _, pair := range strings.Split(v, ";") {
		k, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && k == name {
			return val, true
		}
	}
	return "", false
}
