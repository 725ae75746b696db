package httpwire

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"time"
)

// ServerName is the identifier emitted in the Server response header.
const ServerName = "Coracle"

// dateFormat is the RFC 1123 layout with an explicit GMT zone, as emitted in
// the Date header.
const dateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// StatusCode is an HTTP response status.
type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusCreated             StatusCode = 201
	StatusBadRequest          StatusCode = 400
	StatusUnauthorized        StatusCode = 401
	StatusNotFound            StatusCode = 404
	StatusMethodNotAllowed    StatusCode = 405
	StatusRequestTimeout      StatusCode = 408
	StatusTeapot              StatusCode = 418
	StatusInternalServerError StatusCode = 500
)

// Reason returns the standard reason phrase for the status.
func (s StatusCode) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusCreated:
		return "Created"
	case StatusBadRequest:
		return "Bad Request"
	case StatusUnauthorized:
		return "Unauthorized"
	case StatusNotFound:
		return "Not Found"
	case StatusMethodNotAllowed:
		return "Method Not Allowed"
	case StatusRequestTimeout:
		return "Request Timeout"
	case StatusTeapot:
		return "I'm a teapot"
	case StatusInternalServerError:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// ContentType is the value of the Content-Type response header.
type ContentType string

const (
	TextPlain       ContentType = "text/plain"
	TextHTML        ContentType = "text/html"
	ApplicationJSON ContentType = "application/json"
)

// Header is one caller-supplied response header. Headers are emitted in
// insertion order.
type Header struct {
	Name  string
	Value string
}

// Response is built by the handler and serialized once by Encode. Handlers
// mutate it freely during construction; after Encode the wire bytes are what
// counts.
type Response struct {
	Protocol    string
	Status      StatusCode
	ContentType ContentType
	Headers     []Header
	Body        []byte

	// Compress requests gzip compression of the body. It is set from the
	// request's Accept-Encoding negotiation, one layer up from the codec.
	Compress bool
}

// NewResponse returns a Response with the common defaults: HTTP/1.1, 200 OK,
// text/html, empty body.
func NewResponse() *Response {
	return &Response{
		Protocol:    "HTTP/1.1",
		Status:      StatusOK,
		ContentType: TextHTML,
	}
}

// WithStatus sets the status code.
func (r *Response) WithStatus(s StatusCode) *Response {
	r.Status = s
	return r
}

// WithContentType sets the Content-Type.
func (r *Response) WithContentType(ct ContentType) *Response {
	r.ContentType = ct
	return r
}

// WithBody replaces the body.
func (r *Response) WithBody(body []byte) *Response {
	r.Body = body
	return r
}

// WithCompression sets the compression flag from the negotiation result.
func (r *Response) WithCompression(on bool) *Response {
	r.Compress = on
	return r
}

// AddHeader appends a caller-supplied header.
func (r *Response) AddHeader(name, value string) *Response {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
	return r
}

// Encode serializes the response into wire bytes.
//
// The fixed informational headers are always emitted first: Server, Date
// (UTC), Cache-Control and Content-Type, followed by the caller-supplied
// headers. When Compress is set the body is gzip-compressed before the
// length is computed, so Content-Length always reflects the bytes actually
// sent, and a Content-Encoding header is added.
func (r *Response) Encode() ([]byte, error) {
	body := r.Body
	if r.Compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(r.Body); err != nil {
			return nil, fmt.Errorf("httpwire: compressing body: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("httpwire: compressing body: %w", err)
		}
		body = buf.Bytes()
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "%s %d %s\r\n", r.Protocol, r.Status, r.Status.Reason())
	fmt.Fprintf(&out, "Server: %s\r\n", ServerName)
	fmt.Fprintf(&out, "Date: %s\r\n", time.Now().UTC().Format(dateFormat))
	out.WriteString("Cache-Control: no-cache\r\n")
	fmt.Fprintf(&out, "Content-Type: %s\r\n", r.ContentType)
	if r.Compress {
		out.WriteString("Content-Encoding: gzip\r\n")
	}
	fmt.Fprintf(&out, "Content-Length: %d\r\n", len(body))
	for _, h := range r.Headers {
		fmt.Fprintf(&out, "%s: %s\r\n", h.Name, h.Value)
	}
	out.WriteString("\r\n")
	out.Write(body)

	return out.Bytes(), nil
}
