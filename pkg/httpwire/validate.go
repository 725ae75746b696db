package httpwire

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Check identifies which validation rule a request failed.
type Check string

const (
	// CheckEncoding rejects buffers that are not valid UTF-8.
	CheckEncoding Check = "invalid_encoding"
	// CheckRequestLine rejects request lines without exactly three tokens.
	CheckRequestLine Check = "malformed_request_line"
	// CheckMethod rejects methods outside the supported set.
	CheckMethod Check = "unsupported_method"
	// CheckURI rejects URIs failing the character and denylist rules.
	CheckURI Check = "invalid_uri"
	// CheckProtocol rejects unknown protocol versions.
	CheckProtocol Check = "unsupported_protocol"
	// CheckHostHeader rejects requests without exactly one Host header.
	CheckHostHeader Check = "invalid_host_count"
	// CheckTerminator rejects buffers not ending in CRLF CRLF.
	CheckTerminator Check = "truncated_request"
)

// ValidationError reports a failed check together with enough context to log.
type ValidationError struct {
	Check   Check
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bad request (%s): %s", e.Check, e.Message)
}

// forbiddenURIChars are rejected anywhere in a URI.
var forbiddenURIChars = "<>{}|\\^`[] %"

// forbiddenURIWords is a coarse command/SQL-injection denylist. It is a
// best-effort heuristic, not a parser-backed guarantee; the URI character
// rules above do most of the real work.
var forbiddenURIWords = []string{
	"rm", "sh", "bash", "python", "perl", "exec", "delete", "drop",
	"cmd", "script", ";--", "' OR '", "&&",
}

var supportedProtocols = []string{"HTTP/1.0", "HTTP/1.1", "HTTP/2", "HTTP/3"}

// Validate runs the security checks against a raw request buffer, in order,
// short-circuiting on the first failure:
//
//  1. the buffer decodes as UTF-8
//  2. the request line has exactly three tokens
//  3. the method is supported
//  4. the URI passes the character and denylist rules
//  5. the protocol version is recognized
//  6. exactly one Host header is present
//  7. the buffer ends with the CRLF CRLF terminator
func Validate(raw []byte) error {
	if !utf8.Valid(raw) {
		return &ValidationError{Check: CheckEncoding, Message: "request is not valid UTF-8"}
	}

	lines := splitLines(string(raw))
	if len(lines) == 0 {
		return &ValidationError{Check: CheckRequestLine, Message: "missing request line"}
	}

	parts := strings.Fields(lines[0])
	if len(parts) != 3 {
		return &ValidationError{
			Check:   CheckRequestLine,
			Message: fmt.Sprintf("request line has %d tokens, want 3", len(parts)),
		}
	}

	if _, err := ParseMethod(parts[0]); err != nil {
		return &ValidationError{
			Check:   CheckMethod,
			Message: fmt.Sprintf("unsupported method %q", parts[0]),
		}
	}

	if err := validateURI(parts[1]); err != nil {
		return err
	}

	if !contains(supportedProtocols, parts[2]) {
		return &ValidationError{
			Check:   CheckProtocol,
			Message: fmt.Sprintf("unsupported protocol %q", parts[2]),
		}
	}

	if err := validateHostCount(lines[1:]); err != nil {
		return err
	}

	if !bytes.HasSuffix(raw, []byte("\r\n\r\n")) {
		return &ValidationError{
			Check:   CheckTerminator,
			Message: "request does not end with CRLF CRLF",
		}
	}

	return nil
}

func validateURI(uri string) error {
	bad := func(reason string) error {
		return &ValidationError{
			Check:   CheckURI,
			Message: fmt.Sprintf("uri %q rejected: %s", uri, reason),
		}
	}

	switch {
	case uri == "":
		return bad("empty")
	case !strings.HasPrefix(uri, "/"):
		return bad("must start with /")
	case strings.Contains(uri, ".."):
		return bad("path traversal")
	case strings.ContainsRune(uri, 0):
		return bad("null byte")
	}

	for _, r := range uri {
		if unicode.IsControl(r) {
			return bad("control character")
		}
	}
	if strings.ContainsAny(uri, forbiddenURIChars) {
		return bad("forbidden character")
	}
	for _, w := range forbiddenURIWords {
		if strings.Contains(uri, w) {
			return bad(fmt.Sprintf("forbidden substring %q", w))
		}
	}
	return nil
}

// validateHostCount requires exactly one Host header among the header lines.
func validateHostCount(headerLines []string) error {
	count := 0
	for _, line := range headerLines {
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Host:") {
			count++
		}
	}
	if count != 1 {
		return &ValidationError{
			Check:   CheckHostHeader,
			Message: fmt.Sprintf("found %d Host headers, want exactly 1", count),
		}
	}
	return nil
}

// splitLines splits on CRLF or bare LF, mirroring how the buffer is framed
// on the wire.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
