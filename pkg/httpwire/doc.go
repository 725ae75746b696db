// Package httpwire implements the HTTP/1.1 wire layer: security validation of
// raw request bytes, parsing into a structured Request, and serialization of
// a Response back into wire bytes.
//
// The layer is intentionally narrow. Requests arrive as a single bounded read
// (see pkg/server), only an allow-list of header names is retained, and the
// validator is a best-effort denylist filter rather than a full RFC grammar.
//
// # Request Flow
//
//	raw bytes -> Validate -> ParseRequest -> handler -> Response.Encode
//
// Validate runs its checks in a fixed order and fails fast on the first
// violation; a validation failure terminates the connection rather than
// attempting recovery.
package httpwire
