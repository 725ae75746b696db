// Package server provides the TCP listener, accept loop and per-connection
// session loop behind Coracle's request handling.
//
// # Architecture
//
// The server package is the top-level orchestrator that:
//   - Binds the listening socket (with SO_REUSEADDR for quick restarts)
//   - Runs the accept loop with backoff retry on transient failures
//   - Admits connections through the limits.Limiter before serving them
//   - Runs the read/validate/parse/dispatch/respond cycle per connection
//   - Coordinates graceful shutdown through shutdown.Coordinator
//   - Handles OS signals (SIGTERM, SIGINT)
//
// # Accept Loop
//
// Accept failures are retried with a doubling backoff; once the next wait
// would pass the configured ceiling the loop fails fatally and the whole
// server shuts down. A single successful accept resets the backoff.
//
// # Connection Sessions
//
// Every accepted connection gets its own session goroutine, but a session
// only starts serving once it holds an admission slot. The session then
// loops: read one buffer under the read deadline, validate and parse it,
// dispatch to the handler, write the response. A read timeout, a validation
// failure or the terminate broadcast all end the connection; validation
// failures additionally get a best-effort 400 before the close.
//
// # Graceful Shutdown
//
// Shutdown stops the listener, broadcasts terminate, and waits for active
// sessions to finish their current request/response cycle, bounded by the
// shutdown timeout. A session never observes terminate mid-cycle, so a
// response is never truncated.
package server
