// Coracle is a minimal HTTP/1.1 server built directly on TCP sockets.
//
// It serves a small set of static and auth routes while demonstrating the
// full connection lifecycle by hand:
//   - Bounded-concurrency admission of connections
//   - Raw request validation and parsing
//   - Accept retry with doubling backoff
//   - Broadcast-driven graceful shutdown
//
// Usage:
//
//	# Start server with default configuration
//	coracle run
//
//	# Start with custom configuration file
//	coracle run --config /path/to/config.yaml
//
//	# Show version information
//	coracle version
//
//	# Validate a configuration file without starting
//	coracle validate --config /path/to/config.yaml
package main

func main() {
	Execute()
}
