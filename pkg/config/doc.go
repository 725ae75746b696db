// Package config defines the configuration structure for Coracle and
// provides loading, defaulting, environment overriding and validation.
//
// Configuration is loaded from a YAML file. The loading sequence is:
//
//  1. Parse YAML from the file (optional; missing path means defaults)
//  2. Apply default values for unset fields
//  3. Apply CORACLE_* environment variable overrides
//  4. Validate the final configuration
//
// # Example
//
//	server:
//	  listen_address: "[::1]:7878"
//	  read_timeout: 5s
//	limits:
//	  max_connections: 5
//	telemetry:
//	  logging:
//	    level: info
//	    format: text
//	  metrics:
//	    enabled: true
//	    listen_address: "127.0.0.1:9090"
//
// Environment overrides follow the CORACLE_SECTION_FIELD convention, e.g.
// CORACLE_SERVER_LISTEN_ADDRESS or CORACLE_LIMITS_MAX_CONNECTIONS.
package config
