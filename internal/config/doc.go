// Package config loads, normalizes, and validates the TOML configuration
// shared by the CLI and the daemon. Configuration is plain data: it is parsed
// once at startup and passed explicitly into constructors, never read from
// process-wide state.
package config
