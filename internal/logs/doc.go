// Package logs reads the daemon's log file for CLI display: a bounded tail
// of recent lines and a polling follow mode.
package logs
