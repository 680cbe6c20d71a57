// Package daemon hosts the long-running cadence process: it owns the sweep
// loop that polls for due schedule entries, with flock-based locking to
// prevent multiple concurrent instances against one database.
package daemon
