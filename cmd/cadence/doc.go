// Command cadence is the CLI for the cadence content scheduler: profile and
// schedule management, manual generation, and the foreground daemon.
package main
