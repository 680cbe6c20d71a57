// Package inference wraps the external text-inference endpoint behind a
// retry-aware client. Failures are classified (connection refused, timeout,
// server error, unknown) and each class gets a fixed wait before the next
// attempt; the retry budget and exhaustion policy are configuration, not
// runtime state, so one client serves concurrent callers.
package inference
