// Package logging assembles the structured slog loggers used across cadence
// components. It centralizes level and output plumbing, exposes attr helpers
// and shared field names so every component emits records with the same shape,
// and provides a no-op logger for tests and optional wiring.
package logging
