// Package store owns cadence's persistent state: user profiles, generated
// artifacts, and recurring cadence entries, backed by a single SQLite
// database. It is the only component that touches the database; everything
// else goes through its narrow repository surface.
package store
