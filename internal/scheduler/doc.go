// Package scheduler drives recurring content generation. It sweeps the
// cadence entries persisted in the store, triggers the generation pipeline
// for each due (user, content type) pair, and rolls the entry forward by its
// interval anchored to the previous due time so late sweeps never drift the
// cadence. Posting times snap to a fixed table of per-type anchors.
package scheduler
