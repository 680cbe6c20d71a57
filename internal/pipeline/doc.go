// Package pipeline generates content artifacts through a fixed stage
// sequence: a brief-building prompt stage, a drafting content stage, and an
// optional visual-concept image stage. The orchestrator owns stage ordering
// and the fatal/non-fatal failure split; stages share one resilient
// inference caller and never touch storage directly.
package pipeline
