package pipeline

import (
	"context"
	"time"

	"cadence/internal/store"
)

// Request is the immutable input to one pipeline run.
type Request struct {
	UserID       string
	ContentType  store.ContentType
	Attributes   map[string]string
	IncludeImage bool
	// ScheduledFor is the target publication time when the scheduler built
	// the request; nil for manual generation.
	ScheduledFor *time.Time
}

// Attribute returns a request attribute, or "" when absent.
func (r Request) Attribute(key string) string {
	return r.Attributes[key]
}

// Well-known request attribute keys.
const (
	AttrName            = "name"
	AttrIndustry        = "industry"
	AttrExperienceLevel = "experience_level"
	AttrCurrentWork     = "current_work"
	AttrSkills          = "skills"
	AttrCareerGoals     = "career_goals"
	AttrTone            = "tone"
	AttrCustomPrompt    = "custom_prompt"
	AttrImageType       = "image_type"
	AttrImageStyle      = "image_style"
)

// StageOutput field keys shared by the structured-parse and fallback paths.
const (
	FieldBrief        = "brief"
	FieldTemplate     = "template"
	FieldText         = "text"
	FieldCallToAction = "call_to_action"
	FieldKeyPoints    = "key_points"
	FieldImageRef     = "image_ref"
	FieldImageType    = "image_type"
)

// StageInput carries the request plus everything earlier stages produced.
type StageInput struct {
	Request Request
	// Fields accumulates the named outputs of earlier stages.
	Fields map[string]string
	// Recent holds the user's latest artifacts for style derivation.
	Recent []store.Artifact

	// Accumulated non-field outputs, owned by the orchestrator.
	hashtags   []string
	engagement *store.EngagementEstimate
}

// Field returns an accumulated field value, or "" when absent.
func (in StageInput) Field(key string) string {
	return in.Fields[key]
}

// StageOutput is the typed result of one stage. It is never mutated after
// the stage returns it; both the structured-parse and the heuristic fallback
// paths populate the same field contract.
type StageOutput struct {
	Fields     map[string]string
	Hashtags   []string
	Engagement *store.EngagementEstimate
}

// Field returns an output field value, or "" when absent.
func (out StageOutput) Field(key string) string {
	return out.Fields[key]
}

// Stage is one unit of the generation pipeline: it produces structured
// output from typed input, failing with a *StageError.
type Stage interface {
	Name() string
	Run(ctx context.Context, in StageInput) (StageOutput, error)
}

// Caller is the resilient inference dependency every stage shares.
type Caller interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Repository is the narrow persistence surface the orchestrator consumes.
type Repository interface {
	SaveArtifact(ctx context.Context, artifact *store.Artifact) error
	ListArtifacts(ctx context.Context, userID string, limit int) ([]store.Artifact, error)
}

// Defaults are config-derived fallbacks applied when model output or the
// profile leaves a field empty.
type Defaults struct {
	Hashtags   []string
	ImageStyle string
}
