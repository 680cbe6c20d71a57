package store

import (
	"fmt"
	"strings"
	"time"
)

// ContentType is the closed set of publication content types.
type ContentType string

const (
	ContentMiniProject ContentType = "mini_project"
	ContentMainProject ContentType = "main_project"
	ContentCapstone    ContentType = "capstone"
	ContentInsight     ContentType = "insight"
	ContentAchievement ContentType = "achievement"
	ContentGeneral     ContentType = "general"
)

// AllContentTypes lists every valid content type in display order.
var AllContentTypes = []ContentType{
	ContentMiniProject,
	ContentMainProject,
	ContentCapstone,
	ContentInsight,
	ContentAchievement,
	ContentGeneral,
}

var contentTypeSet = func() map[ContentType]struct{} {
	set := make(map[ContentType]struct{}, len(AllContentTypes))
	for _, ct := range AllContentTypes {
		set[ct] = struct{}{}
	}
	return set
}()

// Valid reports whether the content type belongs to the closed set.
func (c ContentType) Valid() bool {
	_, ok := contentTypeSet[c]
	return ok
}

// Label returns a human-readable form, e.g. "mini project".
func (c ContentType) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// ParseContentType converts a wire string into a ContentType.
func ParseContentType(value string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(value)))
	if !ct.Valid() {
		return "", fmt.Errorf("unknown content type %q", value)
	}
	return ct, nil
}

// ArtifactStatus is the lifecycle state of a generated artifact.
type ArtifactStatus string

const (
	StatusDraft     ArtifactStatus = "draft"
	StatusScheduled ArtifactStatus = "scheduled"
	StatusPosted    ArtifactStatus = "posted"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s ArtifactStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPosted:
		return true
	}
	return false
}

// EngagementEstimate is the heuristic score attached to an artifact.
type EngagementEstimate struct {
	Score             int      `json:"engagement_score"`
	PredictedLikes    int      `json:"predicted_likes"`
	PredictedComments int      `json:"predicted_comments"`
	PredictedShares   int      `json:"predicted_shares"`
	Suggestions       []string `json:"optimization_suggestions,omitempty"`
}

// Artifact is one generated content unit ready for review or publication.
type Artifact struct {
	ID           string
	UserID       string
	ContentType  ContentType
	Body         string
	Hashtags     []string
	CallToAction string
	ImageRef     string
	Engagement   EngagementEstimate
	Status       ArtifactStatus
	ScheduledFor *time.Time
	CreatedAt    time.Time
}

// CadenceEntry is a persisted recurring schedule for one (user, content type)
// pair. Identity is the pair itself; rollover updates NextRunAt in place.
type CadenceEntry struct {
	UserID      string
	ContentType ContentType
	Frequency   Frequency
	NextRunAt   time.Time
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StrategyEntry describes one content type's slot in a posting strategy.
type StrategyEntry struct {
	Enabled   bool      `json:"enabled"`
	Frequency Frequency `json:"frequency"`
}

// Preferences holds per-user generation defaults.
type Preferences struct {
	Tone            string                        `json:"tone,omitempty"`
	DefaultHashtags []string                      `json:"default_hashtags,omitempty"`
	ImageStyle      string                        `json:"image_style,omitempty"`
	IncludeImages   bool                          `json:"include_images"`
	PostingStrategy map[ContentType]StrategyEntry `json:"posting_strategy,omitempty"`
}

// Profile describes the user whose content is being generated.
type Profile struct {
	UserID          string
	Name            string
	Industry        string
	ExperienceLevel string
	CurrentWork     string
	Skills          []string
	CareerGoals     string
	Preferences     Preferences
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
