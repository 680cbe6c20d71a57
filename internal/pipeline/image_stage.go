package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"cadence/internal/logging"
)

const imageStageName = "image"

// VisualConcept is the structured description handed to the renderer.
type VisualConcept struct {
	Headline    string   `json:"headline"`
	KeyPoints   []string `json:"key_points,omitempty"`
	DataPoints  []string `json:"data_points,omitempty"`
	VisualTheme string   `json:"visual_theme,omitempty"`
	ImageType   string   `json:"image_type,omitempty"`
	Style       string   `json:"style,omitempty"`
}

// Renderer turns a visual concept into a referenceable asset.
type Renderer interface {
	Render(ctx context.Context, concept VisualConcept) (string, error)
}

// FileRenderer writes concepts as JSON files under Dir and returns the path.
// Actual raster rendering is a collaborator boundary, not this package's job.
type FileRenderer struct {
	Dir string
}

func (r FileRenderer) Render(_ context.Context, concept VisualConcept) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("render: create dir: %w", err)
	}
	encoded, err := json.MarshalIndent(concept, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render: encode concept: %w", err)
	}
	path := filepath.Join(r.Dir, "concept-"+uuid.NewString()+".json")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("render: write concept: %w", err)
	}
	return path, nil
}

// NopRenderer discards concepts; used when image output is disabled.
type NopRenderer struct{}

func (NopRenderer) Render(context.Context, VisualConcept) (string, error) {
	return "", nil
}

// ImageStage produces a visual concept for the drafted post and renders it.
// Every failure here is recoverable: the orchestrator logs and continues
// with an empty image ref.
type ImageStage struct {
	caller   Caller
	renderer Renderer
	defaults Defaults
	logger   *slog.Logger
}

// NewImageStage constructs the visual-concept stage.
func NewImageStage(caller Caller, renderer Renderer, defaults Defaults, logger *slog.Logger) *ImageStage {
	if logger == nil {
		logger = logging.NewNop()
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &ImageStage{caller: caller, renderer: renderer, defaults: defaults, logger: logger}
}

func (s *ImageStage) Name() string { return imageStageName }

// Run asks the model for a visual concept based on the post text and hands it
// to the renderer. An unparseable completion degrades to a concept derived
// from the post text itself.
func (s *ImageStage) Run(ctx context.Context, in StageInput) (StageOutput, error) {
	text := strings.TrimSpace(in.Field(FieldText))
	if text == "" {
		return StageOutput{}, missingField(imageStageName, FieldText)
	}

	imageType := strings.TrimSpace(in.Request.Attribute(AttrImageType))
	if imageType == "" {
		imageType = "infographic"
	}
	style := strings.TrimSpace(in.Request.Attribute(AttrImageStyle))
	if style == "" {
		style = s.defaults.ImageStyle
	}

	raw, err := s.caller.Generate(ctx, s.conceptPrompt(text, imageType), imageSystemPrompt)
	if err != nil {
		return StageOutput{}, upstreamFailure(imageStageName, err)
	}

	var concept VisualConcept
	if decodeErr := DecodeModelJSON(raw, &concept); decodeErr != nil || strings.TrimSpace(concept.Headline) == "" {
		s.logger.Warn("unstructured visual concept; deriving from post text",
			logging.String(logging.FieldStage, imageStageName),
			logging.String(logging.FieldUserID, in.Request.UserID),
		)
		concept = fallbackConcept(text, in.Field(FieldKeyPoints))
	}
	concept.ImageType = imageType
	concept.Style = style

	ref, err := s.renderer.Render(ctx, concept)
	if err != nil {
		return StageOutput{}, upstreamFailure(imageStageName, err)
	}

	return StageOutput{Fields: map[string]string{
		FieldImageRef:  ref,
		FieldImageType: imageType,
	}}, nil
}

// fallbackConcept builds a concept from the post itself: first line as the
// headline, accumulated key points as the bullets.
func fallbackConcept(text, keyPoints string) VisualConcept {
	headline := text
	if idx := strings.IndexAny(text, "\n."); idx > 0 {
		headline = text[:idx]
	}
	const headlineLimit = 80
	runes := []rune(strings.TrimSpace(headline))
	if len(runes) > headlineLimit {
		headline = string(runes[:headlineLimit])
	} else {
		headline = string(runes)
	}

	var points []string
	for _, point := range strings.Split(keyPoints, ";") {
		if point = strings.TrimSpace(point); point != "" {
			points = append(points, point)
		}
	}
	return VisualConcept{Headline: headline, KeyPoints: points}
}

const imageSystemPrompt = "You are a visual content designer. Respond with a " +
	"single JSON object containing headline, key_points, data_points, and " +
	"visual_theme. No prose outside the JSON."

func (s *ImageStage) conceptPrompt(text, imageType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Design a %s to accompany this post.\n\nPost:\n", imageType)
	b.WriteString(text)
	b.WriteString("\n\nReturn JSON: {\"headline\": ..., \"key_points\": [...], ")
	b.WriteString("\"data_points\": [...], \"visual_theme\": ...}")
	return b.String()
}
