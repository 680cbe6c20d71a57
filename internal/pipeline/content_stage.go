package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cadence/internal/logging"
)

const (
	contentStageName = "content"

	// maxHashtags bounds the fallback hashtag scan.
	maxHashtags = 10

	defaultCallToAction = "What are your thoughts on this? Share your experience in the comments!"
)

// ContentStage turns the brief into a finished post body with hashtags and a
// call to action, then scores it.
type ContentStage struct {
	caller   Caller
	defaults Defaults
	logger   *slog.Logger
}

// NewContentStage constructs the drafting stage.
func NewContentStage(caller Caller, defaults Defaults, logger *slog.Logger) *ContentStage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ContentStage{caller: caller, defaults: defaults, logger: logger}
}

func (s *ContentStage) Name() string { return contentStageName }

type contentPayload struct {
	PostText     string   `json:"post_text"`
	Hashtags     []string `json:"hashtags"`
	CallToAction string   `json:"call_to_action"`
	KeyPoints    []string `json:"key_points"`
}

// Run drafts the post from the brief and the derived style. Structured JSON
// output is preferred; unparseable completions fall back to heuristics that
// fill the same fields.
func (s *ContentStage) Run(ctx context.Context, in StageInput) (StageOutput, error) {
	brief := strings.TrimSpace(in.Field(FieldBrief))
	if brief == "" {
		return StageOutput{}, missingField(contentStageName, FieldBrief)
	}

	style := DeriveStyle(in.Recent, in.Request.Attribute(AttrTone))
	raw, err := s.caller.Generate(ctx, s.draftPrompt(brief, style), contentSystemPrompt)
	if err != nil {
		return StageOutput{}, upstreamFailure(contentStageName, err)
	}
	if strings.TrimSpace(raw) == "" {
		return StageOutput{}, upstreamFailure(contentStageName, fmt.Errorf("empty completion"))
	}

	payload := s.parseDraft(in, raw)
	if len(payload.Hashtags) == 0 {
		payload.Hashtags = append([]string(nil), s.defaults.Hashtags...)
	}
	if strings.TrimSpace(payload.CallToAction) == "" {
		payload.CallToAction = defaultCallToAction
	}

	engagement := EstimateEngagement(payload.PostText, payload.Hashtags, payload.CallToAction)
	return StageOutput{
		Fields: map[string]string{
			FieldText:         payload.PostText,
			FieldCallToAction: payload.CallToAction,
			FieldKeyPoints:    strings.Join(payload.KeyPoints, "; "),
		},
		Hashtags:   payload.Hashtags,
		Engagement: &engagement,
	}, nil
}

func (s *ContentStage) parseDraft(in StageInput, raw string) contentPayload {
	var payload contentPayload
	if err := DecodeModelJSON(raw, &payload); err == nil && strings.TrimSpace(payload.PostText) != "" {
		payload.PostText = strings.TrimSpace(payload.PostText)
		return payload
	}

	// Heuristic fallback: the whole completion is the body, hashtags come
	// from a #tag scan of the text.
	s.logger.Warn("unstructured draft completion; applying fallback parse",
		logging.String(logging.FieldStage, contentStageName),
		logging.String(logging.FieldUserID, in.Request.UserID),
		logging.String(logging.FieldContentType, string(in.Request.ContentType)),
	)
	return contentPayload{
		PostText: strings.TrimSpace(raw),
		Hashtags: extractHashtags(raw, maxHashtags),
	}
}

const contentSystemPrompt = "You are a professional social content writer. " +
	"Respond with a single JSON object containing post_text, hashtags, " +
	"call_to_action, and key_points. No prose outside the JSON."

func (s *ContentStage) draftPrompt(brief string, style Style) string {
	var b strings.Builder
	b.WriteString("Write the post described by this brief.\n\nBrief:\n")
	b.WriteString(brief)
	b.WriteString("\n\nMatch this style:\n")
	b.WriteString(style.PromptHint())
	b.WriteString("\n\nReturn JSON: {\"post_text\": ..., \"hashtags\": [...], ")
	b.WriteString("\"call_to_action\": ..., \"key_points\": [...]}")
	return b.String()
}
