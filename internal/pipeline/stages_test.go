package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cadence/internal/store"
)

// scriptedCaller returns queued completions in order and counts calls.
// With err set every call fails; with errAfter set calls beyond that count
// fail instead.
type scriptedCaller struct {
	responses []string
	err       error
	errAfter  int
	calls     int
	prompts   []string
}

func (c *scriptedCaller) Generate(_ context.Context, prompt, _ string) (string, error) {
	c.calls++
	c.prompts = append(c.prompts, prompt)
	if c.errAfter > 0 && c.calls > c.errAfter {
		return "", errors.New("scripted failure")
	}
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", nil
	}
	next := c.responses[0]
	c.responses = c.responses[1:]
	return next, nil
}

func baseRequest(ct store.ContentType) Request {
	return Request{
		UserID:      "user-1",
		ContentType: ct,
		Attributes: map[string]string{
			AttrIndustry:        "software",
			AttrExperienceLevel: "senior",
		},
	}
}

func TestPromptStageMissingIndustryFastFails(t *testing.T) {
	caller := &scriptedCaller{}
	stage := NewPromptStage(caller, nil)

	req := baseRequest(store.ContentInsight)
	delete(req.Attributes, AttrIndustry)

	_, err := stage.Run(context.Background(), StageInput{Request: req})
	stageErr, ok := AsStageError(err)
	if !ok || stageErr.Kind != MissingField || stageErr.Field != AttrIndustry {
		t.Fatalf("err = %v", err)
	}
	if caller.calls != 0 {
		t.Fatalf("expected no endpoint calls, got %d", caller.calls)
	}
}

func TestPromptStageCustomPromptBypassesModel(t *testing.T) {
	caller := &scriptedCaller{}
	stage := NewPromptStage(caller, nil)

	req := baseRequest(store.ContentGeneral)
	req.Attributes[AttrCustomPrompt] = "write about our launch"

	out, err := stage.Run(context.Background(), StageInput{Request: req})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Field(FieldBrief) != "write about our launch" {
		t.Fatalf("brief = %q", out.Field(FieldBrief))
	}
	if caller.calls != 0 {
		t.Fatalf("expected no endpoint calls, got %d", caller.calls)
	}
}

func TestPromptStageRefinesBrief(t *testing.T) {
	caller := &scriptedCaller{responses: []string{"  refined brief  "}}
	stage := NewPromptStage(caller, nil)

	out, err := stage.Run(context.Background(), StageInput{Request: baseRequest(store.ContentMiniProject)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Field(FieldBrief) != "refined brief" {
		t.Fatalf("brief = %q", out.Field(FieldBrief))
	}
	if out.Field(FieldTemplate) != "mini_project" {
		t.Fatalf("template = %q", out.Field(FieldTemplate))
	}
	if caller.calls != 1 {
		t.Fatalf("calls = %d", caller.calls)
	}
	if !strings.Contains(caller.prompts[0], "software") {
		t.Fatalf("local brief missing industry: %q", caller.prompts[0])
	}
}

func TestPromptStageEmptyRefinementFallsBackToLocalBrief(t *testing.T) {
	// Empty completion is what the legacy exhaustion policy produces.
	caller := &scriptedCaller{responses: []string{""}}
	stage := NewPromptStage(caller, nil)

	out, err := stage.Run(context.Background(), StageInput{Request: baseRequest(store.ContentCapstone)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	brief := out.Field(FieldBrief)
	if !strings.Contains(brief, "capstone") || !strings.Contains(brief, "software") {
		t.Fatalf("expected local brief, got %q", brief)
	}
}

func TestPromptStageSurfacesUpstreamFailure(t *testing.T) {
	caller := &scriptedCaller{err: errors.New("exhausted")}
	stage := NewPromptStage(caller, nil)

	_, err := stage.Run(context.Background(), StageInput{Request: baseRequest(store.ContentInsight)})
	stageErr, ok := AsStageError(err)
	if !ok || stageErr.Kind != UpstreamFailure {
		t.Fatalf("err = %v", err)
	}
}

func TestContentStageRequiresBrief(t *testing.T) {
	caller := &scriptedCaller{}
	stage := NewContentStage(caller, Defaults{}, nil)

	_, err := stage.Run(context.Background(), StageInput{
		Request: baseRequest(store.ContentInsight),
		Fields:  map[string]string{},
	})
	stageErr, ok := AsStageError(err)
	if !ok || stageErr.Kind != MissingField || stageErr.Field != FieldBrief {
		t.Fatalf("err = %v", err)
	}
	if caller.calls != 0 {
		t.Fatalf("expected no endpoint calls, got %d", caller.calls)
	}
}

func TestContentStageParsesStructuredDraft(t *testing.T) {
	caller := &scriptedCaller{responses: []string{
		`{"post_text": "Shipped the thing.", "hashtags": ["#Go", "#Backend", "#Infra"], "call_to_action": "Thoughts?", "key_points": ["fast", "small"]}`,
	}}
	stage := NewContentStage(caller, Defaults{Hashtags: []string{"#Default"}}, nil)

	out, err := stage.Run(context.Background(), StageInput{
		Request: baseRequest(store.ContentMiniProject),
		Fields:  map[string]string{FieldBrief: "the brief"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Field(FieldText) != "Shipped the thing." {
		t.Fatalf("text = %q", out.Field(FieldText))
	}
	if out.Field(FieldCallToAction) != "Thoughts?" {
		t.Fatalf("cta = %q", out.Field(FieldCallToAction))
	}
	if out.Field(FieldKeyPoints) != "fast; small" {
		t.Fatalf("key points = %q", out.Field(FieldKeyPoints))
	}
	if len(out.Hashtags) != 3 || out.Hashtags[0] != "#Go" {
		t.Fatalf("hashtags = %v", out.Hashtags)
	}
	if out.Engagement == nil || out.Engagement.Score == 0 {
		t.Fatalf("engagement = %+v", out.Engagement)
	}
}

func TestContentStageFallbackParse(t *testing.T) {
	caller := &scriptedCaller{responses: []string{
		"Just shipped a new service!\n\n#Go #Backend",
	}}
	stage := NewContentStage(caller, Defaults{Hashtags: []string{"#Default"}}, nil)

	out, err := stage.Run(context.Background(), StageInput{
		Request: baseRequest(store.ContentMiniProject),
		Fields:  map[string]string{FieldBrief: "the brief"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(out.Field(FieldText), "Just shipped") {
		t.Fatalf("text = %q", out.Field(FieldText))
	}
	if len(out.Hashtags) != 2 {
		t.Fatalf("hashtags = %v", out.Hashtags)
	}
	if out.Field(FieldCallToAction) != defaultCallToAction {
		t.Fatalf("cta = %q", out.Field(FieldCallToAction))
	}
}

func TestContentStageDefaultHashtagsWhenNoneFound(t *testing.T) {
	caller := &scriptedCaller{responses: []string{
		`{"post_text": "No tags here.", "call_to_action": "Reply!"}`,
	}}
	stage := NewContentStage(caller, Defaults{Hashtags: []string{"#CareerGrowth", "#Leadership"}}, nil)

	out, err := stage.Run(context.Background(), StageInput{
		Request: baseRequest(store.ContentGeneral),
		Fields:  map[string]string{FieldBrief: "the brief"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Hashtags) != 2 || out.Hashtags[0] != "#CareerGrowth" {
		t.Fatalf("hashtags = %v", out.Hashtags)
	}
}

func TestContentStageEmptyCompletionIsUpstreamFailure(t *testing.T) {
	caller := &scriptedCaller{responses: []string{""}}
	stage := NewContentStage(caller, Defaults{}, nil)

	_, err := stage.Run(context.Background(), StageInput{
		Request: baseRequest(store.ContentInsight),
		Fields:  map[string]string{FieldBrief: "the brief"},
	})
	stageErr, ok := AsStageError(err)
	if !ok || stageErr.Kind != UpstreamFailure {
		t.Fatalf("err = %v", err)
	}
}

func TestImageStageRequiresPostText(t *testing.T) {
	caller := &scriptedCaller{}
	stage := NewImageStage(caller, NopRenderer{}, Defaults{}, nil)

	_, err := stage.Run(context.Background(), StageInput{
		Request: baseRequest(store.ContentInsight),
		Fields:  map[string]string{},
	})
	stageErr, ok := AsStageError(err)
	if !ok || stageErr.Kind != MissingField || stageErr.Field != FieldText {
		t.Fatalf("err = %v", err)
	}
	if caller.calls != 0 {
		t.Fatalf("expected no endpoint calls, got %d", caller.calls)
	}
}

func TestImageStageRendersConcept(t *testing.T) {
	caller := &scriptedCaller{responses: []string{
		`{"headline": "Launch Day", "key_points": ["fast"], "visual_theme": "clean"}`,
	}}
	dir := t.TempDir()
	stage := NewImageStage(caller, FileRenderer{Dir: dir}, Defaults{ImageStyle: "minimal"}, nil)

	out, err := stage.Run(context.Background(), StageInput{
		Request: baseRequest(store.ContentMainProject),
		Fields:  map[string]string{FieldText: "We launched today."},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ref := out.Field(FieldImageRef)
	if ref == "" {
		t.Fatal("expected image ref")
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		t.Fatalf("read concept: %v", err)
	}
	if !strings.Contains(string(data), "Launch Day") || !strings.Contains(string(data), "minimal") {
		t.Fatalf("concept = %s", data)
	}
	if filepath.Dir(ref) != dir {
		t.Fatalf("ref outside render dir: %q", ref)
	}
	if out.Field(FieldImageType) != "infographic" {
		t.Fatalf("image type = %q", out.Field(FieldImageType))
	}
}

func TestImageStageFallbackConceptFromPostText(t *testing.T) {
	caller := &scriptedCaller{responses: []string{"not json at all"}}
	stage := NewImageStage(caller, FileRenderer{Dir: t.TempDir()}, Defaults{}, nil)

	out, err := stage.Run(context.Background(), StageInput{
		Request: baseRequest(store.ContentInsight),
		Fields: map[string]string{
			FieldText:      "Observability is a habit. The rest of the post follows.",
			FieldKeyPoints: "metrics; traces",
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(out.Field(FieldImageRef))
	if err != nil {
		t.Fatalf("read concept: %v", err)
	}
	if !strings.Contains(string(data), "Observability is a habit") {
		t.Fatalf("concept = %s", data)
	}
	if !strings.Contains(string(data), "metrics") {
		t.Fatalf("concept missing key points: %s", data)
	}
}
