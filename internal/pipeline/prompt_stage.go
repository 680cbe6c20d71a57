package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cadence/internal/logging"
	"cadence/internal/store"
)

// briefTemplate defines the per-type skeleton the prompt stage expands into
// a content brief before asking the model to refine it.
type briefTemplate struct {
	Structure string
	Focus     string
}

var briefTemplates = map[store.ContentType]briefTemplate{
	store.ContentMiniProject: {
		Structure: "hook, project summary, one concrete learning, invitation to discuss",
		Focus:     "a small hands-on project and what it taught you",
	},
	store.ContentMainProject: {
		Structure: "hook, problem statement, approach, measurable results, lessons",
		Focus:     "a substantial project with real outcomes",
	},
	store.ContentCapstone: {
		Structure: "journey opening, challenge narrative, final results, acknowledgments",
		Focus:     "a milestone capstone project wrapping up a larger effort",
	},
	store.ContentInsight: {
		Structure: "observation, supporting analysis, practical takeaway, question to readers",
		Focus:     "an industry insight grounded in recent experience",
	},
	store.ContentAchievement: {
		Structure: "announcement, context, who helped, what comes next",
		Focus:     "a professional achievement worth celebrating",
	},
	store.ContentGeneral: {
		Structure: "hook, body, takeaway",
		Focus:     "a general professional update",
	},
}

const promptStageName = "prompt"

// PromptStage builds a structured content brief for the requested type and
// refines it through the model.
type PromptStage struct {
	caller Caller
	logger *slog.Logger
}

// NewPromptStage constructs the brief-building stage.
func NewPromptStage(caller Caller, logger *slog.Logger) *PromptStage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PromptStage{caller: caller, logger: logger}
}

func (s *PromptStage) Name() string { return promptStageName }

// Run validates the request, assembles a local brief, and asks the model to
// refine it. An empty refinement (legacy exhaustion policy) degrades to the
// local brief; a surfaced inference error is an upstream failure.
func (s *PromptStage) Run(ctx context.Context, in StageInput) (StageOutput, error) {
	req := in.Request
	if !req.ContentType.Valid() {
		return StageOutput{}, missingField(promptStageName, "content_type")
	}
	if strings.TrimSpace(req.Attribute(AttrIndustry)) == "" {
		return StageOutput{}, missingField(promptStageName, AttrIndustry)
	}

	// A caller-supplied prompt for general content bypasses the templates.
	if req.ContentType == store.ContentGeneral {
		if custom := strings.TrimSpace(req.Attribute(AttrCustomPrompt)); custom != "" {
			return StageOutput{Fields: map[string]string{
				FieldBrief:    custom,
				FieldTemplate: "custom",
			}}, nil
		}
	}

	tpl := briefTemplates[req.ContentType]
	local := s.buildLocalBrief(req, tpl)

	refined, err := s.caller.Generate(ctx, refinementPrompt(local), briefSystemPrompt)
	if err != nil {
		return StageOutput{}, upstreamFailure(promptStageName, err)
	}
	brief := strings.TrimSpace(refined)
	if brief == "" {
		s.logger.Warn("empty brief refinement; using local brief",
			logging.String(logging.FieldStage, promptStageName),
			logging.String(logging.FieldContentType, string(req.ContentType)),
			logging.String(logging.FieldUserID, req.UserID),
		)
		brief = local
	}

	return StageOutput{Fields: map[string]string{
		FieldBrief:    brief,
		FieldTemplate: string(req.ContentType),
	}}, nil
}

const briefSystemPrompt = "You are a professional content strategist. " +
	"Rewrite the supplied content brief so it is specific and actionable. " +
	"Return only the improved brief text."

func (s *PromptStage) buildLocalBrief(req Request, tpl briefTemplate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s post about %s.\n", req.ContentType.Label(), tpl.Focus)
	fmt.Fprintf(&b, "Structure: %s.\n", tpl.Structure)
	fmt.Fprintf(&b, "Industry: %s.\n", req.Attribute(AttrIndustry))
	if v := strings.TrimSpace(req.Attribute(AttrExperienceLevel)); v != "" {
		fmt.Fprintf(&b, "Experience level: %s.\n", v)
	}
	if v := strings.TrimSpace(req.Attribute(AttrCurrentWork)); v != "" {
		fmt.Fprintf(&b, "Current work: %s.\n", v)
	}
	if v := strings.TrimSpace(req.Attribute(AttrSkills)); v != "" {
		fmt.Fprintf(&b, "Relevant skills: %s.\n", v)
	}
	if v := strings.TrimSpace(req.Attribute(AttrCareerGoals)); v != "" {
		fmt.Fprintf(&b, "Career goals: %s.\n", v)
	}
	for key, value := range req.Attributes {
		if isProfileAttr(key) || strings.TrimSpace(value) == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s.\n", strings.ReplaceAll(key, "_", " "), value)
	}
	return b.String()
}

func isProfileAttr(key string) bool {
	switch key {
	case AttrName, AttrIndustry, AttrExperienceLevel, AttrCurrentWork,
		AttrSkills, AttrCareerGoals, AttrTone, AttrCustomPrompt,
		AttrImageType, AttrImageStyle:
		return true
	}
	return false
}

func refinementPrompt(local string) string {
	var b strings.Builder
	b.WriteString("Improve this content brief. Keep the structure, sharpen the angle, ")
	b.WriteString("and make it specific to the person described.\n\n")
	b.WriteString(local)
	return b.String()
}
