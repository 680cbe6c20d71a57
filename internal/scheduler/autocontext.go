package scheduler

import (
	"fmt"
	"strings"

	"cadence/internal/pipeline"
	"cadence/internal/store"
)

// imageTypes picks the visual format that suits each content type.
var imageTypes = map[store.ContentType]string{
	store.ContentMiniProject: "infographic",
	store.ContentMainProject: "chart",
	store.ContentCapstone:    "achievement",
	store.ContentInsight:     "quote",
	store.ContentAchievement: "achievement",
	store.ContentGeneral:     "infographic",
}

// autoContext derives per-type request attributes from the profile so that
// scheduled runs carry the same context a user would type by hand. Pure
// function of its inputs.
func autoContext(profile *store.Profile, contentType store.ContentType) map[string]string {
	attrs := map[string]string{
		pipeline.AttrName:            profile.Name,
		pipeline.AttrIndustry:        profile.Industry,
		pipeline.AttrExperienceLevel: profile.ExperienceLevel,
		pipeline.AttrCurrentWork:     profile.CurrentWork,
		pipeline.AttrSkills:          strings.Join(profile.Skills, ", "),
		pipeline.AttrCareerGoals:     profile.CareerGoals,
		pipeline.AttrImageType:       imageTypes[contentType],
	}
	if tone := strings.TrimSpace(profile.Preferences.Tone); tone != "" {
		attrs[pipeline.AttrTone] = tone
	}
	if style := strings.TrimSpace(profile.Preferences.ImageStyle); style != "" {
		attrs[pipeline.AttrImageStyle] = style
	}

	work := strings.TrimSpace(profile.CurrentWork)
	if work == "" {
		work = "recent work"
	}
	primarySkill := "core skills"
	if len(profile.Skills) > 0 {
		primarySkill = profile.Skills[0]
	}

	switch contentType {
	case store.ContentMiniProject:
		attrs["project_details"] = fmt.Sprintf("a recent hands-on experiment related to %s", work)
		attrs["key_learnings"] = fmt.Sprintf("what practicing %s taught this week", primarySkill)
	case store.ContentMainProject:
		attrs["project_details"] = fmt.Sprintf("a significant project within %s", work)
		attrs["challenges"] = "the hardest technical or organizational obstacle and how it was handled"
		attrs["results"] = "concrete, measurable outcomes of the project"
	case store.ContentCapstone:
		attrs["journey"] = fmt.Sprintf("the path from starting out in %s to completing a capstone", profile.Industry)
		attrs["results"] = "the final outcome and what it demonstrates"
		attrs["acknowledgments"] = "the people and resources that made it possible"
	case store.ContentInsight:
		attrs["observation"] = fmt.Sprintf("a trend currently visible in %s", profile.Industry)
		attrs["analysis"] = fmt.Sprintf("what that trend means for practitioners of %s", primarySkill)
	case store.ContentAchievement:
		attrs["achievement"] = fmt.Sprintf("a recent milestone in %s", work)
		attrs["impact"] = "why this milestone matters for the larger goal"
	}

	for key, value := range attrs {
		if strings.TrimSpace(value) == "" {
			delete(attrs, key)
		}
	}
	return attrs
}
