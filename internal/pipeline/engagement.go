package pipeline

import (
	"strings"

	"cadence/internal/store"
)

const (
	engagementBase = 50
	engagementMax  = 100
)

// EstimateEngagement scores a drafted artifact with length, hashtag, and
// call-to-action heuristics. The score drives the predicted interaction
// counts; suggestions name the penalty that applied.
func EstimateEngagement(body string, hashtags []string, callToAction string) store.EngagementEstimate {
	score := engagementBase
	var suggestions []string

	length := len(body)
	switch {
	case length >= 300 && length <= 800:
		score += 20
	case length < 150:
		score -= 10
		suggestions = append(suggestions, "Post is very short; add context or a concrete example")
	case length > 1200:
		score -= 15
		suggestions = append(suggestions, "Post is long; consider trimming to the 300-800 character range")
	}

	tagCount := len(hashtags)
	switch {
	case tagCount >= 3 && tagCount <= 5:
		score += 15
	case tagCount > 10:
		score -= 20
		suggestions = append(suggestions, "Too many hashtags; keep 3-5 focused tags")
	case tagCount == 0:
		suggestions = append(suggestions, "No hashtags; add 3-5 relevant tags for reach")
	}

	if strings.TrimSpace(callToAction) != "" {
		score += 10
	} else {
		suggestions = append(suggestions, "Add a call to action to invite comments")
	}

	if score > engagementMax {
		score = engagementMax
	}
	if score < 0 {
		score = 0
	}

	return store.EngagementEstimate{
		Score:             score,
		PredictedLikes:    maxInt(score, 10),
		PredictedComments: maxInt(score/5, 2),
		PredictedShares:   maxInt(score/10, 1),
		Suggestions:       suggestions,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
