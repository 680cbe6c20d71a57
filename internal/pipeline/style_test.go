package pipeline

import (
	"strings"
	"testing"

	"cadence/internal/store"
)

func artifactsWithBodies(lengths ...int) []store.Artifact {
	artifacts := make([]store.Artifact, 0, len(lengths))
	for _, n := range lengths {
		artifacts = append(artifacts, store.Artifact{Body: strings.Repeat("x", n)})
	}
	return artifacts
}

func TestDeriveStyleDefaultsWithoutHistory(t *testing.T) {
	style := DeriveStyle(nil, "")
	if style.Tone != "Professional" {
		t.Fatalf("tone = %q", style.Tone)
	}
	if style.LengthBand != "Medium" {
		t.Fatalf("length band = %q", style.LengthBand)
	}
	if style.AvgLength != 0 {
		t.Fatalf("avg length = %d", style.AvgLength)
	}
}

func TestDeriveStyleToneOverride(t *testing.T) {
	style := DeriveStyle(artifactsWithBodies(400), "Casual")
	if style.Tone != "Casual" {
		t.Fatalf("tone = %q", style.Tone)
	}
}

func TestDeriveStyleLengthBands(t *testing.T) {
	cases := []struct {
		name    string
		lengths []int
		want    string
	}{
		{"short", []int{100, 200}, "Short"},
		{"short boundary", []int{299}, "Short"},
		{"medium", []int{300}, "Medium"},
		{"medium upper", []int{799}, "Medium"},
		{"long", []int{800}, "Long"},
		{"mixed averages", []int{100, 1500}, "Long"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			style := DeriveStyle(artifactsWithBodies(tc.lengths...), "")
			if style.LengthBand != tc.want {
				t.Fatalf("length band = %q, want %q (avg %d)", style.LengthBand, tc.want, style.AvgLength)
			}
		})
	}
}

func TestEstimateEngagementIdealPost(t *testing.T) {
	body := strings.Repeat("x", 500)
	est := EstimateEngagement(body, []string{"#a", "#b", "#c"}, "What do you think?")
	// 50 base + 20 length + 15 hashtags + 10 CTA.
	if est.Score != 95 {
		t.Fatalf("score = %d", est.Score)
	}
	if est.PredictedLikes != 95 || est.PredictedComments != 19 || est.PredictedShares != 9 {
		t.Fatalf("predictions = %d/%d/%d", est.PredictedLikes, est.PredictedComments, est.PredictedShares)
	}
	if len(est.Suggestions) != 0 {
		t.Fatalf("suggestions = %v", est.Suggestions)
	}
}

func TestEstimateEngagementPenalties(t *testing.T) {
	est := EstimateEngagement("tiny", nil, "")
	// 50 base - 10 short; no hashtag bonus, no CTA bonus.
	if est.Score != 40 {
		t.Fatalf("score = %d", est.Score)
	}
	if len(est.Suggestions) != 3 {
		t.Fatalf("suggestions = %v", est.Suggestions)
	}

	many := make([]string, 12)
	for i := range many {
		many[i] = "#tag"
	}
	est = EstimateEngagement(strings.Repeat("x", 2000), many, "cta")
	// 50 - 15 long - 20 hashtag spam + 10 CTA.
	if est.Score != 25 {
		t.Fatalf("score = %d", est.Score)
	}
}

func TestEstimateEngagementFloors(t *testing.T) {
	est := EstimateEngagement("x", nil, "")
	if est.PredictedLikes < 10 || est.PredictedComments < 2 || est.PredictedShares < 1 {
		t.Fatalf("floors violated: %d/%d/%d", est.PredictedLikes, est.PredictedComments, est.PredictedShares)
	}
}
