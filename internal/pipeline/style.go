package pipeline

import (
	"strings"

	"cadence/internal/store"
)

// Style summarizes how a user's recent artifacts read, so the content stage
// can keep new output consistent with what came before.
type Style struct {
	Tone         string
	AvgLength    int
	LengthBand   string
	HashtagUsage string
}

const (
	lengthBandShort  = "Short"
	lengthBandMedium = "Medium"
	lengthBandLong   = "Long"

	defaultTone         = "Professional"
	defaultHashtagUsage = "3-5 relevant hashtags"
)

// DeriveStyle computes a style summary from recent artifacts. The tone
// override wins when set; with no history the defaults apply.
func DeriveStyle(recent []store.Artifact, toneOverride string) Style {
	style := Style{
		Tone:         defaultTone,
		LengthBand:   lengthBandMedium,
		HashtagUsage: defaultHashtagUsage,
	}
	if tone := strings.TrimSpace(toneOverride); tone != "" {
		style.Tone = tone
	}
	if len(recent) == 0 {
		return style
	}

	total := 0
	for _, artifact := range recent {
		total += len(artifact.Body)
	}
	style.AvgLength = total / len(recent)
	switch {
	case style.AvgLength < 300:
		style.LengthBand = lengthBandShort
	case style.AvgLength < 800:
		style.LengthBand = lengthBandMedium
	default:
		style.LengthBand = lengthBandLong
	}
	return style
}

// PromptHint renders the style as a compact instruction fragment.
func (s Style) PromptHint() string {
	var b strings.Builder
	b.WriteString("Tone: ")
	b.WriteString(s.Tone)
	b.WriteString("\nTypical length: ")
	b.WriteString(s.LengthBand)
	b.WriteString("\nHashtag usage: ")
	b.WriteString(s.HashtagUsage)
	return b.String()
}
