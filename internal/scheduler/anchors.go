package scheduler

import (
	"time"

	"cadence/internal/store"
)

// Anchor is a named time-of-day slot publications aim for.
type Anchor string

const (
	AnchorWeekdayMorning Anchor = "weekday_morning"
	AnchorWeekdayLunch   Anchor = "weekday_lunch"
	AnchorWeekdayEvening Anchor = "weekday_evening"
	AnchorTuesdayPeak    Anchor = "tuesday_peak"
	AnchorWednesdayPeak  Anchor = "wednesday_peak"
	AnchorThursdayPeak   Anchor = "thursday_peak"
)

type anchorTime struct {
	Hour   int
	Minute int
}

var anchorTimes = map[Anchor]anchorTime{
	AnchorWeekdayMorning: {Hour: 9},
	AnchorWeekdayLunch:   {Hour: 12},
	AnchorWeekdayEvening: {Hour: 17},
	AnchorTuesdayPeak:    {Hour: 10},
	AnchorWednesdayPeak:  {Hour: 14},
	AnchorThursdayPeak:   {Hour: 11},
}

var contentAnchors = map[store.ContentType]Anchor{
	store.ContentMiniProject: AnchorWeekdayMorning,
	store.ContentMainProject: AnchorTuesdayPeak,
	store.ContentCapstone:    AnchorWednesdayPeak,
	store.ContentInsight:     AnchorWeekdayLunch,
	store.ContentAchievement: AnchorThursdayPeak,
	store.ContentGeneral:     AnchorWeekdayMorning,
}

// AnchorFor returns the posting-time anchor for a content type.
func AnchorFor(contentType store.ContentType) Anchor {
	if anchor, ok := contentAnchors[contentType]; ok {
		return anchor
	}
	return AnchorWeekdayMorning
}

// AlignToAnchor moves a target to the anchor's hour and minute on the same
// day. A target that would land before now (a catch-up run) is re-anchored
// to the next occurrence of the slot at or after now, so publication times
// are never in the past.
func AlignToAnchor(target time.Time, anchor Anchor, now time.Time) time.Time {
	slot, ok := anchorTimes[anchor]
	if !ok {
		return target
	}
	aligned := time.Date(target.Year(), target.Month(), target.Day(), slot.Hour, slot.Minute, 0, 0, target.Location())
	if aligned.Before(now) {
		aligned = time.Date(now.Year(), now.Month(), now.Day(), slot.Hour, slot.Minute, 0, 0, target.Location())
		if aligned.Before(now) {
			aligned = aligned.AddDate(0, 0, 1)
		}
	}
	return aligned
}
