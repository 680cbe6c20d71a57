package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FrequencyKind enumerates the supported cadence frequencies.
type FrequencyKind string

const (
	FreqDaily      FrequencyKind = "daily"
	FreqWeekly     FrequencyKind = "weekly"
	FreqBiweekly   FrequencyKind = "biweekly"
	FreqEveryNDays FrequencyKind = "every_n_days"
	FreqMonthly    FrequencyKind = "monthly"
	FreqQuarterly  FrequencyKind = "quarterly"
)

// Frequency is a cadence interval. Monthly and quarterly are calendar-naive
// 30/90-day approximations by design.
type Frequency struct {
	Kind FrequencyKind
	// N is the day count, only meaningful for FreqEveryNDays.
	N int
}

var (
	Daily     = Frequency{Kind: FreqDaily}
	Weekly    = Frequency{Kind: FreqWeekly}
	Biweekly  = Frequency{Kind: FreqBiweekly}
	Monthly   = Frequency{Kind: FreqMonthly}
	Quarterly = Frequency{Kind: FreqQuarterly}
)

// EveryNDays builds a custom day-count frequency.
func EveryNDays(n int) Frequency {
	return Frequency{Kind: FreqEveryNDays, N: n}
}

var intervalDays = map[FrequencyKind]int{
	FreqDaily:     1,
	FreqWeekly:    7,
	FreqBiweekly:  14,
	FreqMonthly:   30,
	FreqQuarterly: 90,
}

// Days returns the interval length in days.
func (f Frequency) Days() (int, error) {
	if f.Kind == FreqEveryNDays {
		if f.N <= 0 {
			return 0, fmt.Errorf("every_n_days frequency requires a positive day count, got %d", f.N)
		}
		return f.N, nil
	}
	days, ok := intervalDays[f.Kind]
	if !ok {
		return 0, fmt.Errorf("unknown frequency kind %q", f.Kind)
	}
	return days, nil
}

// Interval returns the interval as a duration.
func (f Frequency) Interval() (time.Duration, error) {
	days, err := f.Days()
	if err != nil {
		return 0, err
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

// String renders the wire form: "daily", "weekly", "biweekly", "monthly",
// "quarterly", or "every_15_days".
func (f Frequency) String() string {
	if f.Kind == FreqEveryNDays {
		return fmt.Sprintf("every_%d_days", f.N)
	}
	return string(f.Kind)
}

// ParseFrequency converts a wire string into a Frequency.
func ParseFrequency(value string) (Frequency, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	switch FrequencyKind(trimmed) {
	case FreqDaily:
		return Daily, nil
	case FreqWeekly:
		return Weekly, nil
	case FreqBiweekly:
		return Biweekly, nil
	case FreqMonthly:
		return Monthly, nil
	case FreqQuarterly:
		return Quarterly, nil
	}
	if rest, ok := strings.CutPrefix(trimmed, "every_"); ok {
		if digits, ok := strings.CutSuffix(rest, "_days"); ok {
			n, err := strconv.Atoi(digits)
			if err != nil || n <= 0 {
				return Frequency{}, fmt.Errorf("invalid day count in frequency %q", value)
			}
			return EveryNDays(n), nil
		}
	}
	return Frequency{}, fmt.Errorf("unknown frequency %q", value)
}

// MarshalJSON encodes the wire string form.
func (f Frequency) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON decodes the wire string form.
func (f *Frequency) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseFrequency(raw)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
