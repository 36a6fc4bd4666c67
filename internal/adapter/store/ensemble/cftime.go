package ensemble

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var referenceLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02",
	"2006-1-2 15:4:5",
	"2006-1-2",
}

// TimeUnits is a parsed CF "<unit> since <reference>" attribute.
type TimeUnits struct {
	Unit      string
	Reference time.Time
}

// ParseTimeUnits parses a CF time units attribute such as
// "days since 2015-01-01 00:00:00".
func ParseTimeUnits(units string) (TimeUnits, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return TimeUnits{}, fmt.Errorf("time units %q: expected \"<unit> since <reference>\"", units)
	}

	unit := strings.ToLower(strings.TrimSpace(parts[0]))
	switch unit {
	case "second", "seconds", "sec", "secs", "s":
		unit = "seconds"
	case "minute", "minutes", "min", "mins":
		unit = "minutes"
	case "hour", "hours", "hr", "hrs", "h":
		unit = "hours"
	case "day", "days", "d":
		unit = "days"
	case "month", "months":
		unit = "months"
	default:
		return TimeUnits{}, fmt.Errorf("time units %q: unsupported unit %q", units, unit)
	}

	ref := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[1]), "UTC"))
	for _, layout := range referenceLayouts {
		if t, err := time.Parse(layout, ref); err == nil {
			return TimeUnits{Unit: unit, Reference: t.UTC()}, nil
		}
	}
	return TimeUnits{}, fmt.Errorf("time units %q: unparseable reference %q", units, ref)
}

// Decode converts an offset into an absolute time.
func (u TimeUnits) Decode(v float64) time.Time {
	switch u.Unit {
	case "months":
		whole := math.Floor(v)
		t := u.Reference.AddDate(0, int(whole), 0)
		// Fractional months use a 30-day month.
		return t.Add(time.Duration((v - whole) * 30 * 24 * float64(time.Hour)))
	case "days":
		return u.Reference.Add(time.Duration(v * 24 * float64(time.Hour)))
	case "hours":
		return u.Reference.Add(time.Duration(v * float64(time.Hour)))
	case "minutes":
		return u.Reference.Add(time.Duration(v * float64(time.Minute)))
	default:
		return u.Reference.Add(time.Duration(v * float64(time.Second)))
	}
}
