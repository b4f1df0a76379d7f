package schedule

import (
	"errors"
	"fmt"
	"time"
)

// MinutesPerDay bounds the valid minute-of-day range for window edges.
const MinutesPerDay = 24 * 60

// ErrInvalidWindow indicates a window whose edges are out of range or reversed.
var ErrInvalidWindow = errors.New("schedule: window start must be before end within one day")

// Window is a contiguous availability interval on a single day. A recurring
// window repeats every week on Day; a one-off window is pinned to Date and
// derives its weekday from it.
type Window struct {
	Day         time.Weekday
	Date        *time.Time
	StartMinute int
	EndMinute   int
	Recurring   bool
}

// Validate reports whether the window satisfies the start < end invariant and
// stays within a single day.
func (w Window) Validate() error {
	if w.StartMinute < 0 || w.EndMinute > MinutesPerDay || w.StartMinute >= w.EndMinute {
		return ErrInvalidWindow
	}
	if !w.Recurring && w.Date == nil {
		return fmt.Errorf("schedule: one-off window requires a date")
	}
	return nil
}

// Weekday resolves the effective day-of-week: the pinned date's weekday for
// one-off windows, the configured Day otherwise.
func (w Window) Weekday() time.Weekday {
	if !w.Recurring && w.Date != nil {
		return w.Date.Weekday()
	}
	return w.Day
}

// Minutes returns the window length in minutes.
func (w Window) Minutes() int {
	return w.EndMinute - w.StartMinute
}

// FilterWeek narrows a window set to the week starting at weekStart (expected
// to be a midnight instant). Recurring windows always survive; one-off
// windows survive only when their pinned date falls inside that week. Weeks
// that ended before the reference instant yield no windows at all, since
// recurring availability never applies to past weeks.
func FilterWeek(windows []Window, weekStart time.Time, reference time.Time) []Window {
	weekEnd := weekStart.AddDate(0, 0, 7)
	if !weekEnd.After(reference) {
		return nil
	}

	kept := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Recurring {
			kept = append(kept, w)
			continue
		}
		if w.Date == nil {
			continue
		}
		d := *w.Date
		if !d.Before(weekStart) && d.Before(weekEnd) {
			kept = append(kept, w)
		}
	}
	return kept
}

// FormatMinute renders a minute-of-day as a HH:MM clock string.
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseMinute converts a HH:MM clock string into a minute-of-day value.
func ParseMinute(value string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("schedule: invalid clock time %q", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("schedule: invalid clock time %q", value)
	}
	return hour*60 + minute, nil
}
