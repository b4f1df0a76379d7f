package schedule

import (
	"sort"
	"time"
)

// Overlap describes the intersection of one window pair on a shared day.
type Overlap struct {
	Day         time.Weekday
	StartMinute int
	EndMinute   int
	Minutes     int
}

// sameDay reports whether two windows occupy comparable days: matching
// calendar dates for two one-off windows, matching effective weekdays
// otherwise. Callers are expected to have applied FilterWeek first so that
// one-off windows from different weeks never meet here.
func sameDay(a, b Window) bool {
	if !a.Recurring && !b.Recurring {
		if a.Date == nil || b.Date == nil {
			return false
		}
		ay, am, ad := a.Date.Date()
		by, bm, bd := b.Date.Date()
		return ay == by && am == bm && ad == bd
	}
	return a.Weekday() == b.Weekday()
}

// Intersect computes the overlap of two windows. The boolean result is false
// when the windows share no day or merely touch at a boundary.
func Intersect(a, b Window) (Overlap, bool) {
	if !sameDay(a, b) {
		return Overlap{}, false
	}
	start := a.StartMinute
	if b.StartMinute > start {
		start = b.StartMinute
	}
	end := a.EndMinute
	if b.EndMinute < end {
		end = b.EndMinute
	}
	if end <= start {
		return Overlap{}, false
	}
	return Overlap{
		Day:         a.Weekday(),
		StartMinute: start,
		EndMinute:   end,
		Minutes:     end - start,
	}, true
}

// Overlaps returns every pairwise intersection between the two window sets,
// ordered by day then start time then length for deterministic output.
func Overlaps(a, b []Window) []Overlap {
	var found []Overlap
	for _, wa := range a {
		for _, wb := range b {
			if ov, ok := Intersect(wa, wb); ok {
				found = append(found, ov)
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Day != found[j].Day {
			return weekdayRank(found[i].Day) < weekdayRank(found[j].Day)
		}
		if found[i].StartMinute != found[j].StartMinute {
			return found[i].StartMinute < found[j].StartMinute
		}
		return found[i].EndMinute < found[j].EndMinute
	})

	return found
}

// Total sums pairwise overlap across the two window sets into aggregate
// minutes and a count of distinct overlapping window pairs.
func Total(a, b []Window) (minutes int, pairs int) {
	for _, ov := range Overlaps(a, b) {
		minutes += ov.Minutes
		pairs++
	}
	return minutes, pairs
}

// weekdayRank orders days Monday-first, matching how people plan a practice
// week, rather than Go's Sunday-first ordering.
func weekdayRank(day time.Weekday) int {
	return (int(day) + 6) % 7
}
