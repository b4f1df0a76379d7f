package http

import (
	"fmt"
	"strings"
	"time"
)

var weekdaysByName = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

func parseWeekday(value string) (time.Weekday, error) {
	day, ok := weekdaysByName[strings.ToUpper(strings.TrimSpace(value))]
	if !ok {
		return 0, fmt.Errorf("unknown day of week %q", value)
	}
	return day, nil
}

func formatWeekday(day time.Weekday) string {
	return strings.ToUpper(day.String())
}
