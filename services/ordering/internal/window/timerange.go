package window

import (
	"regexp"
	"strconv"
	"strings"
)

// Clock is a 12-hour wall clock reading.
type Clock struct {
	Hour   int    // 1..12
	Minute int    // 0..59
	Period string // "AM" or "PM"
}

// Hour24 converts to a 24-hour hour: 12 AM is 0, 12 PM is 12.
func (c Clock) Hour24() int {
	h := c.Hour % 12
	if c.Period == "PM" {
		h += 12
	}
	return h
}

type TimeRange struct {
	Start Clock
	End   Clock
}

var timeRangePattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(AM|PM)\s*-\s*(\d{1,2}):(\d{2})\s*(AM|PM)\s*$`)

// ParseTimeRange reads "H:MM AM/PM - H:MM AM/PM". Anything else reports false.
func ParseTimeRange(text string) (TimeRange, bool) {
	m := timeRangePattern.FindStringSubmatch(text)
	if m == nil {
		return TimeRange{}, false
	}

	start, ok := clockFrom(m[1], m[2], m[3])
	if !ok {
		return TimeRange{}, false
	}
	end, ok := clockFrom(m[4], m[5], m[6])
	if !ok {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}

func clockFrom(hour, minute, period string) (Clock, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil || h < 1 || h > 12 {
		return Clock{}, false
	}
	mi, err := strconv.Atoi(minute)
	if err != nil || mi < 0 || mi > 59 {
		return Clock{}, false
	}
	return Clock{Hour: h, Minute: mi, Period: strings.ToUpper(period)}, true
}
