// Package deadline turns free-text deadline phrases into absolute
// timestamps. Resolution is pure: the same phrase and reference time
// always produce the same result.
package deadline

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnrecognized = errors.New("unrecognized deadline phrase")
	ErrInvalidTime  = errors.New("invalid time of day")
)

// Trailing clock-time token, e.g. "明日 18:30" or "3 days later 09:00".
var timePattern = regexp.MustCompile(`(\d{1,2}):(\d{2})$`)

const (
	defaultHour   = 23
	defaultMinute = 59
)

type relativeOffset struct {
	pattern *regexp.Regexp
	unit    time.Duration
	subDay  bool
}

var relativeOffsets = []relativeOffset{
	{regexp.MustCompile(`^(\d+)\s*(?:時間後|hours? later)$`), time.Hour, true},
	{regexp.MustCompile(`^(\d+)\s*(?:分後|minutes? later)$`), time.Minute, true},
	{regexp.MustCompile(`^(\d+)\s*(?:日後|days? later)$`), 24 * time.Hour, false},
	{regexp.MustCompile(`^(\d+)\s*(?:週間後|weeks? later)$`), 7 * 24 * time.Hour, false},
	// Months are approximated as 30-day blocks.
	{regexp.MustCompile(`^(\d+)\s*(?:ヶ月後|カ月後|months? later)$`), 30 * 24 * time.Hour, false},
}

var relativeDays = map[string]int{
	"一昨日":                   -2,
	"昨日":                    -1,
	"今日":                    0,
	"明日":                    1,
	"明後日":                   2,
	"day before yesterday":  -2,
	"yesterday":             -1,
	"today":                 0,
	"tomorrow":              1,
	"day after tomorrow":    2,
}

// Monday=0 .. Sunday=6 (the weekday math in resolveWeekday relies on it).
var weekdays = map[string]int{
	"月曜": 0, "火曜": 1, "水曜": 2, "木曜": 3, "金曜": 4, "土曜": 5, "日曜": 6,
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

var absolutePatterns = []struct {
	pattern *regexp.Regexp
	// group indexes; 0 means the group is absent (year defaults to now's)
	year, month, day int
}{
	{regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`), 0, 1, 2},
	{regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`), 1, 2, 3},
	{regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日$`), 0, 1, 2},
	{regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日$`), 1, 2, 3},
}

// Resolve parses a deadline phrase against the reference time now.
// The phrase may end with an HH:MM token; without one the resolved date
// gets 23:59. Returns ErrInvalidTime for an out-of-range clock token and
// ErrUnrecognized for anything the rule set does not cover.
func Resolve(phrase string, now time.Time) (time.Time, error) {
	datePart := strings.TrimSpace(phrase)
	if datePart == "" {
		return time.Time{}, ErrUnrecognized
	}

	hour, minute := defaultHour, defaultMinute
	hasTime := false
	if m := timePattern.FindStringSubmatchIndex(datePart); m != nil {
		h, _ := strconv.Atoi(datePart[m[2]:m[3]])
		min, _ := strconv.Atoi(datePart[m[4]:m[5]])
		if h < 0 || h > 23 || min < 0 || min > 59 {
			return time.Time{}, ErrInvalidTime
		}
		hour, minute = h, min
		hasTime = true
		datePart = strings.TrimSpace(datePart[:m[0]])
	}
	if datePart == "" {
		return time.Time{}, ErrUnrecognized
	}

	lower := strings.ToLower(datePart)

	if offset, ok := lookupRelativeDay(lower); ok {
		return atClock(now.AddDate(0, 0, offset), hour, minute), nil
	}

	for _, ro := range relativeOffsets {
		m := ro.pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 {
			return time.Time{}, ErrUnrecognized
		}
		base := now.Add(time.Duration(n) * ro.unit)
		if ro.subDay && !hasTime {
			// "3 hours later" keeps the shifted clock time; an explicit
			// token still overrides it.
			return base.Truncate(time.Minute), nil
		}
		return atClock(base, hour, minute), nil
	}

	if target, ok := lookupWeekday(lower); ok {
		return atClock(now.AddDate(0, 0, daysUntilWeekday(now, target)), hour, minute), nil
	}

	switch lower {
	case "来週", "next week":
		return atClock(now.AddDate(0, 0, daysUntilWeekday(now, 0)), hour, minute), nil
	case "来月", "next month":
		first := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
		return atClock(first, hour, minute), nil
	case "月末", "end of month":
		last := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location())
		return atClock(last, hour, minute), nil
	}

	if base, ok := parseAbsolute(datePart, now); ok {
		return atClock(base, hour, minute), nil
	}

	return time.Time{}, ErrUnrecognized
}

func lookupRelativeDay(s string) (int, bool) {
	offset, ok := relativeDays[s]
	return offset, ok
}

func lookupWeekday(s string) (int, bool) {
	if d, ok := weekdays[s]; ok {
		return d, true
	}
	// 月曜日 and friends carry a trailing 日
	if d, ok := weekdays[strings.TrimSuffix(s, "日")]; ok {
		return d, true
	}
	return 0, false
}

// daysUntilWeekday computes the next occurrence of target (Monday=0)
// strictly after today: landing on today pushes a full week out.
func daysUntilWeekday(now time.Time, target int) int {
	current := (int(now.Weekday()) + 6) % 7
	days := (target - current + 7) % 7
	if days == 0 {
		days = 7
	}
	return days
}

func parseAbsolute(s string, now time.Time) (time.Time, bool) {
	for _, ap := range absolutePatterns {
		m := ap.pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		year := now.Year()
		yearless := ap.year == 0
		if !yearless {
			year, _ = strconv.Atoi(m[ap.year])
		}
		month, _ := strconv.Atoi(m[ap.month])
		day, _ := strconv.Atoi(m[ap.day])

		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		if int(date.Month()) != month || date.Day() != day {
			// normalized away, e.g. 2/30
			return time.Time{}, false
		}

		if yearless {
			midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			if date.Before(midnight) {
				date = date.AddDate(1, 0, 0)
			}
		}
		return date, true
	}
	return time.Time{}, false
}

func atClock(base time.Time, hour, minute int) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location())
}
