// Package dates resolves free-text date phrases against a reference day.
package dates

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrUnrecognized is returned when no phrase class matches. Callers default
// to the reference date.
var ErrUnrecognized = errors.New("dates: unrecognized date phrase")

// lastWeekendOffsetDays places "last weekend" on the Tuesday before the
// current week's Monday. The Saturday before the current week (-2) was almost
// certainly intended; the shipped behavior is kept. Weeks start on Monday.
const lastWeekendOffsetDays = -6

var (
	relativeRe     = regexp.MustCompile(`\b(next|last)\s+([a-z]+)\b`)
	explicitDateRe = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})(?:[/.](\d{2,4}))?\b`)
)

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Resolve converts a date phrase to an absolute date. Phrase classes are
// tried in priority order: literal today/tomorrow/yesterday, then
// next/last weekday-week-weekend, then an explicit dd/mm[/yy] pattern with
// the reference year implied when omitted.
func Resolve(phrase string, now civil.Date) (civil.Date, error) {
	p := strings.ToLower(phrase)

	switch {
	case strings.Contains(p, "today"):
		return now, nil
	case strings.Contains(p, "tomorrow"):
		return now.AddDays(1), nil
	case strings.Contains(p, "yesterday"):
		return now.AddDays(-1), nil
	}

	if d, ok := resolveRelative(p, now); ok {
		return d, nil
	}
	if d, ok := resolveExplicit(p, now); ok {
		return d, nil
	}

	return civil.Date{}, ErrUnrecognized
}

// ContainsDatePhrase reports whether the text holds any recognizable date
// phrase, and the offset at which it starts. Used to trim trailing date
// phrases off extracted spans.
func ContainsDatePhrase(text string) (int, bool) {
	p := strings.ToLower(text)

	best := -1
	for _, token := range []string{"today", "tomorrow", "yesterday"} {
		if i := strings.Index(p, token); i >= 0 && (best == -1 || i < best) {
			best = i
		}
	}
	if loc := relativeRe.FindStringIndex(p); loc != nil && (best == -1 || loc[0] < best) {
		if _, ok := resolveRelative(p[loc[0]:], civil.Date{Year: 2000, Month: time.January, Day: 3}); ok {
			best = loc[0]
		}
	}
	if loc := explicitDateRe.FindStringIndex(p); loc != nil && (best == -1 || loc[0] < best) {
		best = loc[0]
	}

	return best, best >= 0
}

func resolveRelative(p string, now civil.Date) (civil.Date, bool) {
	m := relativeRe.FindStringSubmatch(p)
	if m == nil {
		return civil.Date{}, false
	}
	forward := m[1] == "next"
	unit := m[2]

	switch unit {
	case "week":
		// Friday of the week that starts one Monday ahead/behind.
		if forward {
			return weekStart(now).AddDays(7 + 4), true
		}
		return weekStart(now).AddDays(-7 + 4), true
	case "weekend":
		if forward {
			return nextOccurrence(now, time.Saturday), true
		}
		return weekStart(now).AddDays(lastWeekendOffsetDays), true
	}

	wd, ok := weekdayNames[unit]
	if !ok {
		return civil.Date{}, false
	}
	if forward {
		return nextOccurrence(now, wd), true
	}
	return lastOccurrence(now, wd), true
}

func resolveExplicit(p string, now civil.Date) (civil.Date, bool) {
	m := explicitDateRe.FindStringSubmatch(p)
	if m == nil {
		return civil.Date{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])

	year := now.Year
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
	}

	if month < 1 || month > 12 {
		return civil.Date{}, false
	}
	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}

// weekStart returns the Monday of the week containing d.
func weekStart(d civil.Date) civil.Date {
	offset := (int(d.In(time.UTC).Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// nextOccurrence returns the next occurrence of wd strictly after d.
func nextOccurrence(d civil.Date, wd time.Weekday) civil.Date {
	delta := (int(wd) - int(d.In(time.UTC).Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return d.AddDays(delta)
}

// lastOccurrence returns the last occurrence of wd strictly before d.
func lastOccurrence(d civil.Date, wd time.Weekday) civil.Date {
	delta := (int(d.In(time.UTC).Weekday()) - int(wd) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return d.AddDays(-delta)
}
