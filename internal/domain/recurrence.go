package domain

import (
	"time"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
	FrequencyWeekday Frequency = "weekday"
)

type MonthlyMode string

const (
	MonthlyModeDayOfMonth MonthlyMode = "dayOfMonth"
	MonthlyModeDayOfWeek  MonthlyMode = "dayOfWeek"
)

// MaxOccurrences is the absolute ceiling on expansion output, applied
// regardless of the termination mode a rule requests.
const MaxOccurrences = 52

// RecurrenceRule describes a repeating pattern. DaysOfWeek uses integer
// weekday codes 0=Sunday..6=Saturday and applies only to weekly rules.
// Exactly one of AfterOccurrences and OnDate is expected; when both are
// missing the expansion runs to the occurrence ceiling.
type RecurrenceRule struct {
	Frequency        Frequency
	Interval         int
	DaysOfWeek       []int
	MonthlyMode      MonthlyMode
	AfterOccurrences *int
	OnDate           *time.Time
}

// normalizedRule is the validated internal form of a RecurrenceRule.
// Malformed input never fails here: unrecognized frequencies fall back to
// weekly, non-positive intervals clamp to 1, out-of-range weekday codes
// are dropped. Persisted rules may carry junk; expansion stays lenient.
type normalizedRule struct {
	frequency  Frequency
	interval   int
	weekdays   map[time.Weekday]struct{}
	nthWeek    int
	limitCount int
	limitDate  time.Time
}

func normalizeRule(start time.Time, rule RecurrenceRule) normalizedRule {
	nr := normalizedRule{interval: rule.Interval}

	switch rule.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly, FrequencyWeekday:
		nr.frequency = rule.Frequency
	default:
		nr.frequency = FrequencyWeekly
		nr.interval = 1
	}
	if nr.interval < 1 {
		nr.interval = 1
	}

	switch nr.frequency {
	case FrequencyWeekday:
		nr.interval = 1
		nr.weekdays = map[time.Weekday]struct{}{
			time.Monday:    {},
			time.Tuesday:   {},
			time.Wednesday: {},
			time.Thursday:  {},
			time.Friday:    {},
		}
	case FrequencyWeekly:
		nr.weekdays = make(map[time.Weekday]struct{}, len(rule.DaysOfWeek))
		for _, wd := range rule.DaysOfWeek {
			if wd < 0 || wd > 6 {
				continue
			}
			nr.weekdays[time.Weekday(wd)] = struct{}{}
		}
		if len(nr.weekdays) == 0 {
			nr.weekdays = map[time.Weekday]struct{}{start.Weekday(): {}}
		}
	case FrequencyMonthly:
		if rule.MonthlyMode == MonthlyModeDayOfWeek {
			nr.nthWeek = (start.Day()-1)/7 + 1
		}
	}

	nr.limitCount = MaxOccurrences
	if rule.AfterOccurrences != nil && *rule.AfterOccurrences < nr.limitCount {
		nr.limitCount = *rule.AfterOccurrences
	}
	if nr.limitCount < 1 {
		nr.limitCount = 1
	}
	if rule.OnDate != nil {
		nr.limitDate = NormalizeDate(*rule.OnDate)
	}

	return nr
}

// NormalizeDate strips the time-of-day from t and anchors the date at
// noon UTC, so that day-increment arithmetic cannot shift across a DST
// boundary into a neighbouring calendar day.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}

// ExpandRecurrence materializes a recurrence rule into an ordered,
// duplicate-free sequence of occurrence dates, each anchored at noon UTC.
// The start date is always the first element. Expansion is pure date
// arithmetic: past dates are never skipped, and the result is capped at
// MaxOccurrences even for date-bounded rules.
func ExpandRecurrence(start time.Time, rule RecurrenceRule) []time.Time {
	nr := normalizeRule(start, rule)
	first := NormalizeDate(start)

	out := make([]time.Time, 0, nr.limitCount)
	out = append(out, first)
	if len(out) >= nr.limitCount {
		return out
	}
	if !nr.limitDate.IsZero() && !first.Before(nr.limitDate) {
		return out
	}

	switch nr.frequency {
	case FrequencyMonthly:
		if nr.nthWeek > 0 {
			return expandMonthlyByWeekday(first, nr, out)
		}
		return expandByDateStep(nr, out, func(k int) time.Time {
			return first.AddDate(0, k*nr.interval, 0)
		})
	case FrequencyYearly:
		return expandByDateStep(nr, out, func(k int) time.Time {
			return first.AddDate(k*nr.interval, 0, 0)
		})
	default:
		return expandByDayScan(first, nr, out)
	}
}

// expandByDayScan walks forward one day at a time, collecting dates that
// pass the frequency's weekday filter and interval stride. Daily, weekday
// and weekly rules all reduce to this scan; a weekly rule without an
// explicit day set was normalized to the start date's weekday, which
// makes the scan equivalent to stepping whole weeks.
func expandByDayScan(first time.Time, nr normalizedRule, out []time.Time) []time.Time {
	weekAnchor := first.AddDate(0, 0, -int(first.Weekday()))

	for d := first.AddDate(0, 0, 1); ; d = d.AddDate(0, 0, 1) {
		if !nr.limitDate.IsZero() && d.After(nr.limitDate) {
			return out
		}

		include := false
		switch nr.frequency {
		case FrequencyDaily:
			include = daysBetween(first, d)%nr.interval == 0
		default:
			if _, ok := nr.weekdays[d.Weekday()]; ok {
				weekStart := d.AddDate(0, 0, -int(d.Weekday()))
				include = (daysBetween(weekAnchor, weekStart)/7)%nr.interval == 0
			}
		}
		if !include {
			continue
		}

		out = append(out, d)
		if len(out) >= nr.limitCount {
			return out
		}
	}
}

func expandByDateStep(nr normalizedRule, out []time.Time, step func(k int) time.Time) []time.Time {
	for k := 1; ; k++ {
		d := NormalizeDate(step(k))
		if !nr.limitDate.IsZero() && d.After(nr.limitDate) {
			return out
		}
		out = append(out, d)
		if len(out) >= nr.limitCount {
			return out
		}
	}
}

// expandMonthlyByWeekday pins occurrences to the Nth weekday of each
// month, where N and the weekday both come from the start date. Months
// that lack a fifth such weekday produce no occurrence.
func expandMonthlyByWeekday(first time.Time, nr normalizedRule, out []time.Time) []time.Time {
	weekday := first.Weekday()

	for k := 1; ; k++ {
		anchor := time.Date(first.Year(), first.Month(), 1, 12, 0, 0, 0, time.UTC).AddDate(0, k*nr.interval, 0)
		d, ok := nthWeekdayOfMonth(anchor.Year(), anchor.Month(), weekday, nr.nthWeek)
		if !ok {
			continue
		}
		if !nr.limitDate.IsZero() && d.After(nr.limitDate) {
			return out
		}
		out = append(out, d)
		if len(out) >= nr.limitCount {
			return out
		}
	}
}

func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) (time.Time, bool) {
	firstOfMonth := time.Date(year, month, 1, 12, 0, 0, 0, time.UTC)
	day := 1 + (int(weekday)-int(firstOfMonth.Weekday())+7)%7 + 7*(n-1)
	lastDay := time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC), true
}

// daysBetween assumes both values are noon-UTC anchored dates.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
