package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int {
	return &n
}

func TestExpandRecurrence_CountTermination(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{name: "below cap", count: 10, want: 10},
		{name: "at cap", count: 52, want: 52},
		{name: "above cap", count: 500, want: 52},
		{name: "zero clamps to one", count: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandRecurrence(date(2026, 1, 5), RecurrenceRule{
				Frequency:        FrequencyDaily,
				Interval:         1,
				AfterOccurrences: intPtr(tt.count),
			})
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestExpandRecurrence_StartDateIsAlwaysFirst(t *testing.T) {
	start := time.Date(2026, 1, 5, 18, 30, 0, 0, time.FixedZone("JST", 9*3600))

	rules := []RecurrenceRule{
		{Frequency: FrequencyDaily, Interval: 3, AfterOccurrences: intPtr(5)},
		{Frequency: FrequencyWeekly, DaysOfWeek: []int{2, 4}, AfterOccurrences: intPtr(5)},
		{Frequency: FrequencyMonthly, MonthlyMode: MonthlyModeDayOfWeek, AfterOccurrences: intPtr(5)},
		{Frequency: FrequencyYearly, AfterOccurrences: intPtr(5)},
		{Frequency: "bogus", AfterOccurrences: intPtr(5)},
	}

	for _, rule := range rules {
		got := ExpandRecurrence(start, rule)
		if len(got) == 0 {
			t.Fatalf("rule %+v produced no occurrences", rule)
		}
		want := date(2026, 1, 5)
		if !got[0].Equal(want) {
			t.Fatalf("first = %v, want %v (rule %+v)", got[0], want, rule)
		}
	}
}

func TestExpandRecurrence_WeeklyDayFilter(t *testing.T) {
	// 2024-01-01 is a Monday.
	got := ExpandRecurrence(date(2024, 1, 1), RecurrenceRule{
		Frequency:        FrequencyWeekly,
		Interval:         1,
		DaysOfWeek:       []int{1, 3},
		AfterOccurrences: intPtr(10),
	})

	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	for _, d := range got {
		if wd := d.Weekday(); wd != time.Monday && wd != time.Wednesday {
			t.Fatalf("unexpected weekday %v for %v", wd, d)
		}
	}
	if want := date(2024, 1, 3); !got[1].Equal(want) {
		t.Fatalf("second = %v, want %v", got[1], want)
	}
	if want := date(2024, 1, 8); !got[2].Equal(want) {
		t.Fatalf("third = %v, want %v", got[2], want)
	}
}

func TestExpandRecurrence_WeeklyIntervalSkipsWeeks(t *testing.T) {
	got := ExpandRecurrence(date(2024, 1, 1), RecurrenceRule{
		Frequency:        FrequencyWeekly,
		Interval:         2,
		DaysOfWeek:       []int{1},
		AfterOccurrences: intPtr(3),
	})

	want := []time.Time{date(2024, 1, 1), date(2024, 1, 15), date(2024, 1, 29)}
	assertDates(t, got, want)
}

func TestExpandRecurrence_WeeklyWithoutDaySetStepsNaturally(t *testing.T) {
	got := ExpandRecurrence(date(2024, 1, 4), RecurrenceRule{
		Frequency:        FrequencyWeekly,
		Interval:         1,
		AfterOccurrences: intPtr(3),
	})

	want := []time.Time{date(2024, 1, 4), date(2024, 1, 11), date(2024, 1, 18)}
	assertDates(t, got, want)
}

func TestExpandRecurrence_WeekdayShorthand(t *testing.T) {
	// 2024-01-05 is a Friday; interval must be ignored.
	got := ExpandRecurrence(date(2024, 1, 5), RecurrenceRule{
		Frequency:        FrequencyWeekday,
		Interval:         3,
		AfterOccurrences: intPtr(10),
	})

	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	for _, d := range got {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("weekend date %v in weekday expansion", d)
		}
	}
	if want := date(2024, 1, 8); !got[1].Equal(want) {
		t.Fatalf("second = %v, want %v (friday must roll to monday)", got[1], want)
	}
}

func TestExpandRecurrence_MonthlyNthWeekday(t *testing.T) {
	// 2024-01-16 is the third Tuesday of January 2024.
	got := ExpandRecurrence(date(2024, 1, 16), RecurrenceRule{
		Frequency:        FrequencyMonthly,
		Interval:         1,
		MonthlyMode:      MonthlyModeDayOfWeek,
		AfterOccurrences: intPtr(6),
	})

	if len(got) != 6 {
		t.Fatalf("len = %d, want 6", len(got))
	}
	for _, d := range got {
		if d.Weekday() != time.Tuesday {
			t.Fatalf("weekday = %v for %v, want Tuesday", d.Weekday(), d)
		}
		if nth := (d.Day()-1)/7 + 1; nth != 3 {
			t.Fatalf("nth = %d for %v, want 3", nth, d)
		}
	}
	if want := date(2024, 2, 20); !got[1].Equal(want) {
		t.Fatalf("second = %v, want %v", got[1], want)
	}
}

func TestExpandRecurrence_MonthlyFifthWeekdaySkipsShortMonths(t *testing.T) {
	// 2024-01-29 is the fifth Monday of January 2024; February 2024 has
	// only four Mondays.
	got := ExpandRecurrence(date(2024, 1, 29), RecurrenceRule{
		Frequency:        FrequencyMonthly,
		Interval:         1,
		MonthlyMode:      MonthlyModeDayOfWeek,
		AfterOccurrences: intPtr(3),
	})

	want := []time.Time{date(2024, 1, 29), date(2024, 4, 29), date(2024, 7, 29)}
	assertDates(t, got, want)
}

func TestExpandRecurrence_MonthlyDayOfMonth(t *testing.T) {
	got := ExpandRecurrence(date(2024, 1, 15), RecurrenceRule{
		Frequency:        FrequencyMonthly,
		Interval:         1,
		AfterOccurrences: intPtr(3),
	})

	want := []time.Time{date(2024, 1, 15), date(2024, 2, 15), date(2024, 3, 15)}
	assertDates(t, got, want)
}

func TestExpandRecurrence_Yearly(t *testing.T) {
	got := ExpandRecurrence(date(2024, 3, 1), RecurrenceRule{
		Frequency:        FrequencyYearly,
		Interval:         2,
		AfterOccurrences: intPtr(3),
	})

	want := []time.Time{date(2024, 3, 1), date(2026, 3, 1), date(2028, 3, 1)}
	assertDates(t, got, want)
}

func TestExpandRecurrence_OnDateInclusive(t *testing.T) {
	end := date(2026, 1, 9)
	got := ExpandRecurrence(date(2026, 1, 5), RecurrenceRule{
		Frequency: FrequencyDaily,
		Interval:  1,
		OnDate:    &end,
	})

	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if !got[len(got)-1].Equal(end) {
		t.Fatalf("last = %v, want %v", got[len(got)-1], end)
	}
}

func TestExpandRecurrence_OnDateStillCapped(t *testing.T) {
	end := date(2027, 1, 5)
	got := ExpandRecurrence(date(2026, 1, 5), RecurrenceRule{
		Frequency: FrequencyDaily,
		Interval:  1,
		OnDate:    &end,
	})

	if len(got) != MaxOccurrences {
		t.Fatalf("len = %d, want %d", len(got), MaxOccurrences)
	}
}

func TestExpandRecurrence_LenientNormalization(t *testing.T) {
	t.Run("unknown frequency falls back to weekly", func(t *testing.T) {
		got := ExpandRecurrence(date(2024, 1, 1), RecurrenceRule{
			Frequency:        "fortnightly",
			Interval:         5,
			AfterOccurrences: intPtr(3),
		})
		want := []time.Time{date(2024, 1, 1), date(2024, 1, 8), date(2024, 1, 15)}
		assertDates(t, got, want)
	})

	t.Run("non-positive interval clamps to one", func(t *testing.T) {
		got := ExpandRecurrence(date(2024, 1, 1), RecurrenceRule{
			Frequency:        FrequencyDaily,
			Interval:         -2,
			AfterOccurrences: intPtr(3),
		})
		want := []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3)}
		assertDates(t, got, want)
	})

	t.Run("out of range weekday codes are dropped", func(t *testing.T) {
		got := ExpandRecurrence(date(2024, 1, 1), RecurrenceRule{
			Frequency:        FrequencyWeekly,
			Interval:         1,
			DaysOfWeek:       []int{1, 9, -1},
			AfterOccurrences: intPtr(3),
		})
		for _, d := range got {
			if d.Weekday() != time.Monday {
				t.Fatalf("weekday = %v for %v, want Monday", d.Weekday(), d)
			}
		}
	})
}

func TestExpandRecurrence_OrderedAndDeduplicated(t *testing.T) {
	got := ExpandRecurrence(date(2024, 3, 8), RecurrenceRule{
		Frequency:        FrequencyDaily,
		Interval:         1,
		AfterOccurrences: intPtr(10),
	})

	seen := make(map[time.Time]struct{}, len(got))
	for i, d := range got {
		if i > 0 && !got[i-1].Before(d) {
			t.Fatalf("not strictly increasing at %d: %v then %v", i, got[i-1], d)
		}
		if _, dup := seen[d]; dup {
			t.Fatalf("duplicate date %v", d)
		}
		seen[d] = struct{}{}
		// Daily stepping across the 2024-03-10 US DST change must still
		// produce consecutive calendar days.
		if i > 0 && daysBetween(got[i-1], d) != 1 {
			t.Fatalf("gap between %v and %v", got[i-1], d)
		}
	}
}

func assertDates(t *testing.T, got, want []time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (got %v)", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
