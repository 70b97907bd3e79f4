package domain

import (
	"sort"
	"time"
)

const (
	MinSlotDurationMinutes = 15
	MaxSlotDurationMinutes = 240
)

// InvalidRequestError marks caller-supplied parameters outside the
// contractual bounds of slot generation. Transport maps it to a 400.
type InvalidRequestError struct {
	msg string
}

func (e *InvalidRequestError) Error() string {
	return e.msg
}

func invalidRequest(msg string) error {
	return &InvalidRequestError{msg: msg}
}

// OpenInterval is a working-hours window expressed as minutes from
// midnight in the tenant's time zone, e.g. 540–1020 for 09:00–17:00.
type OpenInterval struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// WorkingHours is a tenant's bookability configuration. Weekly is indexed
// by time.Weekday (0=Sunday).
type WorkingHours struct {
	Timezone               string
	Weekly                 [7][]OpenInterval
	SlotGranularityMinutes int
	MinimumNoticeMinutes   int
	BufferMinutes          int
	LookaheadDays          int
}

// TimeRange is a half-open [Start, End) span. Occupied intervals and
// generated slots share this shape; occupied intervals are opaque
// exclusion zones regardless of whether they came from bookings, holds
// or synced busy blocks.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// SlotRequest carries everything GenerateSlots needs. Now is injected so
// minimum-notice and past-date checks stay deterministic under test; the
// generator never reads a system clock.
type SlotRequest struct {
	Date            time.Time
	DurationMinutes int
	Hours           WorkingHours
	Occupied        []TimeRange
	Now             time.Time
}

// GenerateSlots computes the ordered bookable start times on the
// requested date. Every returned slot has exactly the requested duration,
// lies inside one of that weekday's open intervals, respects minimum
// notice and the lookahead window, and does not overlap any occupied
// interval once expanded by the configured buffer on both sides.
//
// Only past dates, durations outside [15, 240] minutes and an unloadable
// time zone are errors; a closed day, a fully booked day or a duration
// longer than every open interval all yield an empty result.
func GenerateSlots(req SlotRequest) ([]TimeRange, error) {
	if req.DurationMinutes < MinSlotDurationMinutes || req.DurationMinutes > MaxSlotDurationMinutes {
		return nil, invalidRequest("duration_minutes must be between 15 and 240")
	}

	loc, err := time.LoadLocation(req.Hours.Timezone)
	if err != nil {
		return nil, invalidRequest("invalid time_zone")
	}

	year, month, day := req.Date.Year(), req.Date.Month(), req.Date.Day()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)

	nowLocal := req.Now.In(loc)
	todayStart := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, loc)
	if dayStart.Before(todayStart) {
		return nil, invalidRequest("cannot get availability for past dates")
	}

	if req.Hours.LookaheadDays > 0 {
		lastBookable := todayStart.AddDate(0, 0, req.Hours.LookaheadDays)
		if dayStart.After(lastBookable) {
			return []TimeRange{}, nil
		}
	}

	open := append([]OpenInterval(nil), req.Hours.Weekly[dayStart.Weekday()]...)
	if len(open) == 0 {
		return []TimeRange{}, nil
	}
	sort.Slice(open, func(i, j int) bool { return open[i].StartMinute < open[j].StartMinute })

	granularity := req.Hours.SlotGranularityMinutes
	if granularity < 1 {
		granularity = req.DurationMinutes
	}

	earliest := req.Now.Add(time.Duration(req.Hours.MinimumNoticeMinutes) * time.Minute)
	buffer := time.Duration(req.Hours.BufferMinutes) * time.Minute

	slots := make([]TimeRange, 0)
	for _, window := range open {
		end := window.EndMinute
		if end > 24*60 {
			end = 24 * 60
		}
		if window.StartMinute < 0 || window.StartMinute >= end {
			continue
		}

		// Candidate boundaries are built from wall-clock components so a
		// DST transition on the target date cannot skew slot starts.
		for m := window.StartMinute; m+req.DurationMinutes <= end; m += granularity {
			start := clockTime(year, month, day, m, loc)
			slot := TimeRange{
				Start: start,
				End:   clockTime(year, month, day, m+req.DurationMinutes, loc),
			}

			if start.Before(earliest) {
				continue
			}

			buffered := TimeRange{Start: slot.Start.Add(-buffer), End: slot.End.Add(buffer)}
			conflict := false
			for _, occ := range req.Occupied {
				if buffered.Overlaps(occ) {
					conflict = true
					break
				}
			}
			if conflict {
				continue
			}

			slots = append(slots, slot)
		}
	}

	return slots, nil
}

func clockTime(year int, month time.Month, day, minuteOfDay int, loc *time.Location) time.Time {
	return time.Date(year, month, day, minuteOfDay/60, minuteOfDay%60, 0, 0, loc)
}
