package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BlackoutSeries is a recurring blocked window: the rule expands to
// calendar dates, and on each date the StartMinute..EndMinute span in the
// tenant's time zone is excluded from availability.
type BlackoutSeries struct {
	bun.BaseModel `bun:"table:blackout_series"`

	ID               uuid.UUID   `bun:"id,pk,type:uuid"`
	TenantID         string      `bun:"tenant_id,notnull"`
	Reason           string      `bun:"reason"`
	StartDate        time.Time   `bun:"start_date,notnull"`
	StartMinute      int         `bun:"start_minute,notnull"`
	EndMinute        int         `bun:"end_minute,notnull"`
	Frequency        Frequency   `bun:"frequency,notnull"`
	Interval         int         `bun:"interval,notnull"`
	DaysOfWeek       []int16     `bun:"days_of_week,array"`
	MonthlyMode      MonthlyMode `bun:"monthly_mode"`
	AfterOccurrences *int        `bun:"after_occurrences"`
	OnDate           *time.Time  `bun:"on_date"`
	CreatedAt        time.Time   `bun:"created_at,notnull"`
	UpdatedAt        time.Time   `bun:"updated_at,notnull"`
}

func (b *BlackoutSeries) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

func (b *BlackoutSeries) Rule() RecurrenceRule {
	days := make([]int, 0, len(b.DaysOfWeek))
	for _, wd := range b.DaysOfWeek {
		days = append(days, int(wd))
	}
	return RecurrenceRule{
		Frequency:        b.Frequency,
		Interval:         b.Interval,
		DaysOfWeek:       days,
		MonthlyMode:      b.MonthlyMode,
		AfterOccurrences: b.AfterOccurrences,
		OnDate:           b.OnDate,
	}
}

// BlockedRanges expands the series and returns the blocked spans that
// overlap [windowStart, windowEnd), as concrete timestamps in loc.
func (b *BlackoutSeries) BlockedRanges(windowStart, windowEnd time.Time, loc *time.Location) []TimeRange {
	out := make([]TimeRange, 0)
	for _, occ := range ExpandRecurrence(b.StartDate, b.Rule()) {
		r := TimeRange{
			Start: clockTime(occ.Year(), occ.Month(), occ.Day(), b.StartMinute, loc),
			End:   clockTime(occ.Year(), occ.Month(), occ.Day(), b.EndMinute, loc),
		}
		if !r.End.After(r.Start) {
			continue
		}
		if r.Overlaps(TimeRange{Start: windowStart, End: windowEnd}) {
			out = append(out, r)
		}
	}
	return out
}
