package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookable/backend/internal/domain"
	"bookable/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

const dateLayout = "2006-01-02"

type Service struct {
	bookings  store.BookingRepository
	schedules store.ScheduleRepository
	holds     store.HoldStore
	holdTTL   time.Duration
	now       func() time.Time
}

func NewService(bookings store.BookingRepository, schedules store.ScheduleRepository, holds store.HoldStore, holdTTL time.Duration, now func() time.Time) *Service {
	if holdTTL <= 0 {
		holdTTL = 5 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		bookings:  bookings,
		schedules: schedules,
		holds:     holds,
		holdTTL:   holdTTL,
		now:       now,
	}
}

// GetAvailability assembles the occupied-interval snapshot for the date
// (bookings, blackout occurrences, active holds) and runs the pure slot
// generator over it. The result is only conflict-free against that
// snapshot; the booking commit path re-validates under the tenant lock.
func (s *Service) GetAvailability(ctx context.Context, tenantID, date string, durationMinutes int) ([]domain.TimeRange, error) {
	if tenantID == "" {
		return nil, validationError("tenant_id is required")
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, validationError("date must be formatted as YYYY-MM-DD")
	}

	schedule, err := s.schedules.GetSchedule(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return nil, validationError("invalid time_zone")
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Widen the fetch window so buffers around midnight-adjacent
	// bookings still land in the exclusion set.
	pad := time.Duration(schedule.BufferMinutes)*time.Minute + domain.MaxSlotDurationMinutes*time.Minute
	occupied, err := s.bookings.ListOccupied(ctx, tenantID, dayStart.Add(-pad), dayEnd.Add(pad), loc)
	if err != nil {
		return nil, err
	}
	if s.holds != nil {
		held, err := s.holds.ListActive(ctx, tenantID, dayStart.Add(-pad), dayEnd.Add(pad))
		if err != nil {
			return nil, err
		}
		occupied = append(occupied, held...)
	}

	return domain.GenerateSlots(domain.SlotRequest{
		Date:            day,
		DurationMinutes: durationMinutes,
		Hours:           schedule.WorkingHours(),
		Occupied:        occupied,
		Now:             s.now(),
	})
}

// ExpandRule materializes a recurrence rule into calendar dates. Pure
// except for start-date parsing; malformed rule fields are normalized by
// the expander rather than rejected.
func (s *Service) ExpandRule(start string, rule domain.RecurrenceRule) ([]time.Time, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, validationError("start_date must be formatted as YYYY-MM-DD")
	}
	return domain.ExpandRecurrence(startDate, rule), nil
}

type CreateBookingInput struct {
	TenantID       string
	CustomerID     string
	Notes          string
	StartTime      time.Time
	EndTime        time.Time
	IdempotencyKey string
}

func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	if in.TenantID == "" {
		return domain.Booking{}, validationError("tenant_id is required")
	}
	if in.CustomerID == "" {
		return domain.Booking{}, validationError("customer_id is required")
	}

	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if end.Equal(start) || end.Before(start) {
		return domain.Booking{}, validationError("end_time must be after start_time")
	}
	if end.Sub(start) > 24*time.Hour {
		return domain.Booking{}, validationError("duration too long")
	}

	booking := domain.Booking{
		TenantID:   in.TenantID,
		CustomerID: in.CustomerID,
		Notes:      in.Notes,
		StartTime:  start,
		EndTime:    end,
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > 256 {
			return domain.Booking{}, validationError("idempotency_key too long")
		}
		booking.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("bookable:create_booking:"+in.TenantID+":"+key))
	}

	return s.bookings.Create(ctx, booking)
}

func (s *Service) ListBookings(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	if tenantID == "" {
		return nil, validationError("tenant_id is required")
	}

	start := windowStart.UTC()
	end := windowEnd.UTC()
	if end.Equal(start) || end.Before(start) {
		return nil, validationError("window_end must be after window_start")
	}

	return s.bookings.List(ctx, tenantID, start, end)
}

func (s *Service) DeleteBooking(ctx context.Context, tenantID string, bookingID uuid.UUID) error {
	if tenantID == "" {
		return validationError("tenant_id is required")
	}
	if bookingID == uuid.Nil {
		return validationError("booking_id is required")
	}
	return s.bookings.Delete(ctx, tenantID, bookingID)
}

type CreateBlackoutInput struct {
	TenantID    string
	Reason      string
	StartDate   string
	StartMinute int
	EndMinute   int
	Rule        domain.RecurrenceRule
}

func (s *Service) CreateBlackout(ctx context.Context, in CreateBlackoutInput) (domain.BlackoutSeries, error) {
	if in.TenantID == "" {
		return domain.BlackoutSeries{}, validationError("tenant_id is required")
	}
	startDate, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return domain.BlackoutSeries{}, validationError("start_date must be formatted as YYYY-MM-DD")
	}
	if in.StartMinute < 0 || in.EndMinute > 24*60 || in.EndMinute <= in.StartMinute {
		return domain.BlackoutSeries{}, validationError("start_minute and end_minute must describe a span within the day")
	}

	days := make([]int16, 0, len(in.Rule.DaysOfWeek))
	for _, wd := range in.Rule.DaysOfWeek {
		days = append(days, int16(wd))
	}

	series := domain.BlackoutSeries{
		TenantID:         in.TenantID,
		Reason:           in.Reason,
		StartDate:        domain.NormalizeDate(startDate),
		StartMinute:      in.StartMinute,
		EndMinute:        in.EndMinute,
		Frequency:        in.Rule.Frequency,
		Interval:         in.Rule.Interval,
		DaysOfWeek:       days,
		MonthlyMode:      in.Rule.MonthlyMode,
		AfterOccurrences: in.Rule.AfterOccurrences,
		OnDate:           in.Rule.OnDate,
	}

	return s.bookings.CreateBlackoutSeries(ctx, series)
}

type PlaceHoldInput struct {
	TenantID  string
	StartTime time.Time
	EndTime   time.Time
}

func (s *Service) PlaceHold(ctx context.Context, in PlaceHoldInput) error {
	if s.holds == nil {
		return validationError("holds are not enabled")
	}
	if in.TenantID == "" {
		return validationError("tenant_id is required")
	}
	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if end.Equal(start) || end.Before(start) {
		return validationError("end_time must be after start_time")
	}
	return s.holds.Place(ctx, store.Hold{
		TenantID: in.TenantID,
		Span:     domain.TimeRange{Start: start, End: end},
	}, s.holdTTL)
}

// ReleaseHold frees a held slot before its TTL runs out, so an abandoned
// checkout does not block the slot for the full hold window.
func (s *Service) ReleaseHold(ctx context.Context, in PlaceHoldInput) error {
	if s.holds == nil {
		return validationError("holds are not enabled")
	}
	if in.TenantID == "" {
		return validationError("tenant_id is required")
	}
	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if end.Equal(start) || end.Before(start) {
		return validationError("end_time must be after start_time")
	}
	return s.holds.Release(ctx, store.Hold{
		TenantID: in.TenantID,
		Span:     domain.TimeRange{Start: start, End: end},
	})
}

type UpsertScheduleInput struct {
	TenantID               string
	Timezone               string
	Weekly                 [7][]domain.OpenInterval
	SlotGranularityMinutes int
	MinimumNoticeMinutes   int
	BufferMinutes          int
	LookaheadDays          int
}

func (s *Service) UpsertSchedule(ctx context.Context, in UpsertScheduleInput) (domain.TenantSchedule, error) {
	if in.TenantID == "" {
		return domain.TenantSchedule{}, validationError("tenant_id is required")
	}
	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		return domain.TenantSchedule{}, validationError("time_zone is required")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return domain.TenantSchedule{}, validationError("invalid time_zone")
	}
	for _, day := range in.Weekly {
		for _, window := range day {
			if window.StartMinute < 0 || window.EndMinute > 24*60 || window.EndMinute <= window.StartMinute {
				return domain.TenantSchedule{}, validationError("open intervals must describe spans within the day")
			}
		}
	}
	if in.SlotGranularityMinutes < 0 || in.MinimumNoticeMinutes < 0 || in.BufferMinutes < 0 || in.LookaheadDays < 0 {
		return domain.TenantSchedule{}, validationError("schedule durations must not be negative")
	}

	return s.schedules.UpsertSchedule(ctx, domain.TenantSchedule{
		TenantID:               in.TenantID,
		Timezone:               tz,
		Weekly:                 in.Weekly,
		SlotGranularityMinutes: in.SlotGranularityMinutes,
		MinimumNoticeMinutes:   in.MinimumNoticeMinutes,
		BufferMinutes:          in.BufferMinutes,
		LookaheadDays:          in.LookaheadDays,
	})
}
