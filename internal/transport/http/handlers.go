package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookable/backend/internal/domain"
	"bookable/backend/internal/service/scheduling"
)

const (
	dateLayout = "2006-01-02"
)

type slotPayload struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type availabilityResponse struct {
	TenantID        string        `json:"tenant_id"`
	Date            string        `json:"date"`
	DurationMinutes int           `json:"duration_minutes"`
	Slots           []slotPayload `json:"slots"`
}

func (s *Server) handleGetAvailability(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("route", "GetAvailability"))
	tenantID := r.PathValue("tenant_id")
	date := r.URL.Query().Get("date")

	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_duration"), slog.String("tenant_id", tenantID))
		s.writeError(w, http.StatusBadRequest, "duration must be an integer number of minutes")
		return
	}

	slots, err := s.svc.GetAvailability(r.Context(), tenantID, date, duration)
	if err != nil {
		s.handleServiceError(w, log.With(slog.String("tenant_id", tenantID)), err)
		return
	}

	out := make([]slotPayload, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotPayload{StartTime: slot.Start, EndTime: slot.End})
	}

	log.Info("availability computed",
		slog.String("tenant_id", tenantID),
		slog.String("date", date),
		slog.Int("slots", len(out)),
	)
	s.writeJSON(w, http.StatusOK, availabilityResponse{
		TenantID:        tenantID,
		Date:            date,
		DurationMinutes: duration,
		Slots:           out,
	})
}

type recurrenceEndPayload struct {
	AfterOccurrences *int    `json:"afterOccurrences,omitempty"`
	OnDate           *string `json:"onDate,omitempty"`
}

type recurrenceRulePayload struct {
	Frequency   string               `json:"frequency"`
	Interval    int                  `json:"interval"`
	DaysOfWeek  []int                `json:"daysOfWeek,omitempty"`
	MonthlyMode string               `json:"monthlyMode,omitempty"`
	End         recurrenceEndPayload `json:"end"`
}

func (p recurrenceRulePayload) toDomain() (domain.RecurrenceRule, bool) {
	rule := domain.RecurrenceRule{
		Frequency:        domain.Frequency(p.Frequency),
		Interval:         p.Interval,
		DaysOfWeek:       p.DaysOfWeek,
		MonthlyMode:      domain.MonthlyMode(p.MonthlyMode),
		AfterOccurrences: p.End.AfterOccurrences,
	}
	if p.End.OnDate != nil {
		d, err := time.Parse(dateLayout, *p.End.OnDate)
		if err != nil {
			return domain.RecurrenceRule{}, false
		}
		rule.OnDate = &d
	}
	return rule, true
}

type expandRecurrenceRequest struct {
	StartDate string                `json:"start_date"`
	Rule      recurrenceRulePayload `json:"rule"`
}

type expandRecurrenceResponse struct {
	Dates []string `json:"dates"`
}

func (s *Server) handleExpandRecurrence(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("route", "ExpandRecurrence"))

	var req expandRecurrenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"))
		s.writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}
	rule, ok := req.Rule.toDomain()
	if !ok {
		log.Warn("invalid request", slog.String("reason", "bad_on_date"))
		s.writeError(w, http.StatusBadRequest, "end.onDate must be formatted as YYYY-MM-DD")
		return
	}

	dates, err := s.svc.ExpandRule(req.StartDate, rule)
	if err != nil {
		s.handleServiceError(w, log, err)
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(dateLayout))
	}
	s.writeJSON(w, http.StatusOK, expandRecurrenceResponse{Dates: out})
}

type createBookingRequest struct {
	CustomerID string    `json:"customer_id"`
	Notes      string    `json:"notes"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

type bookingPayload struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	CustomerID string    `json:"customer_id"`
	Notes      string    `json:"notes,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	log := s.log.With(slog.String("route", "CreateBooking"), slog.String("tenant_id", tenantID))

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"))
		s.writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		log.Warn("invalid request", slog.String("reason", "missing_times"))
		s.writeError(w, http.StatusBadRequest, "start_time and end_time are required")
		return
	}

	booking, err := s.svc.CreateBooking(r.Context(), scheduling.CreateBookingInput{
		TenantID:       tenantID,
		CustomerID:     req.CustomerID,
		Notes:          req.Notes,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	})
	if err != nil {
		s.handleServiceError(w, log, err)
		return
	}

	log.Info("booking created",
		slog.String("booking_id", booking.ID.String()),
		slog.Time("start_time", booking.StartTime),
		slog.Time("end_time", booking.EndTime),
	)
	s.writeJSON(w, http.StatusCreated, bookingPayload{
		ID:         booking.ID.String(),
		TenantID:   booking.TenantID,
		CustomerID: booking.CustomerID,
		Notes:      booking.Notes,
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
	})
}

type listBookingsResponse struct {
	TenantID string           `json:"tenant_id"`
	Bookings []bookingPayload `json:"bookings"`
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	log := s.log.With(slog.String("route", "ListBookings"), slog.String("tenant_id", tenantID))

	windowStart, err := time.Parse(time.RFC3339, r.URL.Query().Get("window_start"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_window_start"))
		s.writeError(w, http.StatusBadRequest, "window_start must be an RFC 3339 timestamp")
		return
	}
	windowEnd, err := time.Parse(time.RFC3339, r.URL.Query().Get("window_end"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_window_end"))
		s.writeError(w, http.StatusBadRequest, "window_end must be an RFC 3339 timestamp")
		return
	}

	bookings, err := s.svc.ListBookings(r.Context(), tenantID, windowStart, windowEnd)
	if err != nil {
		s.handleServiceError(w, log, err)
		return
	}

	out := make([]bookingPayload, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingPayload{
			ID:         b.ID.String(),
			TenantID:   b.TenantID,
			CustomerID: b.CustomerID,
			Notes:      b.Notes,
			StartTime:  b.StartTime,
			EndTime:    b.EndTime,
		})
	}
	s.writeJSON(w, http.StatusOK, listBookingsResponse{TenantID: tenantID, Bookings: out})
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	log := s.log.With(slog.String("route", "DeleteBooking"), slog.String("tenant_id", tenantID))

	bookingID, err := uuid.Parse(r.PathValue("booking_id"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_booking_id"))
		s.writeError(w, http.StatusBadRequest, "booking_id must be a UUID")
		return
	}

	if err := s.svc.DeleteBooking(r.Context(), tenantID, bookingID); err != nil {
		s.handleServiceError(w, log, err)
		return
	}

	log.Info("booking deleted", slog.String("booking_id", bookingID.String()))
	w.WriteHeader(http.StatusNoContent)
}

type createBlackoutRequest struct {
	Reason      string                `json:"reason"`
	StartDate   string                `json:"start_date"`
	StartMinute int                   `json:"start_minute"`
	EndMinute   int                   `json:"end_minute"`
	Rule        recurrenceRulePayload `json:"rule"`
}

type blackoutPayload struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Reason    string `json:"reason,omitempty"`
	StartDate string `json:"start_date"`
}

func (s *Server) handleCreateBlackout(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	log := s.log.With(slog.String("route", "CreateBlackout"), slog.String("tenant_id", tenantID))

	var req createBlackoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"))
		s.writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}
	rule, ok := req.Rule.toDomain()
	if !ok {
		log.Warn("invalid request", slog.String("reason", "bad_on_date"))
		s.writeError(w, http.StatusBadRequest, "end.onDate must be formatted as YYYY-MM-DD")
		return
	}

	series, err := s.svc.CreateBlackout(r.Context(), scheduling.CreateBlackoutInput{
		TenantID:    tenantID,
		Reason:      req.Reason,
		StartDate:   req.StartDate,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		Rule:        rule,
	})
	if err != nil {
		s.handleServiceError(w, log, err)
		return
	}

	log.Info("blackout series created", slog.String("series_id", series.ID.String()))
	s.writeJSON(w, http.StatusCreated, blackoutPayload{
		ID:        series.ID.String(),
		TenantID:  series.TenantID,
		Reason:    series.Reason,
		StartDate: series.StartDate.Format(dateLayout),
	})
}

type placeHoldRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (s *Server) handlePlaceHold(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	log := s.log.With(slog.String("route", "PlaceHold"), slog.String("tenant_id", tenantID))

	var req placeHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"))
		s.writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	err := s.svc.PlaceHold(r.Context(), scheduling.PlaceHoldInput{
		TenantID:  tenantID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		s.handleServiceError(w, log, err)
		return
	}

	log.Info("hold placed", slog.Time("start_time", req.StartTime), slog.Time("end_time", req.EndTime))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReleaseHold(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	log := s.log.With(slog.String("route", "ReleaseHold"), slog.String("tenant_id", tenantID))

	var req placeHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"))
		s.writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	err := s.svc.ReleaseHold(r.Context(), scheduling.PlaceHoldInput{
		TenantID:  tenantID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		s.handleServiceError(w, log, err)
		return
	}

	log.Info("hold released", slog.Time("start_time", req.StartTime), slog.Time("end_time", req.EndTime))
	w.WriteHeader(http.StatusNoContent)
}

type upsertScheduleRequest struct {
	Timezone               string                   `json:"timezone"`
	Weekly                 [7][]domain.OpenInterval `json:"weekly"`
	SlotGranularityMinutes int                      `json:"slot_granularity_minutes"`
	MinimumNoticeMinutes   int                      `json:"minimum_notice_minutes"`
	BufferMinutes          int                      `json:"buffer_minutes"`
	LookaheadDays          int                      `json:"lookahead_days"`
}

type schedulePayload struct {
	TenantID               string                   `json:"tenant_id"`
	Timezone               string                   `json:"timezone"`
	Weekly                 [7][]domain.OpenInterval `json:"weekly"`
	SlotGranularityMinutes int                      `json:"slot_granularity_minutes"`
	MinimumNoticeMinutes   int                      `json:"minimum_notice_minutes"`
	BufferMinutes          int                      `json:"buffer_minutes"`
	LookaheadDays          int                      `json:"lookahead_days"`
}

func (s *Server) handleUpsertSchedule(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	log := s.log.With(slog.String("route", "UpsertSchedule"), slog.String("tenant_id", tenantID))

	var req upsertScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_body"))
		s.writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	schedule, err := s.svc.UpsertSchedule(r.Context(), scheduling.UpsertScheduleInput{
		TenantID:               tenantID,
		Timezone:               req.Timezone,
		Weekly:                 req.Weekly,
		SlotGranularityMinutes: req.SlotGranularityMinutes,
		MinimumNoticeMinutes:   req.MinimumNoticeMinutes,
		BufferMinutes:          req.BufferMinutes,
		LookaheadDays:          req.LookaheadDays,
	})
	if err != nil {
		s.handleServiceError(w, log, err)
		return
	}

	log.Info("schedule upserted")
	s.writeJSON(w, http.StatusOK, schedulePayload{
		TenantID:               schedule.TenantID,
		Timezone:               schedule.Timezone,
		Weekly:                 schedule.Weekly,
		SlotGranularityMinutes: schedule.SlotGranularityMinutes,
		MinimumNoticeMinutes:   schedule.MinimumNoticeMinutes,
		BufferMinutes:          schedule.BufferMinutes,
		LookaheadDays:          schedule.LookaheadDays,
	})
}
