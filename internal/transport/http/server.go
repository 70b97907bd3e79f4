package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"bookable/backend/internal/domain"
	"bookable/backend/internal/service/scheduling"
)

type Server struct {
	svc schedulingService
	log *slog.Logger
}

type schedulingService interface {
	GetAvailability(ctx context.Context, tenantID, date string, durationMinutes int) ([]domain.TimeRange, error)
	ExpandRule(start string, rule domain.RecurrenceRule) ([]time.Time, error)
	CreateBooking(ctx context.Context, in scheduling.CreateBookingInput) (domain.Booking, error)
	ListBookings(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, tenantID string, bookingID uuid.UUID) error
	CreateBlackout(ctx context.Context, in scheduling.CreateBlackoutInput) (domain.BlackoutSeries, error)
	PlaceHold(ctx context.Context, in scheduling.PlaceHoldInput) error
	ReleaseHold(ctx context.Context, in scheduling.PlaceHoldInput) error
	UpsertSchedule(ctx context.Context, in scheduling.UpsertScheduleInput) (domain.TenantSchedule, error)
}

func NewServer(svc schedulingService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		svc: svc,
		log: log.With(slog.String("component", "http.scheduling")),
	}
}

// Handler builds the routing table. Handlers are thin: parse, call the
// service, map errors to status codes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/tenants/{tenant_id}/availability", s.handleGetAvailability)
	mux.HandleFunc("POST /v1/recurrence/expand", s.handleExpandRecurrence)
	mux.HandleFunc("POST /v1/tenants/{tenant_id}/bookings", s.handleCreateBooking)
	mux.HandleFunc("GET /v1/tenants/{tenant_id}/bookings", s.handleListBookings)
	mux.HandleFunc("DELETE /v1/tenants/{tenant_id}/bookings/{booking_id}", s.handleDeleteBooking)
	mux.HandleFunc("POST /v1/tenants/{tenant_id}/blackouts", s.handleCreateBlackout)
	mux.HandleFunc("POST /v1/tenants/{tenant_id}/holds", s.handlePlaceHold)
	mux.HandleFunc("DELETE /v1/tenants/{tenant_id}/holds", s.handleReleaseHold)
	mux.HandleFunc("PUT /v1/tenants/{tenant_id}/schedule", s.handleUpsertSchedule)

	return requestLogger(s.log)(mux)
}

// NewHTTPServer wires the handler with a header-read timeout. Whole
// request deadlines are applied by the timeout handler in main.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
