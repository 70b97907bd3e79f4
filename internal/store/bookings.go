package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookable/backend/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	List(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	Delete(ctx context.Context, tenantID string, bookingID uuid.UUID) error

	CreateBlackoutSeries(ctx context.Context, series domain.BlackoutSeries) (domain.BlackoutSeries, error)

	// ListOccupied returns the union of booking spans and expanded
	// blackout spans overlapping the window, ordered by start time.
	ListOccupied(ctx context.Context, tenantID string, windowStart, windowEnd time.Time, loc *time.Location) ([]domain.TimeRange, error)
}

type ScheduleRepository interface {
	GetSchedule(ctx context.Context, tenantID string) (domain.TenantSchedule, error)
	UpsertSchedule(ctx context.Context, schedule domain.TenantSchedule) (domain.TenantSchedule, error)
}
