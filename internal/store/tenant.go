package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookable/backend/internal/domain"
)

// TenantTx is the set of storage operations available inside a
// per-tenant serialized transaction. Booking commits run under it so
// overlap validation and the insert observe the same snapshot.
type TenantTx interface {
	CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	ListBookings(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, tenantID string, bookingID uuid.UUID) error

	CreateBlackoutSeries(ctx context.Context, series domain.BlackoutSeries) (domain.BlackoutSeries, error)
	ListBlackoutSeries(ctx context.Context, tenantID string, windowEnd time.Time) ([]domain.BlackoutSeries, error)
}
