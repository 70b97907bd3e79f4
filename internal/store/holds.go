package store

import (
	"context"
	"time"

	"bookable/backend/internal/domain"
)

// Hold is a short-lived slot reservation placed while a customer checks
// out. Holds expire on their own; they are never persisted past TTL.
type Hold struct {
	TenantID string
	Span     domain.TimeRange
}

type HoldStore interface {
	// Place writes the hold with the given TTL, failing with ErrConflict
	// when an identical hold already exists.
	Place(ctx context.Context, hold Hold, ttl time.Duration) error
	Release(ctx context.Context, hold Hold) error
	ListActive(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]domain.TimeRange, error)
}
