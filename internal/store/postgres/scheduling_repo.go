package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"bookable/backend/internal/domain"
	"bookable/backend/internal/store"
)

type SchedulingRepo struct {
	db *bun.DB
}

func NewSchedulingRepo(db *bun.DB) *SchedulingRepo {
	return &SchedulingRepo{db: db}
}

type tenantTx struct {
	tx bun.Tx
}

// Create commits a booking under the per-tenant lock, re-validating
// non-overlap against bookings and blackout spans inside the same
// transaction. Slot generation only guarantees correctness against the
// snapshot it was given; this is where the race between "offer a slot"
// and "book it" is actually closed.
func (r *SchedulingRepo) Create(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	var out domain.Booking
	err := r.InTenantTransaction(ctx, booking.TenantID, func(ctx context.Context, tx store.TenantTx) error {
		if err := ensureNoBookingConflicts(ctx, tx, r, booking); err != nil {
			return err
		}
		b, err := tx.CreateBooking(ctx, booking)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

type scheduleGetter interface {
	GetSchedule(ctx context.Context, tenantID string) (domain.TenantSchedule, error)
}

func ensureNoBookingConflicts(ctx context.Context, tx store.TenantTx, schedules scheduleGetter, booking domain.Booking) error {
	existing, err := tx.ListBookings(ctx, booking.TenantID, booking.StartTime, booking.EndTime)
	if err != nil {
		return err
	}
	for _, b := range existing {
		if b.ID != booking.ID && b.Range().Overlaps(booking.Range()) {
			return store.ErrConflict
		}
	}

	schedule, err := schedules.GetSchedule(ctx, booking.TenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return nil
	}

	series, err := tx.ListBlackoutSeries(ctx, booking.TenantID, booking.EndTime)
	if err != nil {
		return err
	}
	for _, s := range series {
		if len(s.BlockedRanges(booking.StartTime, booking.EndTime, loc)) > 0 {
			return store.ErrConflict
		}
	}
	return nil
}

func (r *SchedulingRepo) List(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("tenant_id = ?", tenantID).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) Delete(ctx context.Context, tenantID string, bookingID uuid.UUID) error {
	return r.InTenantTransaction(ctx, tenantID, func(ctx context.Context, tx store.TenantTx) error {
		return tx.DeleteBooking(ctx, tenantID, bookingID)
	})
}

func (r *SchedulingRepo) CreateBlackoutSeries(ctx context.Context, series domain.BlackoutSeries) (domain.BlackoutSeries, error) {
	var out domain.BlackoutSeries
	err := r.InTenantTransaction(ctx, series.TenantID, func(ctx context.Context, tx store.TenantTx) error {
		s, err := tx.CreateBlackoutSeries(ctx, series)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return domain.BlackoutSeries{}, err
	}
	return out, nil
}

func (r *SchedulingRepo) ListOccupied(ctx context.Context, tenantID string, windowStart, windowEnd time.Time, loc *time.Location) ([]domain.TimeRange, error) {
	var bookings []domain.Booking
	err := r.db.NewSelect().
		Model(&bookings).
		Where("tenant_id = ?", tenantID).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	var series []domain.BlackoutSeries
	err = r.db.NewSelect().
		Model(&series).
		Where("tenant_id = ?", tenantID).
		Where("start_date < ?", windowEnd).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return mergeOccupied(bookings, series, windowStart, windowEnd, loc), nil
}

// mergeOccupied flattens booking spans and expanded blackout spans into
// one ordered exclusion list for the window.
func mergeOccupied(bookings []domain.Booking, series []domain.BlackoutSeries, windowStart, windowEnd time.Time, loc *time.Location) []domain.TimeRange {
	window := domain.TimeRange{Start: windowStart, End: windowEnd}

	out := make([]domain.TimeRange, 0, len(bookings))
	for _, b := range bookings {
		if b.Range().Overlaps(window) {
			out = append(out, b.Range())
		}
	}
	for i := range series {
		out = append(out, series[i].BlockedRanges(windowStart, windowEnd, loc)...)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func (r *SchedulingRepo) GetSchedule(ctx context.Context, tenantID string) (domain.TenantSchedule, error) {
	var row domain.TenantSchedule
	err := r.db.NewSelect().
		Model(&row).
		Where("tenant_id = ?", tenantID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TenantSchedule{}, store.ErrNotFound
		}
		return domain.TenantSchedule{}, err
	}
	return row, nil
}

func (r *SchedulingRepo) UpsertSchedule(ctx context.Context, schedule domain.TenantSchedule) (domain.TenantSchedule, error) {
	_, err := r.db.NewInsert().
		Model(&schedule).
		On("CONFLICT (tenant_id) DO UPDATE").
		Set("timezone = EXCLUDED.timezone").
		Set("weekly = EXCLUDED.weekly").
		Set("slot_granularity_minutes = EXCLUDED.slot_granularity_minutes").
		Set("minimum_notice_minutes = EXCLUDED.minimum_notice_minutes").
		Set("buffer_minutes = EXCLUDED.buffer_minutes").
		Set("lookahead_days = EXCLUDED.lookahead_days").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.TenantSchedule{}, err
	}
	return schedule, nil
}

func (r *SchedulingRepo) InTenantTransaction(ctx context.Context, tenantID string, fn func(ctx context.Context, tx store.TenantTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTenantCalendar(ctx, tx, tenantID); err != nil {
			return err
		}
		return fn(ctx, tenantTx{tx: tx})
	})
}

func lockTenantCalendar(ctx context.Context, tx bun.Tx, tenantID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", tenantID).Exec(ctx)
	return err
}

func (t tenantTx) CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	m := booking

	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23P01" && pgErr.ConstraintName == "bookings_no_overlap" {
				return domain.Booking{}, store.ErrConflict
			}
			if pgErr.Code == "23505" {
				var existing domain.Booking
				selectErr := t.tx.NewSelect().
					Model(&existing).
					Where("id = ?", m.ID).
					Limit(1).
					Scan(ctx)
				if selectErr != nil {
					return domain.Booking{}, err
				}

				if existing.TenantID != booking.TenantID ||
					existing.CustomerID != booking.CustomerID ||
					existing.Notes != booking.Notes ||
					!existing.StartTime.Equal(booking.StartTime) ||
					!existing.EndTime.Equal(booking.EndTime) {
					return domain.Booking{}, store.ErrIdempotencyConflict
				}

				return existing, nil
			}
		}
		return domain.Booking{}, err
	}

	booking.ID = m.ID
	return booking, nil
}

func (t tenantTx) ListBookings(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := t.tx.NewSelect().
		Model(&rows).
		Where("tenant_id = ?", tenantID).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t tenantTx) DeleteBooking(ctx context.Context, tenantID string, bookingID uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.Booking)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("id = ?", bookingID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t tenantTx) CreateBlackoutSeries(ctx context.Context, series domain.BlackoutSeries) (domain.BlackoutSeries, error) {
	m := series
	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		return domain.BlackoutSeries{}, err
	}
	series.ID = m.ID
	return series, nil
}

func (t tenantTx) ListBlackoutSeries(ctx context.Context, tenantID string, windowEnd time.Time) ([]domain.BlackoutSeries, error) {
	var rows []domain.BlackoutSeries
	err := t.tx.NewSelect().
		Model(&rows).
		Where("tenant_id = ?", tenantID).
		Where("start_date < ?", windowEnd).
		OrderExpr("start_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
