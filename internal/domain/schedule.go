package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// TenantSchedule is the persisted working-hours configuration for one
// tenant. Weekly open intervals are stored as jsonb.
type TenantSchedule struct {
	bun.BaseModel `bun:"table:tenant_schedules"`

	TenantID               string            `bun:"tenant_id,pk"`
	Timezone               string            `bun:"timezone,notnull"`
	Weekly                 [7][]OpenInterval `bun:"weekly,type:jsonb,notnull"`
	SlotGranularityMinutes int               `bun:"slot_granularity_minutes,notnull"`
	MinimumNoticeMinutes   int               `bun:"minimum_notice_minutes,notnull"`
	BufferMinutes          int               `bun:"buffer_minutes,notnull"`
	LookaheadDays          int               `bun:"lookahead_days,notnull"`
	CreatedAt              time.Time         `bun:"created_at,notnull"`
	UpdatedAt              time.Time         `bun:"updated_at,notnull"`
}

func (s *TenantSchedule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

func (s *TenantSchedule) WorkingHours() WorkingHours {
	return WorkingHours{
		Timezone:               s.Timezone,
		Weekly:                 s.Weekly,
		SlotGranularityMinutes: s.SlotGranularityMinutes,
		MinimumNoticeMinutes:   s.MinimumNoticeMinutes,
		BufferMinutes:          s.BufferMinutes,
		LookaheadDays:          s.LookaheadDays,
	}
}
