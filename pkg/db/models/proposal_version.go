package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

// ProposalVersion is an immutable, numbered snapshot of one proposal. The
// snapshot JSON never changes after creation; totals are cached off it for
// fast listing. GiavBookingID is set at most once and, once set, exempts the
// version from any further synchronization.
type ProposalVersion struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProposalID    uuid.UUID `gorm:"column:proposal_id;type:uuid;not null;uniqueIndex:ux_proposal_versions_number"`
	VersionNumber int       `gorm:"column:version_number;not null;uniqueIndex:ux_proposal_versions_number"`

	Snapshot types.Snapshot `gorm:"column:snapshot;type:jsonb;serializer:json;not null"`

	TotalCost decimal.Decimal `gorm:"column:total_cost;type:numeric(12,2);not null"`
	TotalPVP  decimal.Decimal `gorm:"column:total_pvp;type:numeric(12,2);not null"`
	MarginAbs decimal.Decimal `gorm:"column:margin_abs;type:numeric(12,2);not null"`
	MarginPct decimal.Decimal `gorm:"column:margin_pct;type:numeric(6,2);not null"`

	PublicToken string     `gorm:"column:public_token;not null;uniqueIndex:ux_proposal_versions_token"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	RevokedAt   *time.Time `gorm:"column:revoked_at"`
	ViewCount   int        `gorm:"column:view_count;not null;default:0"`

	GiavLastSyncStatus enums.VersionSyncStatus `gorm:"column:giav_last_sync_status;type:text;not null;default:'never'"`
	GiavBookingID      *string                 `gorm:"column:giav_booking_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsSynced reports whether a booking already exists for this version; a
// synced version is never sent through the remote booking call again.
func (v ProposalVersion) IsSynced() bool {
	return v.GiavBookingID != nil && *v.GiavBookingID != ""
}

// IsAvailableAt reports whether the version can still be served through its
// public token at the given instant.
func (v ProposalVersion) IsAvailableAt(now time.Time) bool {
	if v.RevokedAt != nil {
		return false
	}
	if v.ExpiresAt != nil && now.After(*v.ExpiresAt) {
		return false
	}
	return true
}
