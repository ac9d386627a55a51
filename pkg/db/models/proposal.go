package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
)

// Proposal represents one customer-facing deal. Versions hang off it; the
// current/accepted pointers and the acceptance metadata implement the
// lifecycle invariants enforced by the proposals service.
type Proposal struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientName  string     `gorm:"column:client_name;not null"`
	ClientEmail string     `gorm:"column:client_email;not null"`
	ClientPhone *string    `gorm:"column:client_phone"`
	TripStart   *time.Time `gorm:"column:trip_start"`
	TripEnd     *time.Time `gorm:"column:trip_end"`
	Currency    string     `gorm:"column:currency;not null;default:'EUR'"`

	Status            enums.ProposalStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	CurrentVersionID  *uuid.UUID           `gorm:"column:current_version_id;type:uuid"`
	AcceptedVersionID *uuid.UUID           `gorm:"column:accepted_version_id;type:uuid"`

	AcceptedAt         *time.Time                `gorm:"column:accepted_at"`
	AcceptedActorKind  *enums.ActorKind          `gorm:"column:accepted_actor_kind;type:text"`
	AcceptedActorID    *string                   `gorm:"column:accepted_actor_id"`
	AcceptedFromIP     *string                   `gorm:"column:accepted_from_ip"`
	AcceptedFullName   *string                   `gorm:"column:accepted_full_name"`
	AcceptedDNI        *string                   `gorm:"column:accepted_dni"`
	ConfirmationStatus *enums.ConfirmationStatus `gorm:"column:confirmation_status;type:text"`

	GiavClientID     *string `gorm:"column:giav_client_id"`
	GiavExpedienteID *string `gorm:"column:giav_expediente_id"`
	GiavBookingID    *string `gorm:"column:giav_booking_id"`

	ExternalSyncStatus enums.ExternalSyncStatus `gorm:"column:external_sync_status;type:text;not null;default:'none'"`
	LastSyncError      *string                  `gorm:"column:last_sync_error"`
	LastSyncAt         *time.Time               `gorm:"column:last_sync_at"`

	Versions []ProposalVersion `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
