package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

type proposalDTO struct {
	ID                 uuid.UUID  `json:"id"`
	ClientName         string     `json:"client_name"`
	ClientEmail        string     `json:"client_email,omitempty"`
	TripStart          *time.Time `json:"trip_start,omitempty"`
	TripEnd            *time.Time `json:"trip_end,omitempty"`
	Currency           string     `json:"currency"`
	Status             string     `json:"status"`
	CurrentVersionID   *uuid.UUID `json:"current_version_id,omitempty"`
	AcceptedVersionID  *uuid.UUID `json:"accepted_version_id,omitempty"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty"`
	AcceptedFullName   *string    `json:"accepted_full_name,omitempty"`
	ConfirmationStatus *string    `json:"confirmation_status,omitempty"`
	ExternalSyncStatus string     `json:"external_sync_status,omitempty"`
	LastSyncError      *string    `json:"last_sync_error,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type versionDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProposalID    uuid.UUID       `json:"proposal_id"`
	VersionNumber int             `json:"version_number"`
	Snapshot      types.Snapshot  `json:"snapshot"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalPVP      decimal.Decimal `json:"total_pvp"`
	MarginAbs     decimal.Decimal `json:"margin_abs"`
	MarginPct     decimal.Decimal `json:"margin_pct"`
	PublicToken   string          `json:"public_token,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	RevokedAt     *time.Time      `json:"revoked_at,omitempty"`
	ViewCount     int             `json:"view_count"`
	SyncStatus    string          `json:"giav_last_sync_status,omitempty"`
	GiavBookingID *string         `json:"giav_booking_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// publicVersionDTO strips pricing internals and sync state from the
// customer-facing view.
type publicVersionDTO struct {
	ID            uuid.UUID      `json:"id"`
	VersionNumber int            `json:"version_number"`
	Snapshot      types.Snapshot `json:"snapshot"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

type publicProposalDTO struct {
	ClientName       string     `json:"client_name"`
	TripStart        *time.Time `json:"trip_start,omitempty"`
	TripEnd          *time.Time `json:"trip_end,omitempty"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	AcceptedFullName *string    `json:"accepted_full_name,omitempty"`
}

func toProposalDTO(p *models.Proposal) proposalDTO {
	dto := proposalDTO{
		ID:                 p.ID,
		ClientName:         p.ClientName,
		ClientEmail:        p.ClientEmail,
		TripStart:          p.TripStart,
		TripEnd:            p.TripEnd,
		Currency:           p.Currency,
		Status:             string(p.Status),
		CurrentVersionID:   p.CurrentVersionID,
		AcceptedVersionID:  p.AcceptedVersionID,
		AcceptedAt:         p.AcceptedAt,
		AcceptedFullName:   p.AcceptedFullName,
		ExternalSyncStatus: string(p.ExternalSyncStatus),
		LastSyncError:      p.LastSyncError,
		CreatedAt:          p.CreatedAt,
	}
	if p.ConfirmationStatus != nil {
		status := string(*p.ConfirmationStatus)
		dto.ConfirmationStatus = &status
	}
	return dto
}

func toVersionDTO(v *models.ProposalVersion) versionDTO {
	return versionDTO{
		ID:            v.ID,
		ProposalID:    v.ProposalID,
		VersionNumber: v.VersionNumber,
		Snapshot:      v.Snapshot,
		TotalCost:     v.TotalCost,
		TotalPVP:      v.TotalPVP,
		MarginAbs:     v.MarginAbs,
		MarginPct:     v.MarginPct,
		PublicToken:   v.PublicToken,
		ExpiresAt:     v.ExpiresAt,
		RevokedAt:     v.RevokedAt,
		ViewCount:     v.ViewCount,
		SyncStatus:    string(v.GiavLastSyncStatus),
		GiavBookingID: v.GiavBookingID,
		CreatedAt:     v.CreatedAt,
	}
}

func toPublicVersionDTO(v *models.ProposalVersion) *publicVersionDTO {
	if v == nil {
		return nil
	}
	return &publicVersionDTO{
		ID:            v.ID,
		VersionNumber: v.VersionNumber,
		Snapshot:      v.Snapshot,
		ExpiresAt:     v.ExpiresAt,
		CreatedAt:     v.CreatedAt,
	}
}

func toPublicProposalDTO(p *models.Proposal) publicProposalDTO {
	return publicProposalDTO{
		ClientName:       p.ClientName,
		TripStart:        p.TripStart,
		TripEnd:          p.TripEnd,
		Currency:         p.Currency,
		Status:           string(p.Status),
		AcceptedAt:       p.AcceptedAt,
		AcceptedFullName: p.AcceptedFullName,
	}
}
