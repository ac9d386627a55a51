package payloads

import (
	"time"

	"github.com/google/uuid"
)

// ProposalAcceptedEvent is emitted when a client accepts the current version.
type ProposalAcceptedEvent struct {
	ProposalID uuid.UUID `json:"proposal_id"`
	VersionID  uuid.UUID `json:"version_id"`
	FullName   string    `json:"full_name"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// SyncRequestedEvent tells the sync worker to push a version to GIAV.
type SyncRequestedEvent struct {
	ProposalID uuid.UUID `json:"proposal_id"`
	VersionID  uuid.UUID `json:"version_id"`
	Requested  time.Time `json:"requested_at"`
	Retry      bool      `json:"retry,omitempty"`
}
