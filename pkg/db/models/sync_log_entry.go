package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
)

// SyncLogEntry records one GIAV synchronization attempt for a version. The
// payload hash lets operators spot duplicate attempts; raw request and
// response bodies are retained for diagnostics.
type SyncLogEntry struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VersionID     uuid.UUID `gorm:"column:version_id;type:uuid;not null;index"`
	AttemptNumber int       `gorm:"column:attempt_number;not null"`

	PayloadHash string          `gorm:"column:payload_hash;not null"`
	RawRequest  json.RawMessage `gorm:"column:raw_request;type:jsonb"`
	RawResponse json.RawMessage `gorm:"column:raw_response;type:jsonb"`

	Status       enums.VersionSyncStatus `gorm:"column:status;type:text;not null;default:'queued'"`
	ErrorMessage *string                 `gorm:"column:error_message"`

	StartedAt  time.Time  `gorm:"column:started_at;not null"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
}
