package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

// AuditLogEntry is append-only: rows are never updated or deleted.
type AuditLogEntry struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorKind  enums.ActorKind   `gorm:"column:actor_kind;type:text;not null"`
	ActorID    *string           `gorm:"column:actor_id"`
	Action     enums.AuditAction `gorm:"column:action;not null;index"`
	EntityType string            `gorm:"column:entity_type;not null"`
	EntityID   uuid.UUID         `gorm:"column:entity_id;type:uuid;not null;index"`
	Metadata   types.JSONMap     `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
