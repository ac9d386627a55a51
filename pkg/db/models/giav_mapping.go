package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
)

// GiavMapping binds one internal catalog object to a GIAV supplier entity.
// At most one mapping exists per (object_type, object_id); the absence of an
// active mapping is a valid state resolved at read time through the generic
// fallback, never persisted automatically.
type GiavMapping struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ObjectType string    `gorm:"column:object_type;not null;uniqueIndex:ux_giav_mappings_object"`
	ObjectID   uuid.UUID `gorm:"column:object_id;type:uuid;not null;uniqueIndex:ux_giav_mappings_object"`

	GiavEntityType string `gorm:"column:giav_entity_type;not null"`
	GiavEntityID   string `gorm:"column:giav_entity_id;not null"`
	DisplayName    string `gorm:"column:display_name;not null"`

	Status    enums.MappingStatus    `gorm:"column:status;type:text;not null;default:'active'"`
	MatchType enums.MappingMatchType `gorm:"column:match_type;type:text;not null;default:'manual'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
