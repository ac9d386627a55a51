package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

// Entry describes one audit event to record.
type Entry struct {
	ActorKind  enums.ActorKind
	ActorID    string
	Action     enums.AuditAction
	EntityType string
	EntityID   uuid.UUID
	Metadata   types.JSONMap
}

// ServiceParams groups dependencies for the audit service.
type ServiceParams struct {
	Repo *Repository
}

// Service records and reads the append-only audit trail.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	Trail(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]models.AuditLogEntry, error)
}

type service struct {
	repo *Repository
}

// NewService builds an audit service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "audit repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// Record appends one audit row. Callers inside a transaction pass it so the
// audit entry commits or rolls back with the change it describes.
func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if !entry.ActorKind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor kind is required")
	}
	if entry.Action == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit action is required")
	}
	if entry.EntityType == "" || entry.EntityID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit entity reference is required")
	}

	row := models.AuditLogEntry{
		ActorKind:  entry.ActorKind,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   entry.Metadata,
	}
	if entry.ActorID != "" {
		actorID := entry.ActorID
		row.ActorID = &actorID
	}
	return s.repo.Insert(ctx, tx, row)
}

// Trail returns the newest audit entries for an entity.
func (s *service) Trail(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]models.AuditLogEntry, error) {
	if entityType == "" || entityID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "audit entity reference is required")
	}
	return s.repo.ListForEntity(ctx, entityType, entityID, limit)
}
