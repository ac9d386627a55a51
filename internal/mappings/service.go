package mappings

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mvidalgarcia/golfviajes-backend/internal/audit"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

// UpsertInput carries an operator-provided mapping.
type UpsertInput struct {
	ObjectType     string
	ObjectID       uuid.UUID
	GiavEntityType string
	GiavEntityID   string
	DisplayName    string
	Status         enums.MappingStatus
	MatchType      enums.MappingMatchType
	ActorID        string
}

// ServiceParams groups dependencies for the mapping service.
type ServiceParams struct {
	Repo  *Repository
	Audit audit.Service
}

// Service exposes the administrative mapping surface.
type Service interface {
	Upsert(ctx context.Context, input UpsertInput) (*models.GiavMapping, error)
	List(ctx context.Context, objectType string, status enums.MappingStatus, limit int) ([]models.GiavMapping, error)
}

type service struct {
	repo  *Repository
	audit audit.Service
}

// NewService builds a mapping service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mapping repo is required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "audit service is required")
	}
	return &service{repo: params.Repo, audit: params.Audit}, nil
}

// Upsert writes one mapping and records who changed it.
func (s *service) Upsert(ctx context.Context, input UpsertInput) (*models.GiavMapping, error) {
	if strings.TrimSpace(input.ObjectType) == "" || input.ObjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "object reference is required")
	}
	if strings.TrimSpace(input.GiavEntityID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "giav entity id is required")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}
	status := input.Status
	if status == "" {
		status = enums.MappingStatusActive
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid mapping status")
	}
	matchType := input.MatchType
	if matchType == "" {
		matchType = enums.MatchTypeManual
	}
	if !matchType.IsValid() || matchType == enums.MatchTypeAutoGeneric {
		// auto_generic is a read-time projection, operators cannot store it.
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid mapping match type")
	}

	entityType := strings.TrimSpace(input.GiavEntityType)
	if entityType == "" {
		entityType = "proveedor"
	}

	row := &models.GiavMapping{
		ObjectType:     strings.TrimSpace(input.ObjectType),
		ObjectID:       input.ObjectID,
		GiavEntityType: entityType,
		GiavEntityID:   strings.TrimSpace(input.GiavEntityID),
		DisplayName:    strings.TrimSpace(input.DisplayName),
		Status:         status,
		MatchType:      matchType,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert supplier mapping")
	}

	if err := s.audit.Record(ctx, nil, audit.Entry{
		ActorKind:  enums.ActorKindAdmin,
		ActorID:    input.ActorID,
		Action:     enums.AuditActionMappingUpserted,
		EntityType: "giav_mapping",
		EntityID:   row.ObjectID,
		Metadata: types.JSONMap{
			"object_type":    row.ObjectType,
			"giav_entity_id": row.GiavEntityID,
			"status":         row.Status.String(),
			"match_type":     row.MatchType.String(),
		},
	}); err != nil {
		return nil, err
	}
	return row, nil
}

// List returns stored mappings for the admin review screen.
func (s *service) List(ctx context.Context, objectType string, status enums.MappingStatus, limit int) ([]models.GiavMapping, error) {
	return s.repo.List(ctx, objectType, status, limit)
}
