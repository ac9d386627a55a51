package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mvidalgarcia/golfviajes-backend/api/responses"
	"github.com/mvidalgarcia/golfviajes-backend/api/validators"
	"github.com/mvidalgarcia/golfviajes-backend/internal/mappings"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
)

type upsertMappingPayload struct {
	ObjectType     string `json:"object_type" validate:"required,min=2,max=50"`
	ObjectID       string `json:"object_id" validate:"required,uuid4"`
	GiavEntityType string `json:"giav_entity_type" validate:"required,min=2,max=50"`
	GiavEntityID   string `json:"giav_entity_id" validate:"required,min=1,max=100"`
	DisplayName    string `json:"display_name" validate:"required,min=1,max=200"`
	Status         string `json:"status,omitempty"`
	MatchType      string `json:"match_type,omitempty"`
}

type mappingDTO struct {
	ID             uuid.UUID `json:"id"`
	ObjectType     string    `json:"object_type"`
	ObjectID       uuid.UUID `json:"object_id"`
	GiavEntityType string    `json:"giav_entity_type"`
	GiavEntityID   string    `json:"giav_entity_id"`
	DisplayName    string    `json:"display_name"`
	Status         string    `json:"status"`
	MatchType      string    `json:"match_type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toMappingDTO(m *models.GiavMapping) mappingDTO {
	return mappingDTO{
		ID:             m.ID,
		ObjectType:     m.ObjectType,
		ObjectID:       m.ObjectID,
		GiavEntityType: m.GiavEntityType,
		GiavEntityID:   m.GiavEntityID,
		DisplayName:    m.DisplayName,
		Status:         string(m.Status),
		MatchType:      string(m.MatchType),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type resolutionDTO struct {
	Kind       string      `json:"kind"`
	SupplierID string      `json:"supplier_id"`
	Mapping    *mappingDTO `json:"mapping,omitempty"`
}

// MappingUpsert creates or replaces the supplier mapping for one object.
func MappingUpsert(svc mappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mappings service unavailable"))
			return
		}

		var payload upsertMappingPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		objectID, err := uuid.Parse(payload.ObjectID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid object id"))
			return
		}

		mapping, err := svc.Upsert(ctx, mappings.UpsertInput{
			ObjectType:     payload.ObjectType,
			ObjectID:       objectID,
			GiavEntityType: payload.GiavEntityType,
			GiavEntityID:   payload.GiavEntityID,
			DisplayName:    payload.DisplayName,
			Status:         enums.MappingStatus(payload.Status),
			MatchType:      enums.MappingMatchType(payload.MatchType),
			ActorID:        adminActorID(r),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toMappingDTO(mapping))
	}
}

// MappingList returns stored mappings, optionally filtered by object type
// and status.
func MappingList(svc mappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mappings service unavailable"))
			return
		}

		objectType := strings.TrimSpace(r.URL.Query().Get("object_type"))
		status := enums.MappingStatus(strings.TrimSpace(r.URL.Query().Get("status")))

		rows, err := svc.List(ctx, objectType, status, 0)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]mappingDTO, 0, len(rows))
		for i := range rows {
			out = append(out, toMappingDTO(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// MappingResolvePreview reports which supplier identity a catalog object
// would resolve to right now, including the generic fallback case.
func MappingResolvePreview(resolver mappings.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if resolver == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping resolver unavailable"))
			return
		}

		objectType := strings.TrimSpace(r.URL.Query().Get("object_type"))
		rawID := strings.TrimSpace(r.URL.Query().Get("object_id"))
		if objectType == "" || rawID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "object_type and object_id are required"))
			return
		}
		objectID, err := uuid.Parse(rawID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid object id"))
			return
		}

		result, err := resolver.ResolveSupplier(ctx, objectType, objectID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto := resolutionDTO{Kind: string(result.Kind), SupplierID: result.SupplierID()}
		if !result.IsGeneric() {
			mapped := toMappingDTO(&result.Mapping)
			dto.Mapping = &mapped
		}
		responses.WriteSuccess(w, dto)
	}
}

// adminActorID reads the operator identity header set by the reverse proxy.
// Empty is acceptable; the audit trail then records the system actor.
func adminActorID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Admin-User"))
}
