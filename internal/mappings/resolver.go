package mappings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/config"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
)

// ResultKind tags how a supplier identity was resolved.
type ResultKind string

const (
	// ResultActive means a trusted stored mapping was found.
	ResultActive ResultKind = "active"
	// ResultGenericFallback means no active mapping exists and the configured
	// placeholder supplier was projected at read time. Never persisted.
	ResultGenericFallback ResultKind = "generic_fallback"
)

// Result is the outcome of a supplier resolution. The Kind tag keeps callers
// from confusing a real mapping with the synthetic fallback.
type Result struct {
	Kind    ResultKind
	Mapping models.GiavMapping
}

// IsGeneric reports whether the result is the synthetic fallback supplier.
func (r Result) IsGeneric() bool {
	return r.Kind == ResultGenericFallback
}

// SupplierID returns the resolved GIAV supplier identity.
func (r Result) SupplierID() string {
	return r.Mapping.GiavEntityID
}

// ResolverParams groups dependencies for the supplier resolver.
type ResolverParams struct {
	Repo *Repository
	Giav config.GiavConfig
}

// Resolver resolves internal catalog objects to GIAV supplier identities.
type Resolver interface {
	ResolveSupplier(ctx context.Context, objectType string, objectID uuid.UUID) (Result, error)
}

type resolver struct {
	repo *Repository
	giav config.GiavConfig
}

// NewResolver builds a supplier resolver with the required dependencies.
func NewResolver(params ResolverParams) (Resolver, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mapping repo is required")
	}
	if params.Giav.DefaultSupplierID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default supplier id is required")
	}
	return &resolver{repo: params.Repo, giav: params.Giav}, nil
}

// ResolveSupplier returns the active mapping verbatim when one exists, and the
// generic placeholder otherwise. The placeholder is flagged needs_review and
// auto_generic so downstream preflight can surface it to an operator.
func (r *resolver) ResolveSupplier(ctx context.Context, objectType string, objectID uuid.UUID) (Result, error) {
	if objectType == "" || objectID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "object reference is required")
	}

	row, err := r.repo.FindActiveByObject(ctx, objectType, objectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.genericFallback(objectType, objectID), nil
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier mapping")
	}

	return Result{Kind: ResultActive, Mapping: *row}, nil
}

func (r *resolver) genericFallback(objectType string, objectID uuid.UUID) Result {
	return Result{
		Kind: ResultGenericFallback,
		Mapping: models.GiavMapping{
			ObjectType:     objectType,
			ObjectID:       objectID,
			GiavEntityType: "proveedor",
			GiavEntityID:   r.giav.DefaultSupplierID,
			DisplayName:    "Proveedor genérico",
			Status:         enums.MappingStatusNeedsReview,
			MatchType:      enums.MatchTypeAutoGeneric,
		},
	}
}
