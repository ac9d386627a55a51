package mappings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mvidalgarcia/golfviajes-backend/internal/repo"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
)

// Repository encapsulates GIAV mapping persistence.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a mapping repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// FindByObject returns the mapping for one internal object, mapped or not.
func (r *Repository) FindByObject(ctx context.Context, objectType string, objectID uuid.UUID) (*models.GiavMapping, error) {
	var row models.GiavMapping
	err := r.base.DB(ctx).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindActiveByObject returns the mapping only when it is trusted for sync.
func (r *Repository) FindActiveByObject(ctx context.Context, objectType string, objectID uuid.UUID) (*models.GiavMapping, error) {
	var row models.GiavMapping
	err := r.base.DB(ctx).
		Where("object_type = ? AND object_id = ? AND status = ?", objectType, objectID, enums.MappingStatusActive).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert writes a mapping keyed by (object_type, object_id).
func (r *Repository) Upsert(ctx context.Context, mapping *models.GiavMapping) error {
	if mapping == nil {
		return errors.New("mapping is required")
	}
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	return r.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "object_type"}, {Name: "object_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"giav_entity_type", "giav_entity_id", "display_name", "status", "match_type", "updated_at",
			}),
		}).
		Create(mapping).Error
}

// List returns mappings filtered by optional object type and status.
func (r *Repository) List(ctx context.Context, objectType string, status enums.MappingStatus, limit int) ([]models.GiavMapping, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.base.DB(ctx).Model(&models.GiavMapping{})
	if objectType != "" {
		query = query.Where("object_type = ?", objectType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var rows []models.GiavMapping
	err := query.Order("updated_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
