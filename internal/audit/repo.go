package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/internal/repo"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
)

// Repository encapsulates audit trail persistence.
type Repository struct {
	base repo.Base
}

// NewRepository constructs an audit repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// Insert appends an audit row, inside the given transaction when one is open.
func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, entry models.AuditLogEntry) error {
	return r.base.Conn(ctx, tx).Create(&entry).Error
}

// ListForEntity returns the audit trail for one entity, newest first.
func (r *Repository) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]models.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.AuditLogEntry
	err := r.base.DB(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
