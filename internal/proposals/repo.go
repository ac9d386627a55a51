package proposals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/internal/repo"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
)

// Repository persists proposals. Version rows are owned by the versions
// repository; this one only touches the proposal aggregate itself.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) Insert(ctx context.Context, proposal *models.Proposal) error {
	if proposal.ID == uuid.Nil {
		proposal.ID = uuid.New()
	}
	return r.base.Conn(ctx, nil).Create(proposal).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	var row models.Proposal
	err := r.base.Conn(ctx, nil).First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Proposal, error) {
	var row models.Proposal
	if err := tx.First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindVersionTx(tx *gorm.DB, versionID uuid.UUID) (*models.ProposalVersion, error) {
	var row models.ProposalVersion
	if err := tx.First(&row, "id = ?", versionID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) UpdateTx(tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	return tx.Model(&models.Proposal{}).Where("id = ?", id).Updates(fields).Error
}

// List returns proposals newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *enums.ProposalStatus, limit int) ([]models.Proposal, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.base.Conn(ctx, nil).Model(&models.Proposal{}).Order("created_at DESC").Limit(limit)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.Proposal
	err := query.Find(&rows).Error
	return rows, err
}
