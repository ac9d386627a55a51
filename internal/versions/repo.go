package versions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/internal/repo"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
)

// Repository encapsulates version snapshot persistence. Proposal pointer
// updates live here too because version creation and the current-pointer
// move are one atomic unit.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a versions repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// InsertTx creates a version inside the caller's transaction. The unique
// index on (proposal_id, version_number) is the concurrency control: a
// collision surfaces as a unique violation for the caller to retry.
func (r *Repository) InsertTx(tx *gorm.DB, version *models.ProposalVersion) error {
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}
	return tx.Create(version).Error
}

// NextVersionNumberTx computes the next sequential number for a proposal.
func (r *Repository) NextVersionNumberTx(tx *gorm.DB, proposalID uuid.UUID) (int, error) {
	var current int
	err := tx.Model(&models.ProposalVersion{}).
		Where("proposal_id = ?", proposalID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

// FindByID loads one version.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProposalVersion, error) {
	var row models.ProposalVersion
	if err := r.base.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByPublicToken loads one version through its public token.
func (r *Repository) FindByPublicToken(ctx context.Context, token string) (*models.ProposalVersion, error) {
	var row models.ProposalVersion
	if err := r.base.DB(ctx).First(&row, "public_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindLatest returns the highest-numbered version of a proposal.
func (r *Repository) FindLatest(ctx context.Context, proposalID uuid.UUID) (*models.ProposalVersion, error) {
	var row models.ProposalVersion
	err := r.base.DB(ctx).
		Where("proposal_id = ?", proposalID).
		Order("version_number DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListForProposal returns every version of a proposal, newest first.
func (r *Repository) ListForProposal(ctx context.Context, proposalID uuid.UUID) ([]models.ProposalVersion, error) {
	var rows []models.ProposalVersion
	err := r.base.DB(ctx).
		Where("proposal_id = ?", proposalID).
		Order("version_number DESC").
		Find(&rows).Error
	return rows, err
}

// FindProposalTx loads a proposal inside a pointer-update transaction. The
// read takes no row lock; concurrent version creation is serialized by the
// unique (proposal_id, version_number) index and the insert retry loop.
func (r *Repository) FindProposalTx(tx *gorm.DB, proposalID uuid.UUID) (*models.Proposal, error) {
	var row models.Proposal
	if err := tx.First(&row, "id = ?", proposalID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindProposal loads a proposal outside any transaction.
func (r *Repository) FindProposal(ctx context.Context, proposalID uuid.UUID) (*models.Proposal, error) {
	var row models.Proposal
	if err := r.base.DB(ctx).First(&row, "id = ?", proposalID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateProposalTx persists proposal field changes inside the transaction.
func (r *Repository) UpdateProposalTx(tx *gorm.DB, proposalID uuid.UUID, fields map[string]any) error {
	return tx.Model(&models.Proposal{}).
		Where("id = ?", proposalID).
		Updates(fields).Error
}

// IncrementViewCount bumps the public view counter for a served version.
func (r *Repository) IncrementViewCount(ctx context.Context, versionID uuid.UUID) error {
	return r.base.DB(ctx).Model(&models.ProposalVersion{}).
		Where("id = ?", versionID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// MarkSyncStatusTx updates a version's sync status and optionally records the
// booking id. The booking id write is guarded: it is only set when still null.
func (r *Repository) MarkSyncStatusTx(tx *gorm.DB, versionID uuid.UUID, status enums.VersionSyncStatus, bookingID *string) error {
	fields := map[string]any{"giav_last_sync_status": status}
	if err := tx.Model(&models.ProposalVersion{}).
		Where("id = ?", versionID).
		Updates(fields).Error; err != nil {
		return err
	}
	if bookingID != nil && *bookingID != "" {
		return tx.Model(&models.ProposalVersion{}).
			Where("id = ? AND giav_booking_id IS NULL", versionID).
			Update("giav_booking_id", *bookingID).Error
	}
	return nil
}

// FindStuckQueued returns versions left in the queued sync status before the
// cutoff without a booking id. These are attempts interrupted mid-flight.
func (r *Repository) FindStuckQueued(ctx context.Context, cutoff time.Time) ([]models.ProposalVersion, error) {
	var rows []models.ProposalVersion
	err := r.base.DB(ctx).
		Where("giav_last_sync_status = ?", enums.VersionSyncStatusQueued).
		Where("giav_booking_id IS NULL").
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Find(&rows).Error
	return rows, err
}
