package sync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/internal/repo"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
)

// LogRepository persists the per-attempt synchronization history. Rows are
// never deleted; a revoked proposal keeps its sync trail.
type LogRepository struct {
	base repo.Base
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{base: repo.NewBase(db)}
}

// NextAttemptNumberTx returns the next attempt number for the version.
func (r *LogRepository) NextAttemptNumberTx(tx *gorm.DB, versionID uuid.UUID) (int, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	var max int
	err := tx.Model(&models.SyncLogEntry{}).
		Where("version_id = ?", versionID).
		Select("COALESCE(MAX(attempt_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// OpenTx inserts a queued log entry before the remote call is made, so a crash
// mid-call still leaves a visible attempt.
func (r *LogRepository) OpenTx(tx *gorm.DB, entry *models.SyncLogEntry) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}
	if entry.Status == "" {
		entry.Status = enums.VersionSyncStatusQueued
	}
	return tx.Create(entry).Error
}

// CloseTx finalizes an attempt with its outcome and the raw response body.
func (r *LogRepository) CloseTx(tx *gorm.DB, id uuid.UUID, status enums.VersionSyncStatus, errorMessage *string, rawResponse json.RawMessage) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	fields := map[string]any{
		"status":      status,
		"finished_at": time.Now(),
	}
	if errorMessage != nil {
		fields["error_message"] = *errorMessage
	}
	if len(rawResponse) > 0 {
		fields["raw_response"] = rawResponse
	}
	return tx.Model(&models.SyncLogEntry{}).Where("id = ?", id).Updates(fields).Error
}

// ListForVersion returns the attempt history, newest first.
func (r *LogRepository) ListForVersion(ctx context.Context, versionID uuid.UUID) ([]models.SyncLogEntry, error) {
	var rows []models.SyncLogEntry
	err := r.base.Conn(ctx, nil).
		Where("version_id = ?", versionID).
		Order("attempt_number DESC").
		Find(&rows).Error
	return rows, err
}
