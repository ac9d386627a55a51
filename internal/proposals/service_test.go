package proposals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/internal/audit"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupProposalsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS proposals (
  id TEXT PRIMARY KEY,
  client_name TEXT NOT NULL,
  client_email TEXT NOT NULL,
  client_phone TEXT,
  trip_start DATETIME,
  trip_end DATETIME,
  currency TEXT NOT NULL DEFAULT 'EUR',
  status TEXT NOT NULL DEFAULT 'draft',
  current_version_id TEXT,
  accepted_version_id TEXT,
  accepted_at DATETIME,
  accepted_actor_kind TEXT,
  accepted_actor_id TEXT,
  accepted_from_ip TEXT,
  accepted_full_name TEXT,
  accepted_dni TEXT,
  confirmation_status TEXT,
  giav_client_id TEXT,
  giav_expediente_id TEXT,
  giav_booking_id TEXT,
  external_sync_status TEXT NOT NULL DEFAULT 'none',
  last_sync_error TEXT,
  last_sync_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS proposal_versions (
  id TEXT PRIMARY KEY,
  proposal_id TEXT NOT NULL,
  version_number INTEGER NOT NULL,
  snapshot TEXT NOT NULL,
  total_cost NUMERIC NOT NULL,
  total_pvp NUMERIC NOT NULL,
  margin_abs NUMERIC NOT NULL,
  margin_pct NUMERIC NOT NULL,
  public_token TEXT NOT NULL,
  expires_at DATETIME,
  revoked_at DATETIME,
  view_count INTEGER NOT NULL DEFAULT 0,
  giav_last_sync_status TEXT NOT NULL DEFAULT 'never',
  giav_booking_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS audit_log_entries (
  id TEXT PRIMARY KEY,
  actor_kind TEXT NOT NULL,
  actor_id TEXT,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newProposalsTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	auditSvc, err := audit.NewService(audit.ServiceParams{Repo: audit.NewRepository(db)})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		DB:     gormTxRunner{db: db},
		Repo:   NewRepository(db),
		Audit:  auditSvc,
		Outbox: outbox.NewService(outbox.NewRepository(db), nil),
	})
	require.NoError(t, err)
	return svc
}

func seedProposalWithVersion(t *testing.T, db *gorm.DB, status enums.ProposalStatus) (*models.Proposal, *models.ProposalVersion) {
	t.Helper()

	version := &models.ProposalVersion{
		ID:            uuid.New(),
		ProposalID:    uuid.New(),
		VersionNumber: 1,
		Snapshot:      types.Snapshot{Items: []types.SnapshotItem{{Name: "Hotel"}}},
		TotalCost:     decimal.NewFromInt(600),
		TotalPVP:      decimal.NewFromInt(800),
		MarginAbs:     decimal.NewFromInt(200),
		MarginPct:     decimal.NewFromInt(25),
		PublicToken:   uuid.NewString(),
	}
	proposal := &models.Proposal{
		ID:               version.ProposalID,
		ClientName:       "Marta Ruiz",
		ClientEmail:      "marta@example.com",
		Currency:         "EUR",
		Status:           status,
		CurrentVersionID: &version.ID,
	}
	require.NoError(t, db.Create(proposal).Error)
	require.NoError(t, db.Create(version).Error)
	return proposal, version
}

func countOutbox(t *testing.T, db *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func TestCreateProposal(t *testing.T) {
	db := setupProposalsTestDB(t)
	svc := newProposalsTestService(t, db)

	proposal, err := svc.Create(context.Background(), CreateInput{
		ClientName:  "Marta Ruiz",
		ClientEmail: "marta@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ProposalStatusDraft, proposal.Status)
	assert.Equal(t, "EUR", proposal.Currency)
	assert.NotEqual(t, uuid.Nil, proposal.ID)

	_, err = svc.Create(context.Background(), CreateInput{ClientEmail: "x@example.com"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAcceptBindsCurrentVersion(t *testing.T) {
	db := setupProposalsTestDB(t)
	svc := newProposalsTestService(t, db)
	proposal, version := seedProposalWithVersion(t, db, enums.ProposalStatusSent)

	accepted, err := svc.Accept(context.Background(), AcceptInput{
		ProposalID: proposal.ID,
		FullName:   "Marta Ruiz García",
		DNI:        "12345678Z",
		ActorKind:  enums.ActorKindClient,
		FromIP:     "203.0.113.9",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ProposalStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedVersionID)
	assert.Equal(t, version.ID, *accepted.AcceptedVersionID)
	require.NotNil(t, accepted.CurrentVersionID)
	assert.Equal(t, *accepted.CurrentVersionID, *accepted.AcceptedVersionID)
	require.NotNil(t, accepted.ConfirmationStatus)
	assert.Equal(t, enums.ConfirmationStatusPending, *accepted.ConfirmationStatus)
	require.NotNil(t, accepted.AcceptedFullName)
	assert.Equal(t, "Marta Ruiz García", *accepted.AcceptedFullName)
	require.NotNil(t, accepted.AcceptedAt)

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLogEntry{}).
		Where("action = ?", enums.AuditActionProposalAccepted).Count(&auditCount).Error)
	assert.EqualValues(t, 1, auditCount)

	// Acceptance queues one accepted event and one sync request, same tx.
	assert.EqualValues(t, 1, countOutbox(t, db, enums.EventProposalAccepted))
	assert.EqualValues(t, 1, countOutbox(t, db, enums.EventSyncRequested))
}

func TestAcceptRejectsAlreadyAccepted(t *testing.T) {
	db := setupProposalsTestDB(t)
	svc := newProposalsTestService(t, db)
	proposal, _ := seedProposalWithVersion(t, db, enums.ProposalStatusSent)

	_, err := svc.Accept(context.Background(), AcceptInput{
		ProposalID: proposal.ID,
		FullName:   "Marta Ruiz",
		ActorKind:  enums.ActorKindClient,
	})
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), AcceptInput{
		ProposalID: proposal.ID,
		FullName:   "Marta Ruiz",
		ActorKind:  enums.ActorKindClient,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// Nothing extra was queued by the rejected attempt.
	assert.EqualValues(t, 1, countOutbox(t, db, enums.EventSyncRequested))
}

func TestAcceptRequiresCurrentVersion(t *testing.T) {
	db := setupProposalsTestDB(t)
	svc := newProposalsTestService(t, db)

	proposal := &models.Proposal{
		ID:          uuid.New(),
		ClientName:  "Marta Ruiz",
		ClientEmail: "marta@example.com",
		Currency:    "EUR",
		Status:      enums.ProposalStatusDraft,
	}
	require.NoError(t, db.Create(proposal).Error)

	_, err := svc.Accept(context.Background(), AcceptInput{
		ProposalID: proposal.ID,
		FullName:   "Marta Ruiz",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestRequestSyncCollapsesDuplicates(t *testing.T) {
	db := setupProposalsTestDB(t)
	svc := newProposalsTestService(t, db)
	proposal, version := seedProposalWithVersion(t, db, enums.ProposalStatusSent)

	_, err := svc.Accept(context.Background(), AcceptInput{
		ProposalID: proposal.ID,
		FullName:   "Marta Ruiz",
		ActorKind:  enums.ActorKindClient,
	})
	require.NoError(t, err)

	// A retry while an unpublished request exists collapses into it.
	require.NoError(t, svc.RequestSync(context.Background(), version.ID, ActorInput{ActorKind: enums.ActorKindAdmin}))
	assert.EqualValues(t, 1, countOutbox(t, db, enums.EventSyncRequested))

	// After the pending event is published, a retry queues a fresh one.
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventSyncRequested).
		Update("published_at", gorm.Expr("CURRENT_TIMESTAMP")).Error)
	require.NoError(t, svc.RequestSync(context.Background(), version.ID, ActorInput{ActorKind: enums.ActorKindAdmin}))
	assert.EqualValues(t, 2, countOutbox(t, db, enums.EventSyncRequested))
}

func TestRequestSyncRejectsSyncedVersion(t *testing.T) {
	db := setupProposalsTestDB(t)
	svc := newProposalsTestService(t, db)
	proposal, version := seedProposalWithVersion(t, db, enums.ProposalStatusSent)

	_, err := svc.Accept(context.Background(), AcceptInput{
		ProposalID: proposal.ID,
		FullName:   "Marta Ruiz",
		ActorKind:  enums.ActorKindClient,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.ProposalVersion{}).
		Where("id = ?", version.ID).Update("giav_booking_id", "GIAV-1001").Error)

	err = svc.RequestSync(context.Background(), version.ID, ActorInput{ActorKind: enums.ActorKindAdmin})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestRequestSyncRequiresAcceptedVersion(t *testing.T) {
	db := setupProposalsTestDB(t)
	svc := newProposalsTestService(t, db)
	_, version := seedProposalWithVersion(t, db, enums.ProposalStatusSent)

	err := svc.RequestSync(context.Background(), version.ID, ActorInput{ActorKind: enums.ActorKindAdmin})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestTerminalTransitions(t *testing.T) {
	db := setupProposalsTestDB(t)
	svc := newProposalsTestService(t, db)

	proposal, _ := seedProposalWithVersion(t, db, enums.ProposalStatusSent)
	require.NoError(t, svc.Revoke(context.Background(), proposal.ID, ActorInput{ActorKind: enums.ActorKindAdmin}))

	reloaded, err := svc.Get(context.Background(), proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ProposalStatusRevoked, reloaded.Status)

	// Terminal proposals refuse further transitions.
	err = svc.MarkLost(context.Background(), proposal.ID, ActorInput{ActorKind: enums.ActorKindAdmin})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = svc.Accept(context.Background(), AcceptInput{ProposalID: proposal.ID, FullName: "Marta"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	other, _ := seedProposalWithVersion(t, db, enums.ProposalStatusSent)
	require.NoError(t, svc.MarkLost(context.Background(), other.ID, ActorInput{ActorKind: enums.ActorKindAdmin}))
	var lostAudit int64
	require.NoError(t, db.Model(&models.AuditLogEntry{}).
		Where("action = ?", enums.AuditActionProposalLost).Count(&lostAudit).Error)
	assert.EqualValues(t, 1, lostAudit)
}
