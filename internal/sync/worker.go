package sync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/internal/audit"
	"github.com/mvidalgarcia/golfviajes-backend/internal/payload"
	"github.com/mvidalgarcia/golfviajes-backend/internal/preflight"
	"github.com/mvidalgarcia/golfviajes-backend/internal/versions"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/config"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/giav"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/metrics"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

// Trigger labels for metrics and logs.
const (
	TriggerEvent = "event"
	TriggerRetry = "retry"
)

// txRunner abstracts db.Client for worker tests.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// bookingCreator is the slice of the GIAV client the worker calls.
type bookingCreator interface {
	CreateBooking(ctx context.Context, params giav.BookingParams) (*giav.BookingResult, *giav.Exchange, error)
}

// WorkerParams groups dependencies for the sync worker.
type WorkerParams struct {
	DB        txRunner
	Versions  *versions.Repository
	SyncLog   *LogRepository
	Preflight preflight.Validator
	Giav      bookingCreator
	GiavCfg   config.GiavConfig
	Lock      *VersionLock
	Audit     audit.Service
	Metrics   *metrics.SyncMetrics
	Logger    *logger.Logger
}

// Worker pushes accepted versions into GIAV exactly once. The durable
// booking-id check is the linearization point; everything else (redis lock,
// outbox collapse, consumer idempotency) only reduces wasted work. A failed
// attempt is recorded on the version, the proposal, and the sync log, never
// surfaced as an error to the triggering event.
type Worker struct {
	db        txRunner
	versions  *versions.Repository
	syncLog   *LogRepository
	preflight preflight.Validator
	giav      bookingCreator
	giavCfg   config.GiavConfig
	lock      *VersionLock
	audit     audit.Service
	metrics   *metrics.SyncMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewWorker builds a sync worker with the required dependencies.
func NewWorker(params WorkerParams) (*Worker, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "database client is required")
	}
	if params.Versions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "versions repo is required")
	}
	if params.SyncLog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sync log repo is required")
	}
	if params.Preflight == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preflight validator is required")
	}
	if params.Giav == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "giav client is required")
	}
	if params.Lock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "version lock is required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "audit service is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Worker{
		db:        params.DB,
		versions:  params.Versions,
		syncLog:   params.SyncLog,
		preflight: params.Preflight,
		giav:      params.Giav,
		giavCfg:   params.GiavCfg,
		lock:      params.Lock,
		audit:     params.Audit,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// Sync runs one guarded synchronization attempt for the version. It returns
// an error only for infrastructure faults where retrying the whole procedure
// is the right response; domain failures are persisted and return nil.
func (w *Worker) Sync(ctx context.Context, versionID uuid.UUID, trigger string) error {
	if versionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "version id is required")
	}
	if trigger == "" {
		trigger = TriggerEvent
	}
	ctx = w.logg.WithVersionID(ctx, versionID.String())

	version, err := w.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "version not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load version")
	}

	// Durable idempotency guard: a booking id means the remote side already
	// holds this version. Nothing left to do.
	if version.IsSynced() {
		w.logg.Info(ctx, "version already synced, skipping")
		w.metrics.IncSkipped("already_synced")
		return nil
	}

	acquired, err := w.lock.Acquire(ctx, versionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire version lock")
	}
	if !acquired {
		w.logg.Info(ctx, "version sync already in flight, skipping")
		w.metrics.IncSkipped("locked")
		return nil
	}
	defer func() {
		if err := w.lock.Release(context.WithoutCancel(ctx), versionID); err != nil {
			w.logg.Warn(w.logg.WithField(ctx, "error", err.Error()), "release version lock failed")
		}
	}()

	proposal, err := w.versions.FindProposal(ctx, version.ProposalID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proposal")
	}
	ctx = w.logg.WithProposalID(ctx, proposal.ID.String())
	if proposal.Status.IsTerminal() {
		w.logg.Info(ctx, "proposal is terminal, skipping sync")
		w.metrics.IncSkipped("terminal_proposal")
		return nil
	}
	if proposal.AcceptedVersionID == nil || *proposal.AcceptedVersionID != version.ID {
		// Pointer moved since this sync was requested; the booking belongs
		// to whichever version is accepted now.
		w.logg.Info(ctx, "version no longer accepted, skipping sync")
		w.metrics.IncSkipped("superseded")
		return nil
	}

	report, err := w.preflight.Check(ctx, version.Snapshot)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "preflight check")
	}
	if !report.OK {
		return w.recordBlocked(ctx, proposal, version, report)
	}

	params, err := payload.Build(proposal, version, version.Snapshot, report.Resolutions)
	if err != nil {
		return err
	}

	// After preflight every line that needs a supplier should carry one.
	// Anything slipping through here means the snapshot and resolutions
	// disagree, which must stop the call.
	if missing := missingSupplierLines(params, version.Snapshot, w.giavCfg.RequiresMapping); len(missing) > 0 {
		return w.recordMissingSuppliers(ctx, proposal, version, missing)
	}

	hash, err := payload.Hash(params)
	if err != nil {
		return err
	}
	rawRequest, err := json.Marshal(params)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode booking request")
	}

	logEntry := &models.SyncLogEntry{
		VersionID:   versionID,
		PayloadHash: hash,
		RawRequest:  rawRequest,
		Status:      enums.VersionSyncStatusQueued,
		StartedAt:   w.now(),
	}
	err = w.db.WithTx(ctx, func(tx *gorm.DB) error {
		attempt, err := w.syncLog.NextAttemptNumberTx(tx, versionID)
		if err != nil {
			return err
		}
		logEntry.AttemptNumber = attempt
		if err := w.syncLog.OpenTx(tx, logEntry); err != nil {
			return err
		}
		if err := w.versions.MarkSyncStatusTx(tx, versionID, enums.VersionSyncStatusQueued, nil); err != nil {
			return err
		}
		return w.versions.UpdateProposalTx(tx, proposal.ID, map[string]any{
			"status":               enums.ProposalStatusQueued,
			"external_sync_status": enums.ExternalSyncStatusPending,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open sync attempt")
	}

	// The remote call runs with no DB transaction or row lock held. It may
	// block for seconds.
	started := w.now()
	result, exchange, callErr := w.giav.CreateBooking(ctx, params)
	duration := w.now().Sub(started)

	if callErr != nil {
		w.metrics.IncFailure(trigger)
		w.metrics.ObserveDuration("failure", duration)
		return w.recordFailure(ctx, proposal, version, logEntry, exchange, callErr)
	}

	w.metrics.IncSuccess(trigger)
	w.metrics.ObserveDuration("success", duration)
	return w.recordSuccess(ctx, proposal, version, logEntry, result, exchange)
}

func missingSupplierLines(params giav.BookingParams, snapshot types.Snapshot, requires func(string) bool) []string {
	var missing []string
	for idx, line := range params.Lines {
		if idx < len(snapshot.Items) && !requires(snapshot.Items[idx].Type.String()) {
			continue
		}
		if line.SupplierID == "" {
			missing = append(missing, line.Description)
		}
	}
	return missing
}

func (w *Worker) recordBlocked(ctx context.Context, proposal *models.Proposal, version *models.ProposalVersion, report preflight.Report) error {
	w.logg.Warn(ctx, "preflight blocked synchronization")
	w.metrics.IncSkipped("preflight_blocked")

	message := "preflight validation failed"
	return w.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := w.versions.MarkSyncStatusTx(tx, version.ID, enums.VersionSyncStatusError, nil); err != nil {
			return err
		}
		if err := w.versions.UpdateProposalTx(tx, proposal.ID, map[string]any{
			"status":               enums.ProposalStatusError,
			"external_sync_status": enums.ExternalSyncStatusError,
			"last_sync_error":      message,
			"last_sync_at":         w.now(),
		}); err != nil {
			return err
		}
		return w.audit.Record(ctx, tx, audit.Entry{
			ActorKind:  enums.ActorKindSystem,
			Action:     enums.AuditActionSyncBlocked,
			EntityType: "proposal_version",
			EntityID:   version.ID,
			Metadata: types.JSONMap{
				"proposal_id": proposal.ID.String(),
				"issues":      report.IssueSummaries(),
			},
		})
	})
}

func (w *Worker) recordMissingSuppliers(ctx context.Context, proposal *models.Proposal, version *models.ProposalVersion, missing []string) error {
	w.logg.Warn(ctx, "booking lines missing supplier after preflight")
	w.metrics.IncSkipped("missing_supplier")

	message := "booking lines missing supplier identity"
	return w.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := w.versions.MarkSyncStatusTx(tx, version.ID, enums.VersionSyncStatusError, nil); err != nil {
			return err
		}
		if err := w.versions.UpdateProposalTx(tx, proposal.ID, map[string]any{
			"status":               enums.ProposalStatusError,
			"external_sync_status": enums.ExternalSyncStatusError,
			"last_sync_error":      message,
			"last_sync_at":         w.now(),
		}); err != nil {
			return err
		}
		return w.audit.Record(ctx, tx, audit.Entry{
			ActorKind:  enums.ActorKindSystem,
			Action:     enums.AuditActionSyncMissingSupplier,
			EntityType: "proposal_version",
			EntityID:   version.ID,
			Metadata: types.JSONMap{
				"proposal_id": proposal.ID.String(),
				"lines":       missing,
			},
		})
	})
}

func (w *Worker) recordSuccess(ctx context.Context, proposal *models.Proposal, version *models.ProposalVersion, logEntry *models.SyncLogEntry, result *giav.BookingResult, exchange *giav.Exchange) error {
	ctx = w.logg.WithField(ctx, "booking_id", result.BookingID)
	w.logg.Info(ctx, "version synchronized to giav")

	return w.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := w.versions.MarkSyncStatusTx(tx, version.ID, enums.VersionSyncStatusSuccess, &result.BookingID); err != nil {
			return err
		}

		fields := map[string]any{
			"status":               enums.ProposalStatusSynced,
			"external_sync_status": enums.ExternalSyncStatusOK,
			"last_sync_error":      nil,
			"last_sync_at":         w.now(),
		}
		if proposal.GiavBookingID == nil {
			fields["giav_booking_id"] = result.BookingID
		}
		if proposal.GiavClientID == nil && result.ClientID != "" {
			fields["giav_client_id"] = result.ClientID
		}
		if proposal.GiavExpedienteID == nil && result.ExpedienteID != "" {
			fields["giav_expediente_id"] = result.ExpedienteID
		}
		if err := w.versions.UpdateProposalTx(tx, proposal.ID, fields); err != nil {
			return err
		}

		var rawResponse json.RawMessage
		if exchange != nil {
			rawResponse = exchange.Response
		}
		if err := w.syncLog.CloseTx(tx, logEntry.ID, enums.VersionSyncStatusSuccess, nil, rawResponse); err != nil {
			return err
		}

		return w.audit.Record(ctx, tx, audit.Entry{
			ActorKind:  enums.ActorKindSystem,
			Action:     enums.AuditActionSyncSuccess,
			EntityType: "proposal_version",
			EntityID:   version.ID,
			Metadata: types.JSONMap{
				"proposal_id": proposal.ID.String(),
				"booking_id":  result.BookingID,
				"attempt":     logEntry.AttemptNumber,
			},
		})
	})
}

func (w *Worker) recordFailure(ctx context.Context, proposal *models.Proposal, version *models.ProposalVersion, logEntry *models.SyncLogEntry, exchange *giav.Exchange, callErr error) error {
	w.logg.Error(ctx, "giav booking call failed", callErr)

	message := callErr.Error()
	return w.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := w.versions.MarkSyncStatusTx(tx, version.ID, enums.VersionSyncStatusError, nil); err != nil {
			return err
		}
		if err := w.versions.UpdateProposalTx(tx, proposal.ID, map[string]any{
			"status":               enums.ProposalStatusError,
			"external_sync_status": enums.ExternalSyncStatusError,
			"last_sync_error":      message,
			"last_sync_at":         w.now(),
		}); err != nil {
			return err
		}

		var rawResponse json.RawMessage
		if exchange != nil {
			rawResponse = exchange.Response
		}
		if err := w.syncLog.CloseTx(tx, logEntry.ID, enums.VersionSyncStatusError, &message, rawResponse); err != nil {
			return err
		}

		return w.audit.Record(ctx, tx, audit.Entry{
			ActorKind:  enums.ActorKindSystem,
			Action:     enums.AuditActionSyncError,
			EntityType: "proposal_version",
			EntityID:   version.ID,
			Metadata: types.JSONMap{
				"proposal_id": proposal.ID.String(),
				"error":       message,
				"attempt":     logEntry.AttemptNumber,
			},
		})
	})
}
