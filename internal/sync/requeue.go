package sync

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/internal/versions"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox/payloads"
)

const defaultStuckAfter = 15 * time.Minute

// RequeuerParams groups dependencies for the stuck-sync sweeper.
type RequeuerParams struct {
	DB         txRunner
	Versions   *versions.Repository
	Outbox     *outbox.Service
	Logger     *logger.Logger
	StuckAfter time.Duration
}

// Requeuer re-emits sync requests for versions that a crashed worker left in
// the queued status. The emit is idempotent: a version with an unpublished
// sync request pending is skipped, and a version that meanwhile got its
// booking id is filtered out by the query.
type Requeuer struct {
	db         txRunner
	versions   *versions.Repository
	outbox     *outbox.Service
	logg       *logger.Logger
	stuckAfter time.Duration
	now        func() time.Time
}

// NewRequeuer builds the sweeper with the required dependencies.
func NewRequeuer(params RequeuerParams) (*Requeuer, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "database client is required")
	}
	if params.Versions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "versions repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	stuckAfter := params.StuckAfter
	if stuckAfter <= 0 {
		stuckAfter = defaultStuckAfter
	}
	return &Requeuer{
		db:         params.DB,
		versions:   params.Versions,
		outbox:     params.Outbox,
		logg:       params.Logger,
		stuckAfter: stuckAfter,
		now:        time.Now,
	}, nil
}

// Sweep requeues every stuck version it finds. Per-version failures are
// collected so one bad row does not stop the rest of the sweep.
func (r *Requeuer) Sweep(ctx context.Context) error {
	cutoff := r.now().UTC().Add(-r.stuckAfter)
	stuck, err := r.versions.FindStuckQueued(ctx, cutoff)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query stuck versions")
	}
	if len(stuck) == 0 {
		return nil
	}

	var errs error
	requeued := 0
	for i := range stuck {
		if err := r.requeueVersion(ctx, &stuck[i]); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		requeued++
	}

	ctx = r.logg.WithFields(ctx, map[string]any{
		"stuck":    len(stuck),
		"requeued": requeued,
	})
	r.logg.Info(ctx, "stuck sync sweep completed")
	return errs
}

func (r *Requeuer) requeueVersion(ctx context.Context, version *models.ProposalVersion) error {
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		proposal, err := r.versions.FindProposalTx(tx, version.ProposalID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proposal for stuck version")
		}
		if proposal.Status.IsTerminal() {
			return nil
		}
		if proposal.AcceptedVersionID == nil || *proposal.AcceptedVersionID != version.ID {
			// Pointer moved since the version was queued; nothing to resume.
			return nil
		}

		now := r.now()
		return r.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSyncRequested,
			AggregateType: enums.AggregateProposalVersion,
			AggregateID:   version.ID,
			Data: payloads.SyncRequestedEvent{
				ProposalID: proposal.ID,
				VersionID:  version.ID,
				Requested:  now,
				Retry:      true,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
}
