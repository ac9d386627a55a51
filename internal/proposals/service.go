package proposals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/internal/audit"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox/payloads"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

// txRunner abstracts db.Client for service tests.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput carries the customer contact and trip header for a new proposal.
type CreateInput struct {
	ClientName  string
	ClientEmail string
	ClientPhone *string
	TripStart   *time.Time
	TripEnd     *time.Time
	Currency    string
	ActorKind   enums.ActorKind
	ActorID     string
}

// AcceptInput records who accepted the proposal's current version and from
// where. The version reference is implicit: whatever is current at submission.
type AcceptInput struct {
	ProposalID uuid.UUID
	FullName   string
	DNI        string
	ActorKind  enums.ActorKind
	ActorID    string
	FromIP     string
}

// ActorInput identifies the operator behind an administrative transition.
type ActorInput struct {
	ActorKind enums.ActorKind
	ActorID   string
}

// ServiceParams groups dependencies for the proposals service.
type ServiceParams struct {
	DB     txRunner
	Repo   *Repository
	Audit  audit.Service
	Outbox *outbox.Service
}

// Service owns the proposal lifecycle: acceptance binding, explicit sync
// retries, and the terminal administrative transitions.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Proposal, error)
	Get(ctx context.Context, proposalID uuid.UUID) (*models.Proposal, error)
	List(ctx context.Context, status *enums.ProposalStatus, limit int) ([]models.Proposal, error)
	Accept(ctx context.Context, input AcceptInput) (*models.Proposal, error)
	RequestSync(ctx context.Context, versionID uuid.UUID, actor ActorInput) error
	Revoke(ctx context.Context, proposalID uuid.UUID, actor ActorInput) error
	MarkLost(ctx context.Context, proposalID uuid.UUID, actor ActorInput) error
}

type service struct {
	db     txRunner
	repo   *Repository
	audit  audit.Service
	outbox *outbox.Service
	now    func() time.Time
}

// NewService builds a proposals service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "database client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposals repo is required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "audit service is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		audit:  params.Audit,
		outbox: params.Outbox,
		now:    time.Now,
	}, nil
}

// Create registers a new draft proposal. Versions arrive later through the
// snapshot store.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Proposal, error) {
	if input.ClientName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}
	if input.ClientEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client email is required")
	}
	if input.Currency == "" {
		input.Currency = "EUR"
	}

	proposal := &models.Proposal{
		ClientName:         input.ClientName,
		ClientEmail:        input.ClientEmail,
		ClientPhone:        input.ClientPhone,
		TripStart:          input.TripStart,
		TripEnd:            input.TripEnd,
		Currency:           input.Currency,
		Status:             enums.ProposalStatusDraft,
		ExternalSyncStatus: enums.ExternalSyncStatusNone,
	}
	if err := s.repo.Insert(ctx, proposal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert proposal")
	}
	return proposal, nil
}

// Get loads one proposal.
func (s *service) Get(ctx context.Context, proposalID uuid.UUID) (*models.Proposal, error) {
	if proposalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposal id is required")
	}
	row, err := s.repo.FindByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "proposal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proposal")
	}
	return row, nil
}

// List returns proposals, optionally filtered by status.
func (s *service) List(ctx context.Context, status *enums.ProposalStatus, limit int) ([]models.Proposal, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", *status))
	}
	return s.repo.List(ctx, status, limit)
}

// Accept binds the current version as accepted, records who did it, and queues
// a sync request. The audit entry and the outbox event commit with the status
// change or not at all.
func (s *service) Accept(ctx context.Context, input AcceptInput) (*models.Proposal, error) {
	if input.ProposalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposal id is required")
	}
	if input.FullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if !input.ActorKind.IsValid() {
		input.ActorKind = enums.ActorKindClient
	}

	var accepted *models.Proposal
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		proposal, err := s.repo.FindByIDTx(tx, input.ProposalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "proposal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proposal")
		}
		if proposal.Status == enums.ProposalStatusAccepted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "proposal is already accepted")
		}
		if proposal.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("proposal is %s and cannot be accepted", proposal.Status))
		}
		if proposal.CurrentVersionID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "proposal has no current version to accept")
		}

		now := s.now()
		actorKind := input.ActorKind
		confirmation := enums.ConfirmationStatusPending
		fields := map[string]any{
			"status":              enums.ProposalStatusAccepted,
			"accepted_version_id": *proposal.CurrentVersionID,
			"accepted_at":         now,
			"accepted_actor_kind": actorKind,
			"accepted_full_name":  input.FullName,
			"confirmation_status": confirmation,
		}
		if input.ActorID != "" {
			fields["accepted_actor_id"] = input.ActorID
		}
		if input.DNI != "" {
			fields["accepted_dni"] = input.DNI
		}
		if input.FromIP != "" {
			fields["accepted_from_ip"] = input.FromIP
		}
		if err := s.repo.UpdateTx(tx, proposal.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record acceptance")
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			ActorKind:  actorKind,
			ActorID:    input.ActorID,
			Action:     enums.AuditActionProposalAccepted,
			EntityType: "proposal",
			EntityID:   proposal.ID,
			Metadata: types.JSONMap{
				"version_id": proposal.CurrentVersionID.String(),
				"full_name":  input.FullName,
				"from_ip":    input.FromIP,
			},
		}); err != nil {
			return err
		}

		actor := &outbox.ActorRef{Kind: string(actorKind), ID: input.ActorID}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProposalAccepted,
			AggregateType: enums.AggregateProposal,
			AggregateID:   proposal.ID,
			Actor:         actor,
			Data: payloads.ProposalAcceptedEvent{
				ProposalID: proposal.ID,
				VersionID:  *proposal.CurrentVersionID,
				FullName:   input.FullName,
				AcceptedAt: now,
			},
			Version:    1,
			OccurredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue accepted event")
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSyncRequested,
			AggregateType: enums.AggregateProposalVersion,
			AggregateID:   *proposal.CurrentVersionID,
			Actor:         actor,
			Data: payloads.SyncRequestedEvent{
				ProposalID: proposal.ID,
				VersionID:  *proposal.CurrentVersionID,
				Requested:  now,
			},
			Version:    1,
			OccurredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue sync request")
		}

		reloaded, err := s.repo.FindByIDTx(tx, proposal.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload proposal")
		}
		accepted = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// RequestSync re-queues synchronization for a version whose previous attempt
// failed. Versions that already hold a booking id are refused; the booking
// exists, there is nothing to retry.
func (s *service) RequestSync(ctx context.Context, versionID uuid.UUID, actor ActorInput) error {
	if versionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "version id is required")
	}
	if !actor.ActorKind.IsValid() {
		actor.ActorKind = enums.ActorKindAdmin
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		version, err := s.repo.FindVersionTx(tx, versionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "version not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load version")
		}
		if version.IsSynced() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "version already has a booking")
		}

		proposal, err := s.repo.FindByIDTx(tx, version.ProposalID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proposal")
		}
		if proposal.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("proposal is %s, sync is not allowed", proposal.Status))
		}
		if proposal.AcceptedVersionID == nil || *proposal.AcceptedVersionID != version.ID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only the accepted version can be synced")
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			ActorKind:  actor.ActorKind,
			ActorID:    actor.ActorID,
			Action:     enums.AuditActionSyncRequested,
			EntityType: "proposal_version",
			EntityID:   version.ID,
			Metadata: types.JSONMap{
				"proposal_id": proposal.ID.String(),
				"retry":       true,
			},
		}); err != nil {
			return err
		}

		now := s.now()
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSyncRequested,
			AggregateType: enums.AggregateProposalVersion,
			AggregateID:   version.ID,
			Actor:         &outbox.ActorRef{Kind: string(actor.ActorKind), ID: actor.ActorID},
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

// Revoke moves the proposal to its revoked terminal state.
func (s *service) Revoke(ctx context.Context, proposalID uuid.UUID, actor ActorInput) error {
	return s.terminate(ctx, proposalID, actor, enums.ProposalStatusRevoked, enums.AuditActionProposalRevoked)
}

// MarkLost moves the proposal to its lost terminal state.
func (s *service) MarkLost(ctx context.Context, proposalID uuid.UUID, actor ActorInput) error {
	return s.terminate(ctx, proposalID, actor, enums.ProposalStatusLost, enums.AuditActionProposalLost)
}

func (s *service) terminate(ctx context.Context, proposalID uuid.UUID, actor ActorInput, status enums.ProposalStatus, action enums.AuditAction) error {
	if proposalID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "proposal id is required")
	}
	if !actor.ActorKind.IsValid() {
		actor.ActorKind = enums.ActorKindAdmin
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		proposal, err := s.repo.FindByIDTx(tx, proposalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "proposal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proposal")
		}
		if proposal.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("proposal is already %s", proposal.Status))
		}

		if err := s.repo.UpdateTx(tx, proposalID, map[string]any{"status": status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update proposal status")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorKind:  actor.ActorKind,
			ActorID:    actor.ActorID,
			Action:     action,
			EntityType: "proposal",
			EntityID:   proposalID,
			Metadata:   types.JSONMap{"previous_status": string(proposal.Status)},
		})
	})
}
