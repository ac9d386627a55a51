package versions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/internal/audit"
	dbpkg "github.com/mvidalgarcia/golfviajes-backend/pkg/db"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

const (
	versionNumberRetries = 3
	publicTokenBytes     = 32
)

// txRunner abstracts db.Client for service tests.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput carries a new immutable snapshot for a proposal.
type CreateInput struct {
	ProposalID uuid.UUID
	Snapshot   types.Snapshot
	ExpiresAt  *time.Time
	ActorKind  enums.ActorKind
	ActorID    string
}

// PublicView is the token-addressed read model served to customers.
type PublicView struct {
	Proposal        *models.Proposal
	CurrentVersion  *models.ProposalVersion
	SelectedVersion *models.ProposalVersion
	AcceptedVersion *models.ProposalVersion
}

// ServiceParams groups dependencies for the versions service.
type ServiceParams struct {
	DB    txRunner
	Repo  *Repository
	Audit audit.Service
}

// Service is the snapshot store: immutable versions plus the pointer moves
// and acceptance-clearing they imply.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.ProposalVersion, error)
	GetByID(ctx context.Context, versionID uuid.UUID) (*models.ProposalVersion, error)
	GetCurrent(ctx context.Context, proposalID uuid.UUID) (*models.ProposalVersion, error)
	GetLatest(ctx context.Context, proposalID uuid.UUID) (*models.ProposalVersion, error)
	GetPublicView(ctx context.Context, token string, selectedVersionID *uuid.UUID) (*PublicView, error)
	ListForProposal(ctx context.Context, proposalID uuid.UUID) ([]models.ProposalVersion, error)
}

type service struct {
	db    txRunner
	repo  *Repository
	audit audit.Service
	now   func() time.Time
}

// NewService builds a versions service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "database client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "versions repo is required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "audit service is required")
	}
	return &service{
		db:    params.DB,
		repo:  params.Repo,
		audit: params.Audit,
		now:   time.Now,
	}, nil
}

// Create appends a new version, moves the current pointer, clears acceptance
// when the pointer leaves the accepted version, and promotes a draft proposal
// to sent. All of it is one transaction; version-number collisions under
// concurrent creation are retried with a freshly computed number.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.ProposalVersion, error) {
	if input.ProposalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposal id is required")
	}
	if len(input.Snapshot.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot must contain at least one item")
	}
	if !input.ActorKind.IsValid() {
		input.ActorKind = enums.ActorKindAdmin
	}

	var created *models.ProposalVersion
	var lastErr error

	for attempt := 0; attempt < versionNumberRetries; attempt++ {
		lastErr = s.db.WithTx(ctx, func(tx *gorm.DB) error {
			proposal, err := s.repo.FindProposalTx(tx, input.ProposalID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "proposal not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proposal")
			}
			if proposal.Status.IsTerminal() {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("proposal is %s, no further versions allowed", proposal.Status))
			}

			number, err := s.repo.NextVersionNumberTx(tx, input.ProposalID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute version number")
			}

			token, err := newPublicToken()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate public token")
			}

			version := &models.ProposalVersion{
				ProposalID:    input.ProposalID,
				VersionNumber: number,
				Snapshot:      input.Snapshot,
				TotalCost:     input.Snapshot.Totals.TotalCost,
				TotalPVP:      input.Snapshot.Totals.TotalPVP,
				MarginAbs:     input.Snapshot.Totals.MarginAbs,
				MarginPct:     input.Snapshot.Totals.MarginPct,
				PublicToken:   token,
				ExpiresAt:     input.ExpiresAt,
			}
			if err := s.repo.InsertTx(tx, version); err != nil {
				return err
			}

			fields := map[string]any{"current_version_id": version.ID}
			cleared := false
			if proposal.Status == enums.ProposalStatusAccepted &&
				(proposal.AcceptedVersionID == nil || *proposal.AcceptedVersionID != version.ID) {
				// Moving the pointer off the accepted version clears acceptance
				// atomically; GIAV identifiers stay untouched.
				cleared = true
				fields["status"] = enums.ProposalStatusSent
				fields["accepted_version_id"] = nil
				fields["accepted_at"] = nil
				fields["accepted_actor_kind"] = nil
				fields["accepted_actor_id"] = nil
				fields["accepted_from_ip"] = nil
				fields["accepted_full_name"] = nil
				fields["accepted_dni"] = nil
				fields["confirmation_status"] = nil
			} else if proposal.Status == enums.ProposalStatusDraft {
				fields["status"] = enums.ProposalStatusSent
			}

			if err := s.repo.UpdateProposalTx(tx, input.ProposalID, fields); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update proposal pointer")
			}

			if err := s.audit.Record(ctx, tx, audit.Entry{
				ActorKind:  input.ActorKind,
				ActorID:    input.ActorID,
				Action:     enums.AuditActionVersionCreated,
				EntityType: "proposal_version",
				EntityID:   version.ID,
				Metadata: types.JSONMap{
					"proposal_id":    input.ProposalID.String(),
					"version_number": number,
				},
			}); err != nil {
				return err
			}
			if cleared {
				if err := s.audit.Record(ctx, tx, audit.Entry{
					ActorKind:  input.ActorKind,
					ActorID:    input.ActorID,
					Action:     enums.AuditActionAcceptanceCleared,
					EntityType: "proposal",
					EntityID:   input.ProposalID,
					Metadata: types.JSONMap{
						"new_current_version_id": version.ID.String(),
					},
				}); err != nil {
					return err
				}
			}

			created = version
			return nil
		})

		if lastErr == nil {
			return created, nil
		}
		if dbpkg.IsUniqueViolation(lastErr, "ux_proposal_versions_number") {
			// Another creator took this number; recompute and retry.
			continue
		}
		return nil, lastErr
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "version number contention persisted")
}

// GetByID loads one version.
func (s *service) GetByID(ctx context.Context, versionID uuid.UUID) (*models.ProposalVersion, error) {
	if versionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "version id is required")
	}
	row, err := s.repo.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "version not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load version")
	}
	return row, nil
}

// GetCurrent returns the version the proposal's current pointer names.
func (s *service) GetCurrent(ctx context.Context, proposalID uuid.UUID) (*models.ProposalVersion, error) {
	proposal, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.CurrentVersionID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "proposal has no current version")
	}
	return s.GetByID(ctx, *proposal.CurrentVersionID)
}

// GetLatest returns the highest-numbered version regardless of the pointer.
func (s *service) GetLatest(ctx context.Context, proposalID uuid.UUID) (*models.ProposalVersion, error) {
	if proposalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposal id is required")
	}
	row, err := s.repo.FindLatest(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "proposal has no versions")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest version")
	}
	return row, nil
}

// GetPublicView serves the token-addressed read path. Selecting a non-current
// version by explicit id rejects revoked or expired versions with a
// not-available signal; it never silently falls back to current.
func (s *service) GetPublicView(ctx context.Context, token string, selectedVersionID *uuid.UUID) (*PublicView, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "public token is required")
	}

	tokenVersion, err := s.repo.FindByPublicToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "proposal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load version by token")
	}
	if !tokenVersion.IsAvailableAt(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeGone, "this proposal version is no longer available")
	}

	proposal, err := s.loadProposal(ctx, tokenVersion.ProposalID)
	if err != nil {
		return nil, err
	}

	view := &PublicView{Proposal: proposal, SelectedVersion: tokenVersion}

	if proposal.CurrentVersionID != nil {
		current, err := s.GetByID(ctx, *proposal.CurrentVersionID)
		if err != nil {
			return nil, err
		}
		view.CurrentVersion = current
	}
	if proposal.AcceptedVersionID != nil {
		accepted, err := s.GetByID(ctx, *proposal.AcceptedVersionID)
		if err != nil {
			return nil, err
		}
		view.AcceptedVersion = accepted
	}

	if selectedVersionID != nil {
		selected, err := s.GetByID(ctx, *selectedVersionID)
		if err != nil {
			return nil, err
		}
		if selected.ProposalID != proposal.ID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "version does not belong to this proposal")
		}
		if !selected.IsAvailableAt(s.now()) {
			return nil, pkgerrors.New(pkgerrors.CodeGone, "this proposal version is no longer available")
		}
		view.SelectedVersion = selected
	}

	if err := s.repo.IncrementViewCount(ctx, view.SelectedVersion.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count version view")
	}
	return view, nil
}

// ListForProposal returns every version of a proposal, newest first.
func (s *service) ListForProposal(ctx context.Context, proposalID uuid.UUID) ([]models.ProposalVersion, error) {
	if proposalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposal id is required")
	}
	return s.repo.ListForProposal(ctx, proposalID)
}

func (s *service) loadProposal(ctx context.Context, proposalID uuid.UUID) (*models.Proposal, error) {
	if proposalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposal id is required")
	}
	proposal, err := s.repo.FindProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "proposal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proposal")
	}
	return proposal, nil
}

func newPublicToken() (string, error) {
	buf := make([]byte, publicTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
