package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mvidalgarcia/golfviajes-backend/api/responses"
	"github.com/mvidalgarcia/golfviajes-backend/api/validators"
	"github.com/mvidalgarcia/golfviajes-backend/internal/proposals"
	"github.com/mvidalgarcia/golfviajes-backend/internal/versions"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

type createProposalPayload struct {
	ClientName  string     `json:"client_name" validate:"required,min=2,max=200"`
	ClientEmail string     `json:"client_email" validate:"required,email"`
	ClientPhone *string    `json:"client_phone,omitempty" validate:"omitempty,max=30"`
	TripStart   *time.Time `json:"trip_start,omitempty"`
	TripEnd     *time.Time `json:"trip_end,omitempty"`
	Currency    string     `json:"currency,omitempty" validate:"omitempty,len=3"`
}

type createVersionPayload struct {
	Snapshot  types.Snapshot `json:"snapshot"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

func proposalIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "proposal id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid proposal id")
	}
	return id, nil
}

// ProposalCreate registers a new draft proposal.
func ProposalCreate(svc proposals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proposals service unavailable"))
			return
		}

		var payload createProposalPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		proposal, err := svc.Create(ctx, proposals.CreateInput{
			ClientName:  payload.ClientName,
			ClientEmail: payload.ClientEmail,
			ClientPhone: payload.ClientPhone,
			TripStart:   payload.TripStart,
			TripEnd:     payload.TripEnd,
			Currency:    strings.ToUpper(payload.Currency),
			ActorKind:   enums.ActorKindAdmin,
			ActorID:     adminActorID(r),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toProposalDTO(proposal))
	}
}

// ProposalGet returns one proposal.
func ProposalGet(svc proposals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proposals service unavailable"))
			return
		}

		id, err := proposalIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		proposal, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProposalDTO(proposal))
	}
}

// ProposalList returns proposals, optionally filtered by status.
func ProposalList(svc proposals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proposals service unavailable"))
			return
		}

		var status *enums.ProposalStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed := enums.ProposalStatus(raw)
			status = &parsed
		}

		rows, err := svc.List(ctx, status, 0)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]proposalDTO, 0, len(rows))
		for i := range rows {
			out = append(out, toProposalDTO(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ProposalCreateVersion appends a new immutable version and makes it current.
func ProposalCreateVersion(svc versions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "versions service unavailable"))
			return
		}

		id, err := proposalIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createVersionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		version, err := svc.Create(ctx, versions.CreateInput{
			ProposalID: id,
			Snapshot:   payload.Snapshot,
			ExpiresAt:  payload.ExpiresAt,
			ActorKind:  enums.ActorKindAdmin,
			ActorID:    adminActorID(r),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toVersionDTO(version))
	}
}

// ProposalListVersions returns every version of a proposal, newest first.
func ProposalListVersions(svc versions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "versions service unavailable"))
			return
		}

		id, err := proposalIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListForProposal(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]versionDTO, 0, len(rows))
		for i := range rows {
			out = append(out, toVersionDTO(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ProposalRevoke moves a proposal to its revoked terminal state.
func ProposalRevoke(svc proposals.Service, logg *logger.Logger) http.HandlerFunc {
	return proposalTerminate(svc, logg, func(ctx context.Context, id uuid.UUID, actorID string) error {
		return svc.Revoke(ctx, id, proposals.ActorInput{ActorKind: enums.ActorKindAdmin, ActorID: actorID})
	}, "revoked")
}

// ProposalMarkLost moves a proposal to its lost terminal state.
func ProposalMarkLost(svc proposals.Service, logg *logger.Logger) http.HandlerFunc {
	return proposalTerminate(svc, logg, func(ctx context.Context, id uuid.UUID, actorID string) error {
		return svc.MarkLost(ctx, id, proposals.ActorInput{ActorKind: enums.ActorKindAdmin, ActorID: actorID})
	}, "lost")
}

func proposalTerminate(svc proposals.Service, logg *logger.Logger, apply func(context.Context, uuid.UUID, string) error, outcome string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proposals service unavailable"))
			return
		}

		id, err := proposalIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := apply(ctx, id, adminActorID(r)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": outcome})
	}
}
