package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mvidalgarcia/golfviajes-backend/api/responses"
	"github.com/mvidalgarcia/golfviajes-backend/api/validators"
	"github.com/mvidalgarcia/golfviajes-backend/internal/pricing"
	"github.com/mvidalgarcia/golfviajes-backend/internal/proposals"
	"github.com/mvidalgarcia/golfviajes-backend/internal/versions"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
)

type acceptProposalPayload struct {
	FullName string `json:"full_name" validate:"required,min=3,max=200"`
	DNI      string `json:"dni" validate:"required,min=5,max=20"`
}

type publicViewResponse struct {
	Proposal        publicProposalDTO  `json:"proposal"`
	CurrentVersion  *publicVersionDTO  `json:"current_version,omitempty"`
	SelectedVersion *publicVersionDTO  `json:"selected_version,omitempty"`
	AcceptedVersion *publicVersionDTO  `json:"accepted_version,omitempty"`
	Breakdown       *pricing.Breakdown `json:"breakdown,omitempty"`
}

// PublicProposalView serves the token-addressed proposal page.
func PublicProposalView(svc versions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "versions service unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "public token is required"))
			return
		}

		var selected *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("version")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid version id"))
				return
			}
			selected = &id
		}

		view, err := svc.GetPublicView(ctx, token, selected)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// The per-person breakdown follows whichever version the page shows.
		displayed := view.SelectedVersion
		if displayed == nil {
			displayed = view.CurrentVersion
		}
		var breakdown *pricing.Breakdown
		if displayed != nil {
			b := pricing.Allocate(displayed.Snapshot)
			breakdown = &b
		}

		responses.WriteSuccess(w, publicViewResponse{
			Proposal:        toPublicProposalDTO(view.Proposal),
			CurrentVersion:  toPublicVersionDTO(view.CurrentVersion),
			SelectedVersion: toPublicVersionDTO(view.SelectedVersion),
			AcceptedVersion: toPublicVersionDTO(view.AcceptedVersion),
			Breakdown:       breakdown,
		})
	}
}

// PublicProposalAccept records the customer's acceptance of the current
// version behind the token.
func PublicProposalAccept(versionsSvc versions.Service, proposalsSvc proposals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if versionsSvc == nil || proposalsSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proposal services unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "public token is required"))
			return
		}

		var payload acceptProposalPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := versionsSvc.GetPublicView(ctx, token, nil)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		accepted, err := proposalsSvc.Accept(ctx, proposals.AcceptInput{
			ProposalID: view.Proposal.ID,
			FullName:   payload.FullName,
			DNI:        payload.DNI,
			ActorKind:  enums.ActorKindClient,
			FromIP:     clientIP(r),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"accepted":    true,
			"status":      string(accepted.Status),
			"accepted_at": accepted.AcceptedAt,
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
