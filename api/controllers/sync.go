package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mvidalgarcia/golfviajes-backend/api/responses"
	"github.com/mvidalgarcia/golfviajes-backend/internal/proposals"
	"github.com/mvidalgarcia/golfviajes-backend/internal/sync"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
)

type syncLogDTO struct {
	ID            uuid.UUID       `json:"id"`
	VersionID     uuid.UUID       `json:"version_id"`
	AttemptNumber int             `json:"attempt_number"`
	PayloadHash   string          `json:"payload_hash"`
	Status        string          `json:"status"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	RawRequest    json.RawMessage `json:"raw_request,omitempty"`
	RawResponse   json.RawMessage `json:"raw_response,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
}

func toSyncLogDTO(entry *models.SyncLogEntry) syncLogDTO {
	return syncLogDTO{
		ID:            entry.ID,
		VersionID:     entry.VersionID,
		AttemptNumber: entry.AttemptNumber,
		PayloadHash:   entry.PayloadHash,
		Status:        string(entry.Status),
		ErrorMessage:  entry.ErrorMessage,
		RawRequest:    entry.RawRequest,
		RawResponse:   entry.RawResponse,
		StartedAt:     entry.StartedAt,
		FinishedAt:    entry.FinishedAt,
	}
}

func versionIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "version id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid version id")
	}
	return id, nil
}

// VersionSyncRetry re-queues a failed version for synchronization.
func VersionSyncRetry(svc proposals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proposals service unavailable"))
			return
		}

		id, err := versionIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.RequestSync(ctx, id, proposals.ActorInput{ActorKind: enums.ActorKindAdmin, ActorID: adminActorID(r)}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}

// VersionSyncHistory returns the attempt history for a version, newest first.
func VersionSyncHistory(repo *sync.LogRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync log repository unavailable"))
			return
		}

		id, err := versionIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := repo.ListForVersion(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]syncLogDTO, 0, len(rows))
		for i := range rows {
			out = append(out, toSyncLogDTO(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
