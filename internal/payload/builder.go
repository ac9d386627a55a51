package payload

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mvidalgarcia/golfviajes-backend/internal/mappings"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/giav"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

const dateLayout = "2006-01-02"

// Resolutions maps snapshot item index to the supplier resolution preflight
// produced for it. Items absent from the map use their embedded supplier.
type Resolutions map[int]mappings.Result

// Build turns a validated version and its snapshot into the GIAV booking
// request. Pure and deterministic: same inputs, same output, no I/O.
func Build(proposal *models.Proposal, version *models.ProposalVersion, snapshot types.Snapshot, resolutions Resolutions) (giav.BookingParams, error) {
	if proposal == nil {
		return giav.BookingParams{}, pkgerrors.New(pkgerrors.CodeValidation, "proposal is required")
	}
	if version == nil {
		return giav.BookingParams{}, pkgerrors.New(pkgerrors.CodeValidation, "version is required")
	}
	if version.PublicToken == "" {
		return giav.BookingParams{}, pkgerrors.New(pkgerrors.CodeValidation, "version public token is required")
	}

	params := giav.BookingParams{
		ExternalRef: version.PublicToken,
		Title:       snapshot.Header.Title,
		ClientName:  snapshot.Header.ClientName,
		StartDate:   formatDate(&snapshot.Header.StartDate),
		EndDate:     formatDate(&snapshot.Header.EndDate),
		Currency:    snapshot.Header.Currency,
		PaxTotal:    snapshot.Header.PaxTotal,
		TotalPVP:    snapshot.Totals.TotalPVP,
	}
	if proposal.GiavClientID != nil {
		params.ClientID = *proposal.GiavClientID
	}
	if proposal.GiavExpedienteID != nil {
		params.ExpedienteID = *proposal.GiavExpedienteID
	}

	lines := make([]giav.BookingLine, 0, len(snapshot.Items))
	for idx, item := range snapshot.Items {
		line := giav.BookingLine{
			ServiceType: item.Type.String(),
			Description: item.Name,
			Quantity:    item.Quantity,
			StartDate:   formatDate(item.StartDate),
			EndDate:     formatDate(item.EndDate),
			TotalCost:   item.LineCost(),
			TotalPVP:    item.LinePVP(),
		}

		if resolution, ok := resolutions[idx]; ok {
			line.SupplierID = resolution.SupplierID()
			line.SupplierName = resolution.Mapping.DisplayName
		} else {
			if item.SupplierID != nil {
				line.SupplierID = *item.SupplierID
			}
			if item.SupplierName != nil {
				line.SupplierName = *item.SupplierName
			}
		}
		lines = append(lines, line)
	}
	params.Lines = lines

	return params, nil
}

// Hash returns a stable SHA-256 over the canonical JSON encoding of the
// params, used for duplicate-attempt detection in the sync log.
func Hash(params giav.BookingParams) (string, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encoding booking params: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
