package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvidalgarcia/golfviajes-backend/internal/mappings"
	"github.com/mvidalgarcia/golfviajes-backend/internal/payload"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/config"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

// Severity splits issues into blockers and review flags.
type Severity string

const (
	// SeverityHard blocks synchronization.
	SeverityHard Severity = "hard"
	// SeveritySoft is surfaced to operators but does not block.
	SeveritySoft Severity = "soft"
)

// Issue reason codes.
const (
	ReasonMissingName     = "missing_name"
	ReasonMissingSupplier = "missing_supplier"
	ReasonGenericSupplier = "generic_supplier"
)

// Issue describes one validation finding on a snapshot item.
type Issue struct {
	Severity  Severity `json:"severity"`
	ItemIndex int      `json:"item_index"`
	ItemName  string   `json:"item_name,omitempty"`
	Reason    string   `json:"reason"`
	Message   string   `json:"message"`
}

// Report is the deterministic outcome of a preflight check. OK is false only
// when a hard issue exists; soft issues ride along for the audit trail. The
// resolutions collected during the walk feed the payload builder so sync does
// not resolve the same suppliers twice.
type Report struct {
	OK          bool                `json:"ok"`
	Issues      []Issue             `json:"issues"`
	Resolutions payload.Resolutions `json:"-"`
}

// HardIssues returns only the blocking findings.
func (r Report) HardIssues() []Issue {
	var hard []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityHard {
			hard = append(hard, issue)
		}
	}
	return hard
}

// IssueSummaries renders the issues for audit metadata.
func (r Report) IssueSummaries() []string {
	summaries := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		summaries = append(summaries, fmt.Sprintf("[%s] item %d (%s): %s", issue.Severity, issue.ItemIndex, issue.Reason, issue.Message))
	}
	return summaries
}

// ValidatorParams groups dependencies for the preflight validator.
type ValidatorParams struct {
	Resolver mappings.Resolver
	Giav     config.GiavConfig
}

// Validator decides deterministically whether a snapshot may be synchronized.
type Validator interface {
	Check(ctx context.Context, snapshot types.Snapshot) (Report, error)
}

type validator struct {
	resolver mappings.Resolver
	giav     config.GiavConfig
}

// NewValidator builds a preflight validator with the required dependencies.
func NewValidator(params ValidatorParams) (Validator, error) {
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mapping resolver is required")
	}
	if len(params.Giav.RequiredTypes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required mapping types are required")
	}
	return &validator{resolver: params.Resolver, giav: params.Giav}, nil
}

// Check walks the snapshot items that require an external supplier identity.
// An item passes with its embedded supplier, or with a mapping resolved by
// reference; the generic fallback passes as a soft warning unless the
// require-real-match policy is on, in which case it blocks.
func (v *validator) Check(ctx context.Context, snapshot types.Snapshot) (Report, error) {
	report := Report{OK: true, Resolutions: payload.Resolutions{}}

	for idx, item := range snapshot.Items {
		if !v.giav.RequiresMapping(item.Type.String()) {
			continue
		}

		if strings.TrimSpace(item.Name) == "" {
			report.Issues = append(report.Issues, Issue{
				Severity:  SeverityHard,
				ItemIndex: idx,
				Reason:    ReasonMissingName,
				Message:   fmt.Sprintf("%s item has no display name", item.Type),
			})
		}

		if item.HasSupplier() {
			continue
		}

		if item.ResourceID == nil || item.ResourceType == "" {
			report.Issues = append(report.Issues, Issue{
				Severity:  SeverityHard,
				ItemIndex: idx,
				ItemName:  item.Name,
				Reason:    ReasonMissingSupplier,
				Message:   fmt.Sprintf("%s item %q has no supplier and no resource to resolve one from", item.Type, item.Name),
			})
			continue
		}

		resolution, err := v.resolver.ResolveSupplier(ctx, item.ResourceType, *item.ResourceID)
		if err != nil {
			return Report{}, err
		}
		report.Resolutions[idx] = resolution

		if resolution.IsGeneric() {
			severity := SeveritySoft
			if v.giav.RequireRealMatch {
				severity = SeverityHard
			}
			report.Issues = append(report.Issues, Issue{
				Severity:  severity,
				ItemIndex: idx,
				ItemName:  item.Name,
				Reason:    ReasonGenericSupplier,
				Message:   fmt.Sprintf("%s item %q resolved to the generic supplier %s", item.Type, item.Name, resolution.SupplierID()),
			})
		}
	}

	for _, issue := range report.Issues {
		if issue.Severity == SeverityHard {
			report.OK = false
			break
		}
	}
	return report, nil
}
