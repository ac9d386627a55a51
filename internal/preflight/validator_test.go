package preflight

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvidalgarcia/golfviajes-backend/internal/mappings"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/config"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

type stubResolver struct {
	results map[uuid.UUID]mappings.Result
	err     error
	calls   int
}

func (s *stubResolver) ResolveSupplier(_ context.Context, objectType string, objectID uuid.UUID) (mappings.Result, error) {
	s.calls++
	if s.err != nil {
		return mappings.Result{}, s.err
	}
	if result, ok := s.results[objectID]; ok {
		return result, nil
	}
	return mappings.Result{
		Kind: mappings.ResultGenericFallback,
		Mapping: models.GiavMapping{
			GiavEntityID: "PROV-GENERICO",
			DisplayName:  "Proveedor genérico",
			Status:       enums.MappingStatusNeedsReview,
			MatchType:    enums.MatchTypeAutoGeneric,
		},
	}, nil
}

func giavCfg(requireReal bool) config.GiavConfig {
	return config.GiavConfig{
		DefaultSupplierID: "PROV-GENERICO",
		RequiredTypes:     []string{"hotel", "golf"},
		RequireRealMatch:  requireReal,
	}
}

func newValidator(t *testing.T, resolver mappings.Resolver, requireReal bool) Validator {
	t.Helper()
	v, err := NewValidator(ValidatorParams{Resolver: resolver, Giav: giavCfg(requireReal)})
	require.NoError(t, err)
	return v
}

func strPtr(s string) *string      { return &s }
func uuidPtr(u uuid.UUID) *uuid.UUID { return &u }

func TestCheckPassesWithEmbeddedSuppliers(t *testing.T) {
	resolver := &stubResolver{}
	v := newValidator(t, resolver, false)

	snapshot := types.Snapshot{Items: []types.SnapshotItem{
		{Type: enums.LineItemTypeHotel, Name: "Hotel Playa", SupplierID: strPtr("PROV-1")},
		{Type: enums.LineItemTypeGolf, Name: "Green fees", SupplierID: strPtr("PROV-2")},
		{Type: enums.LineItemTypeTransfer, Name: "Shuttle"},
	}}

	report, err := v.Check(context.Background(), snapshot)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Empty(t, report.Issues)
	assert.Zero(t, resolver.calls, "embedded suppliers should not hit the resolver")
}

func TestCheckHardFailsOnMissingSupplier(t *testing.T) {
	v := newValidator(t, &stubResolver{}, false)

	snapshot := types.Snapshot{Items: []types.SnapshotItem{
		{Type: enums.LineItemTypeHotel, Name: "Hotel sin proveedor"},
	}}

	report, err := v.Check(context.Background(), snapshot)
	require.NoError(t, err)
	assert.False(t, report.OK)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, SeverityHard, report.Issues[0].Severity)
	assert.Equal(t, ReasonMissingSupplier, report.Issues[0].Reason)
}

func TestCheckHardFailsOnMissingName(t *testing.T) {
	v := newValidator(t, &stubResolver{}, false)

	snapshot := types.Snapshot{Items: []types.SnapshotItem{
		{Type: enums.LineItemTypeGolf, Name: "  ", SupplierID: strPtr("PROV-2")},
	}}

	report, err := v.Check(context.Background(), snapshot)
	require.NoError(t, err)
	assert.False(t, report.OK)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, ReasonMissingName, report.Issues[0].Reason)
}

func TestCheckGenericFallbackIsSoftByDefault(t *testing.T) {
	resourceID := uuid.New()
	v := newValidator(t, &stubResolver{}, false)

	snapshot := types.Snapshot{Items: []types.SnapshotItem{
		{
			Type:         enums.LineItemTypeHotel,
			Name:         "Hotel sin mapear",
			ResourceType: "hotel",
			ResourceID:   uuidPtr(resourceID),
		},
	}}

	report, err := v.Check(context.Background(), snapshot)
	require.NoError(t, err)
	assert.True(t, report.OK, "generic fallback must not block by default")
	require.Len(t, report.Issues, 1)
	assert.Equal(t, SeveritySoft, report.Issues[0].Severity)
	assert.Equal(t, ReasonGenericSupplier, report.Issues[0].Reason)

	resolution, ok := report.Resolutions[0]
	require.True(t, ok, "resolution must be collected for the payload builder")
	assert.True(t, resolution.IsGeneric())
}

func TestCheckGenericFallbackBlocksWhenRealMatchRequired(t *testing.T) {
	resourceID := uuid.New()
	v := newValidator(t, &stubResolver{}, true)

	snapshot := types.Snapshot{Items: []types.SnapshotItem{
		{
			Type:         enums.LineItemTypeHotel,
			Name:         "Hotel sin mapear",
			ResourceType: "hotel",
			ResourceID:   uuidPtr(resourceID),
		},
	}}

	report, err := v.Check(context.Background(), snapshot)
	require.NoError(t, err)
	assert.False(t, report.OK)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, SeverityHard, report.Issues[0].Severity)
}

func TestCheckActiveMappingResolvesCleanly(t *testing.T) {
	resourceID := uuid.New()
	resolver := &stubResolver{results: map[uuid.UUID]mappings.Result{
		resourceID: {
			Kind: mappings.ResultActive,
			Mapping: models.GiavMapping{
				GiavEntityID: "PROV-0042",
				DisplayName:  "Club de Golf",
				Status:       enums.MappingStatusActive,
			},
		},
	}}
	v := newValidator(t, resolver, true)

	snapshot := types.Snapshot{Items: []types.SnapshotItem{
		{
			Type:         enums.LineItemTypeGolf,
			Name:         "Green fees",
			ResourceType: "golf_course",
			ResourceID:   uuidPtr(resourceID),
		},
	}}

	report, err := v.Check(context.Background(), snapshot)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Empty(t, report.Issues)
	assert.Equal(t, "PROV-0042", report.Resolutions[0].SupplierID())
}

func TestCheckIgnoresUnrequiredTypes(t *testing.T) {
	v := newValidator(t, &stubResolver{}, true)

	snapshot := types.Snapshot{Items: []types.SnapshotItem{
		{Type: enums.LineItemTypeTransfer, Name: "Shuttle"},
		{Type: enums.LineItemTypeExtra, Name: "Seguro"},
	}}

	report, err := v.Check(context.Background(), snapshot)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Empty(t, report.Issues)
}
