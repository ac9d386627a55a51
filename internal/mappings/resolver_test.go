package mappings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/config"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/db/models"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
)

func setupMappingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS giav_mappings (
  id TEXT PRIMARY KEY,
  object_type TEXT NOT NULL,
  object_id TEXT NOT NULL,
  giav_entity_type TEXT NOT NULL,
  giav_entity_id TEXT NOT NULL,
  display_name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  match_type TEXT NOT NULL DEFAULT 'manual',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (object_type, object_id)
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func testGiavConfig() config.GiavConfig {
	return config.GiavConfig{
		DefaultSupplierID: "PROV-GENERICO",
		RequiredTypes:     []string{"hotel", "golf"},
	}
}

func newTestResolver(t *testing.T, db *gorm.DB) Resolver {
	t.Helper()
	resolver, err := NewResolver(ResolverParams{Repo: NewRepository(db), Giav: testGiavConfig()})
	require.NoError(t, err)
	return resolver
}

func TestResolveSupplierActiveMapping(t *testing.T) {
	db := setupMappingsTestDB(t)
	objectID := uuid.New()

	require.NoError(t, db.Create(&models.GiavMapping{
		ID:             uuid.New(),
		ObjectType:     "hotel",
		ObjectID:       objectID,
		GiavEntityType: "proveedor",
		GiavEntityID:   "PROV-0042",
		DisplayName:    "Hotel La Cala",
		Status:         enums.MappingStatusActive,
		MatchType:      enums.MatchTypeManual,
	}).Error)

	resolver := newTestResolver(t, db)
	result, err := resolver.ResolveSupplier(context.Background(), "hotel", objectID)
	require.NoError(t, err)

	assert.Equal(t, ResultActive, result.Kind)
	assert.False(t, result.IsGeneric())
	assert.Equal(t, "PROV-0042", result.SupplierID())
	assert.Equal(t, "Hotel La Cala", result.Mapping.DisplayName)
}

func TestResolveSupplierUnmappedFallsBackToGeneric(t *testing.T) {
	db := setupMappingsTestDB(t)
	resolver := newTestResolver(t, db)

	result, err := resolver.ResolveSupplier(context.Background(), "golf", uuid.New())
	require.NoError(t, err)

	assert.Equal(t, ResultGenericFallback, result.Kind)
	assert.True(t, result.IsGeneric())
	assert.Equal(t, "PROV-GENERICO", result.SupplierID())
	assert.Equal(t, enums.MappingStatusNeedsReview, result.Mapping.Status)
	assert.Equal(t, enums.MatchTypeAutoGeneric, result.Mapping.MatchType)

	// The projection is read-time only, nothing may be written back.
	var count int64
	require.NoError(t, db.Model(&models.GiavMapping{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResolveSupplierIgnoresUntrustedMappings(t *testing.T) {
	db := setupMappingsTestDB(t)
	objectID := uuid.New()

	require.NoError(t, db.Create(&models.GiavMapping{
		ID:             uuid.New(),
		ObjectType:     "hotel",
		ObjectID:       objectID,
		GiavEntityType: "proveedor",
		GiavEntityID:   "PROV-0099",
		DisplayName:    "Hotel dudoso",
		Status:         enums.MappingStatusDeprecated,
		MatchType:      enums.MatchTypeImported,
	}).Error)

	resolver := newTestResolver(t, db)
	result, err := resolver.ResolveSupplier(context.Background(), "hotel", objectID)
	require.NoError(t, err)

	assert.True(t, result.IsGeneric(), "deprecated mappings must not resolve")
}

func TestResolveSupplierValidatesInput(t *testing.T) {
	db := setupMappingsTestDB(t)
	resolver := newTestResolver(t, db)

	_, err := resolver.ResolveSupplier(context.Background(), "", uuid.New())
	assert.Error(t, err)
	_, err = resolver.ResolveSupplier(context.Background(), "hotel", uuid.Nil)
	assert.Error(t, err)
}

func TestUpsertReplacesExistingMapping(t *testing.T) {
	db := setupMappingsTestDB(t)
	repo := NewRepository(db)
	objectID := uuid.New()

	first := &models.GiavMapping{
		ObjectType:     "hotel",
		ObjectID:       objectID,
		GiavEntityType: "proveedor",
		GiavEntityID:   "PROV-0001",
		DisplayName:    "Hotel uno",
		Status:         enums.MappingStatusActive,
		MatchType:      enums.MatchTypeManual,
	}
	require.NoError(t, repo.Upsert(context.Background(), first))

	second := &models.GiavMapping{
		ObjectType:     "hotel",
		ObjectID:       objectID,
		GiavEntityType: "proveedor",
		GiavEntityID:   "PROV-0002",
		DisplayName:    "Hotel uno corregido",
		Status:         enums.MappingStatusActive,
		MatchType:      enums.MatchTypeManual,
	}
	require.NoError(t, repo.Upsert(context.Background(), second))

	stored, err := repo.FindByObject(context.Background(), "hotel", objectID)
	require.NoError(t, err)
	assert.Equal(t, "PROV-0002", stored.GiavEntityID)

	var count int64
	require.NoError(t, db.Model(&models.GiavMapping{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
