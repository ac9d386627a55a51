package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func hotelItem(double, single types.RoomCategoryPricing) types.SnapshotItem {
	return types.SnapshotItem{
		Type: enums.LineItemTypeHotel,
		Name: "Hotel",
		GiavPricing: &types.GiavPricing{
			Double: double,
			Single: single,
		},
	}
}

func golfItem(qty int, unitPVP string) types.SnapshotItem {
	return types.SnapshotItem{
		Type:     enums.LineItemTypeGolf,
		Name:     "Green fees",
		Quantity: qty,
		UnitPVP:  dec(unitPVP),
	}
}

func TestAllocateWorkedExample(t *testing.T) {
	// pax 4, players 2, one hotel with 2 double rooms selling 800,
	// golf selling 400, trip total 1400.
	snapshot := types.Snapshot{
		Header: types.SnapshotHeader{PaxTotal: 4, Players: 2},
		Items: []types.SnapshotItem{
			hotelItem(types.RoomCategoryPricing{Enabled: true, Rooms: 2, TotalPVP: dec("800")}, types.RoomCategoryPricing{}),
			golfItem(1, "400"),
		},
		Totals: types.SnapshotTotals{TotalPVP: dec("1400")},
	}

	b := Allocate(snapshot)

	assert.True(t, b.CommonPerPerson.Equal(dec("50")), "common per person: %s", b.CommonPerPerson)
	assert.Equal(t, OccupancyDouble, b.BaseCategory)
	assert.True(t, b.PerPersonBase.Equal(dec("250")), "per person base: %s", b.PerPersonBase)
	assert.True(t, b.PricePlayer.Equal(dec("450")), "player price: %s", b.PricePlayer)
	assert.True(t, b.PriceNonPlayer.Equal(dec("250")), "non-player price: %s", b.PriceNonPlayer)
	assert.False(t, b.HasSingleSupplement)
}

func TestAllocateIsTotalPreserving(t *testing.T) {
	snapshot := types.Snapshot{
		Header: types.SnapshotHeader{PaxTotal: 6, Players: 3},
		Items: []types.SnapshotItem{
			hotelItem(types.RoomCategoryPricing{Enabled: true, Rooms: 3, TotalPVP: dec("1320.60")}, types.RoomCategoryPricing{}),
			golfItem(3, "85.50"),
			{Type: enums.LineItemTypeTransfer, Name: "Aeropuerto", Quantity: 1, UnitPVP: dec("180")},
		},
		Totals: types.SnapshotTotals{TotalPVP: dec("1757.10")},
	}

	b := Allocate(snapshot)

	players := decimal.NewFromInt(3)
	nonPlayers := decimal.NewFromInt(3)
	reconstructed := b.PricePlayer.Mul(players).Add(b.PriceNonPlayer.Mul(nonPlayers))
	diff := reconstructed.Sub(snapshot.Totals.TotalPVP).Abs()
	require.True(t, diff.LessThan(dec("0.01")), "reconstructed %s vs total %s", reconstructed, snapshot.Totals.TotalPVP)
}

func TestAllocateZeroPaxAndZeroCapacity(t *testing.T) {
	snapshot := types.Snapshot{
		Header: types.SnapshotHeader{PaxTotal: 0, Players: 0},
		Items: []types.SnapshotItem{
			hotelItem(types.RoomCategoryPricing{Enabled: true, Rooms: 0, TotalPVP: dec("500")}, types.RoomCategoryPricing{}),
			golfItem(1, "100"),
		},
		Totals: types.SnapshotTotals{TotalPVP: dec("600")},
	}

	b := Allocate(snapshot)

	assert.True(t, b.CommonPerPerson.IsZero())
	assert.True(t, b.PerPersonBase.IsZero())
	assert.True(t, b.PricePlayer.IsZero(), "no players, golf must not be allocated")
}

func TestAllocateSingleSupplement(t *testing.T) {
	snapshot := types.Snapshot{
		Header: types.SnapshotHeader{PaxTotal: 5, Players: 0},
		Items: []types.SnapshotItem{
			hotelItem(
				types.RoomCategoryPricing{Enabled: true, Rooms: 2, TotalPVP: dec("800")},
				types.RoomCategoryPricing{Enabled: true, Rooms: 1, TotalPVP: dec("300")},
			),
		},
		Totals: types.SnapshotTotals{TotalPVP: dec("1100")},
	}

	b := Allocate(snapshot)

	// double: 800/4 = 200, single: 300/1 = 300, supplement 100.
	require.True(t, b.HasSingleSupplement)
	assert.True(t, b.SingleSupplement.Equal(dec("100")), "supplement: %s", b.SingleSupplement)
	assert.Equal(t, OccupancyDouble, b.BaseCategory)
}

func TestAllocateSupplementNeverNegative(t *testing.T) {
	snapshot := types.Snapshot{
		Header: types.SnapshotHeader{PaxTotal: 3, Players: 0},
		Items: []types.SnapshotItem{
			hotelItem(
				types.RoomCategoryPricing{Enabled: true, Rooms: 1, TotalPVP: dec("600")},
				types.RoomCategoryPricing{Enabled: true, Rooms: 1, TotalPVP: dec("100")},
			),
		},
		Totals: types.SnapshotTotals{TotalPVP: dec("700")},
	}

	b := Allocate(snapshot)
	require.True(t, b.HasSingleSupplement)
	assert.True(t, b.SingleSupplement.IsZero())
}

func TestAllocateFallsBackToSingleCategory(t *testing.T) {
	snapshot := types.Snapshot{
		Header: types.SnapshotHeader{PaxTotal: 2, Players: 0},
		Items: []types.SnapshotItem{
			hotelItem(
				types.RoomCategoryPricing{},
				types.RoomCategoryPricing{Enabled: true, Rooms: 2, TotalPVP: dec("500")},
			),
		},
		Totals: types.SnapshotTotals{TotalPVP: dec("500")},
	}

	b := Allocate(snapshot)

	assert.Equal(t, OccupancySingle, b.BaseCategory)
	assert.True(t, b.PerPersonBase.Equal(dec("250")), "per person base: %s", b.PerPersonBase)
	assert.False(t, b.HasSingleSupplement)
}

func TestAllocateGolfOverrideTakesPrecedence(t *testing.T) {
	override := dec("350")
	snapshot := types.Snapshot{
		Header: types.SnapshotHeader{PaxTotal: 2, Players: 2},
		Items: []types.SnapshotItem{
			{
				Type:        enums.LineItemTypeGolf,
				Name:        "Green fees",
				Quantity:    2,
				UnitPVP:     dec("200"),
				GiavPricing: &types.GiavPricing{GiavTotalPVP: &override},
			},
		},
		Totals: types.SnapshotTotals{TotalPVP: dec("350")},
	}

	b := Allocate(snapshot)
	assert.True(t, b.GolfTotal.Equal(dec("350")), "golf total: %s", b.GolfTotal)
}
