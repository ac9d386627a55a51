package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
)

// Snapshot is the immutable priced content of a proposal at one version.
// Corrections never mutate a snapshot; they produce a new version.
type Snapshot struct {
	Header SnapshotHeader `json:"header"`
	Items  []SnapshotItem `json:"items"`
	Totals SnapshotTotals `json:"totals"`
}

// SnapshotHeader carries the trip-level fields every item shares.
type SnapshotHeader struct {
	Title      string    `json:"title"`
	ClientName string    `json:"client_name"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Currency   string    `json:"currency"`
	PaxTotal   int       `json:"pax_total"`
	Players    int       `json:"players"`
}

// SnapshotItem is one priced service line, denormalized into the snapshot.
// Line totals are always derived from quantity and unit price (or the GIAV
// pricing override), never stored independently of their inputs.
type SnapshotItem struct {
	Type         enums.LineItemType `json:"type"`
	Name         string             `json:"name"`
	ResourceType string             `json:"resource_type,omitempty"`
	ResourceID   *uuid.UUID         `json:"resource_id,omitempty"`
	SupplierID   *string            `json:"giav_supplier_id,omitempty"`
	SupplierName *string            `json:"giav_supplier_name,omitempty"`
	Quantity     int                `json:"quantity"`
	UnitCost     decimal.Decimal    `json:"unit_cost"`
	UnitPVP      decimal.Decimal    `json:"unit_pvp"`
	StartDate    *time.Time         `json:"start_date,omitempty"`
	EndDate      *time.Time         `json:"end_date,omitempty"`
	GiavPricing  *GiavPricing       `json:"giav_pricing,omitempty"`
}

// HasSupplier reports whether the item carries a non-empty resolved GIAV
// supplier identity.
func (i SnapshotItem) HasSupplier() bool {
	return i.SupplierID != nil && *i.SupplierID != ""
}

// LinePVP returns the line sell total: the GIAV override when present,
// otherwise quantity times unit sell price.
func (i SnapshotItem) LinePVP() decimal.Decimal {
	if i.GiavPricing != nil && i.GiavPricing.GiavTotalPVP != nil {
		return *i.GiavPricing.GiavTotalPVP
	}
	return i.UnitPVP.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineCost returns the line cost total: the GIAV override when present,
// otherwise quantity times unit cost.
func (i SnapshotItem) LineCost() decimal.Decimal {
	if i.GiavPricing != nil && i.GiavPricing.GiavTotalNet != nil {
		return *i.GiavPricing.GiavTotalNet
	}
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RoomCategoryPricing is the per-occupancy-category room block on hotel items.
type RoomCategoryPricing struct {
	Enabled  bool            `json:"enabled"`
	Rooms    int             `json:"rooms"`
	TotalPVP decimal.Decimal `json:"total_pvp"`
}

// Capacity returns the person capacity of the category: two per double room,
// one per single room.
func (r RoomCategoryPricing) Capacity(double bool) int {
	if !r.Enabled || r.Rooms <= 0 {
		return 0
	}
	if double {
		return r.Rooms * 2
	}
	return r.Rooms
}

// GiavPricing is the hotel sub-object produced by occupancy-based pricing.
// Its totals take precedence over the generic quantity-times-price model
// because room occupancy rules cannot be expressed by that model.
type GiavPricing struct {
	Double       RoomCategoryPricing `json:"double"`
	Single       RoomCategoryPricing `json:"single"`
	GiavTotalPVP *decimal.Decimal    `json:"giav_total_pvp,omitempty"`
	GiavTotalNet *decimal.Decimal    `json:"giav_total_net,omitempty"`
}

// SnapshotTotals are the computed trip totals, duplicated onto the version row
// for fast listing.
type SnapshotTotals struct {
	TotalCost decimal.Decimal `json:"total_cost"`
	TotalPVP  decimal.Decimal `json:"total_pvp"`
	MarginAbs decimal.Decimal `json:"margin_abs"`
	MarginPct decimal.Decimal `json:"margin_pct"`
}
