package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/types"
)

// Occupancy names the room category a per-person price is quoted against.
type Occupancy string

const (
	OccupancyDouble Occupancy = "double"
	OccupancySingle Occupancy = "single"
)

// Breakdown is the deterministic per-person price derivation for one snapshot.
// All values keep full decimal precision; rounding happens at presentation.
type Breakdown struct {
	TotalTrip       decimal.Decimal `json:"total_trip"`
	CommonPerPerson decimal.Decimal `json:"common_per_person"`

	HotelDoubleTotal decimal.Decimal `json:"hotel_double_total"`
	HotelSingleTotal decimal.Decimal `json:"hotel_single_total"`
	GolfTotal        decimal.Decimal `json:"golf_total"`
	DoubleCapacity   int             `json:"double_capacity"`
	SingleCapacity   int             `json:"single_capacity"`

	BaseCategory   Occupancy       `json:"base_category"`
	PerPersonBase  decimal.Decimal `json:"per_person_base"`
	PricePlayer    decimal.Decimal `json:"price_player"`
	PriceNonPlayer decimal.Decimal `json:"price_non_player"`

	// SingleSupplement is only meaningful when HasSingleSupplement is true,
	// which requires both occupancy categories on the same stay.
	HasSingleSupplement bool            `json:"has_single_supplement"`
	SingleSupplement    decimal.Decimal `json:"single_supplement"`
}

// Allocate derives the per-person breakdown from a snapshot's items, header,
// and cached totals. Pure, no I/O; zero pax or zero room capacity yields zero
// prices, never a division fault.
func Allocate(snapshot types.Snapshot) Breakdown {
	b := Breakdown{
		TotalTrip:    snapshot.Totals.TotalPVP,
		BaseCategory: OccupancyDouble,
	}

	for _, item := range snapshot.Items {
		switch item.Type {
		case enums.LineItemTypeHotel:
			if item.GiavPricing == nil {
				continue
			}
			if item.GiavPricing.Double.Enabled {
				b.HotelDoubleTotal = b.HotelDoubleTotal.Add(item.GiavPricing.Double.TotalPVP)
				b.DoubleCapacity += item.GiavPricing.Double.Capacity(true)
			}
			if item.GiavPricing.Single.Enabled {
				b.HotelSingleTotal = b.HotelSingleTotal.Add(item.GiavPricing.Single.TotalPVP)
				b.SingleCapacity += item.GiavPricing.Single.Capacity(false)
			}
		case enums.LineItemTypeGolf:
			b.GolfTotal = b.GolfTotal.Add(item.LinePVP())
		}
	}

	common := b.TotalTrip.
		Sub(b.HotelDoubleTotal).
		Sub(b.HotelSingleTotal).
		Sub(b.GolfTotal)
	b.CommonPerPerson = safeDiv(common, snapshot.Header.PaxTotal)

	perPersonDouble := safeDiv(b.HotelDoubleTotal, b.DoubleCapacity).Add(b.CommonPerPerson)
	perPersonSingle := safeDiv(b.HotelSingleTotal, b.SingleCapacity).Add(b.CommonPerPerson)

	if b.DoubleCapacity == 0 && b.SingleCapacity > 0 {
		b.BaseCategory = OccupancySingle
		b.PerPersonBase = perPersonSingle
	} else {
		b.PerPersonBase = perPersonDouble
	}

	b.PricePlayer = b.PerPersonBase
	if b.GolfTotal.IsPositive() && snapshot.Header.Players > 0 {
		b.PricePlayer = b.PerPersonBase.Add(safeDiv(b.GolfTotal, snapshot.Header.Players))
	}
	b.PriceNonPlayer = b.PerPersonBase

	if b.DoubleCapacity > 0 && b.SingleCapacity > 0 {
		b.HasSingleSupplement = true
		supplement := perPersonSingle.Sub(perPersonDouble)
		if supplement.IsNegative() {
			supplement = decimal.Zero
		}
		b.SingleSupplement = supplement
	}

	return b
}

func safeDiv(total decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count)))
}
