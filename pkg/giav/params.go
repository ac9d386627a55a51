package giav

import (
	"github.com/shopspring/decimal"
)

// BookingParams is the body of a CrearReserva call. Field names follow the
// GIAV back office API, which is Spanish throughout.
type BookingParams struct {
	ExternalRef  string        `json:"referencia_externa"`
	ClientID     string        `json:"cliente_id,omitempty"`
	ExpedienteID string        `json:"expediente_id,omitempty"`
	Title        string        `json:"titulo"`
	ClientName   string        `json:"nombre_cliente"`
	StartDate    string        `json:"fecha_inicio"`
	EndDate      string        `json:"fecha_fin"`
	Currency     string        `json:"divisa"`
	PaxTotal     int           `json:"pax"`
	TotalPVP     decimal.Decimal `json:"total_pvp"`
	Lines        []BookingLine `json:"lineas"`
}

// BookingLine is one service row inside a booking.
type BookingLine struct {
	ServiceType  string          `json:"tipo_servicio"`
	Description  string          `json:"descripcion"`
	SupplierID   string          `json:"proveedor_id"`
	SupplierName string          `json:"proveedor_nombre,omitempty"`
	Quantity     int             `json:"cantidad"`
	StartDate    string          `json:"fecha_inicio,omitempty"`
	EndDate      string          `json:"fecha_fin,omitempty"`
	TotalCost    decimal.Decimal `json:"total_coste"`
	TotalPVP     decimal.Decimal `json:"total_pvp"`
}

// BookingResult is the subset of the CrearReserva response the engine keeps.
type BookingResult struct {
	BookingID    string `json:"reserva_id"`
	ExpedienteID string `json:"expediente_id,omitempty"`
	ClientID     string `json:"cliente_id,omitempty"`
	Status       string `json:"estado,omitempty"`
}
