package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartsShipment is an inbound parts delivery fetched from the partner API.
// Unique per dealer on its shipment number.
type PartsShipment struct {
	ID             int       `gorm:"primary_key" json:"id"`
	DealerId       string    `gorm:"uniqueIndex:idx_parts_shipment_natural,priority:1;size:36;not null" json:"dealer_id"`
	ShipmentNumber string    `gorm:"uniqueIndex:idx_parts_shipment_natural,priority:2;size:64;not null" json:"shipment_number"`
	Carrier        string    `gorm:"size:100" json:"carrier"`
	Status         string    `gorm:"size:30" json:"status"`
	ShippedAt      time.Time `json:"shipped_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	Lines []PartsShipmentLine `gorm:"foreignKey:PartsShipmentId" json:"lines"`
}

type PartsShipmentLine struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PartsShipmentId int             `gorm:"index;not null" json:"parts_shipment_id"`
	PartNumber      string          `gorm:"size:64" json:"part_number"`
	Description     string          `gorm:"size:255" json:"description"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,6)" json:"quantity"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,6)" json:"unit_cost"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
