package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceOrder is a repair order fetched from the partner API. Unique per
// dealer on its RO number.
type ServiceOrder struct {
	ID           int             `gorm:"primary_key" json:"id"`
	DealerId     string          `gorm:"uniqueIndex:idx_service_order_natural,priority:1;size:36;not null" json:"dealer_id"`
	OrderNumber  string          `gorm:"uniqueIndex:idx_service_order_natural,priority:2;size:64;not null" json:"order_number"`
	CustomerName string          `gorm:"size:255" json:"customer_name"`
	VehicleVin   string          `gorm:"size:32" json:"vehicle_vin"`
	Status       string          `gorm:"size:30" json:"status"`
	OpenedAt     time.Time       `json:"opened_at"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,6)" json:"total_amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Lines []ServiceOrderLine `gorm:"foreignKey:ServiceOrderId" json:"lines"`
}

const (
	ServiceLineTypeLabor = "labor"
	ServiceLineTypePart  = "part"
)

type ServiceOrderLine struct {
	ID             int             `gorm:"primary_key" json:"id"`
	ServiceOrderId int             `gorm:"index;not null" json:"service_order_id"`
	LineType       string          `gorm:"size:20" json:"line_type"`
	OpCode         string          `gorm:"size:32" json:"op_code"`
	Description    string          `gorm:"size:255" json:"description"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,6)" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,6)" json:"unit_price"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,6)" json:"amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
