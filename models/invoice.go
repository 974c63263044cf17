package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a partner-issued sales invoice. Unique per dealer on its invoice
// number.
type Invoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	DealerId      string          `gorm:"uniqueIndex:idx_invoice_natural,priority:1;size:36;not null" json:"dealer_id"`
	InvoiceNumber string          `gorm:"uniqueIndex:idx_invoice_natural,priority:2;size:64;not null" json:"invoice_number"`
	CustomerName  string          `gorm:"size:255" json:"customer_name"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,6)" json:"total_amount"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(20,6)" json:"tax_amount"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceId" json:"lines"`
}

type InvoiceLine struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id"`
	Description string          `gorm:"size:255" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,6)" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,6)" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,6)" json:"amount"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
