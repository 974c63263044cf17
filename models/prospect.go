package models

import (
	"time"
)

// Prospect is a sales lead fetched from the partner API. Unique per dealer on
// its partner-assigned prospect number; created once and never updated in
// place by the sync subsystem.
type Prospect struct {
	ID             int       `gorm:"primary_key" json:"id"`
	DealerId       string    `gorm:"uniqueIndex:idx_prospect_natural,priority:1;size:36;not null" json:"dealer_id"`
	ProspectNumber string    `gorm:"uniqueIndex:idx_prospect_natural,priority:2;size:64;not null" json:"prospect_number"`
	CustomerName   string    `gorm:"size:255" json:"customer_name"`
	Email          string    `gorm:"size:100" json:"email"`
	Phone          string    `gorm:"size:30" json:"phone"`
	Source         string    `gorm:"size:100" json:"source"`
	Salesperson    string    `gorm:"size:100" json:"salesperson"`
	ReceivedAt     time.Time `json:"received_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	Units []ProspectUnit `gorm:"foreignKey:ProspectId" json:"units"`
}

// ProspectUnit is a vehicle of interest attached to a prospect. Only ever
// created together with its parent.
type ProspectUnit struct {
	ID          int       `gorm:"primary_key" json:"id"`
	ProspectId  int       `gorm:"index;not null" json:"prospect_id"`
	Make        string    `gorm:"size:64" json:"make"`
	Model       string    `gorm:"size:64" json:"model"`
	Year        int       `json:"year"`
	Trim        string    `gorm:"size:64" json:"trim"`
	StockNumber string    `gorm:"size:64" json:"stock_number"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
