package dealersync

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/dealersync_backend/models"
	"bitbucket.org/mmdatafocus/dealersync_backend/partnerapi"
	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type partnerInvoice struct {
	InvoiceNumber string               `json:"invoice_number"`
	CustomerName  string               `json:"customer_name"`
	InvoiceDate   string               `json:"invoice_date"`
	TotalAmount   json.Number          `json:"total_amount"`
	TaxAmount     json.Number          `json:"tax_amount"`
	Lines         []partnerInvoiceLine `json:"lines"`
}

type partnerInvoiceLine struct {
	Description string      `json:"description"`
	Quantity    json.Number `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	Amount      json.Number `json:"amount"`
}

type invoiceMapper struct{}

func (invoiceMapper) documentType() string {
	return DocTypeInvoice
}

func (invoiceMapper) persist(tx *gorm.DB, dealerId string, data []byte) (int, int, error) {
	var docs []partnerInvoice
	if err := utils.UnmarshalFromJSON(data, &docs); err != nil {
		return 0, 0, fmt.Errorf("decode invoices: %w", err)
	}

	persisted, skipped := 0, 0
	for _, doc := range docs {
		number := strings.TrimSpace(doc.InvoiceNumber)
		if number == "" {
			return persisted, skipped, errors.New("invoice number missing")
		}

		exists, err := naturalKeyExists(tx, &models.Invoice{}, "invoice_number", dealerId, number)
		if err != nil {
			return persisted, skipped, err
		}
		if exists {
			skipped++
			continue
		}

		record := models.Invoice{
			DealerId:      dealerId,
			InvoiceNumber: number,
			CustomerName:  strings.TrimSpace(doc.CustomerName),
			InvoiceDate:   parseTimeOrNow(doc.InvoiceDate),
			TotalAmount:   decimalFromNumber(doc.TotalAmount),
			TaxAmount:     decimalFromNumber(doc.TaxAmount),
		}
		for _, line := range doc.Lines {
			record.Lines = append(record.Lines, models.InvoiceLine{
				Description: strings.TrimSpace(line.Description),
				Quantity:    decimalFromNumber(line.Quantity),
				UnitPrice:   decimalFromNumber(line.UnitPrice),
				Amount:      decimalFromNumber(line.Amount),
			})
		}
		if err := tx.Create(&record).Error; err != nil {
			return persisted, skipped, err
		}
		persisted++
	}
	return persisted, skipped, nil
}

func NewInvoiceProcessor(client *partnerapi.Client, logger *logrus.Logger) Processor {
	return newSyncProcessor(client, invoiceMapper{}, logger)
}
