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

type partnerServiceOrder struct {
	OrderNumber  string                    `json:"order_number"`
	CustomerName string                    `json:"customer_name"`
	VehicleVin   string                    `json:"vehicle_vin"`
	Status       string                    `json:"status"`
	OpenedAt     string                    `json:"opened_at"`
	TotalAmount  json.Number               `json:"total_amount"`
	Lines        []partnerServiceOrderLine `json:"lines"`
}

type partnerServiceOrderLine struct {
	LineType    string      `json:"line_type"`
	OpCode      string      `json:"op_code"`
	Description string      `json:"description"`
	Quantity    json.Number `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	Amount      json.Number `json:"amount"`
}

type serviceOrderMapper struct{}

func (serviceOrderMapper) documentType() string {
	return DocTypeServiceOrder
}

func (serviceOrderMapper) persist(tx *gorm.DB, dealerId string, data []byte) (int, int, error) {
	var docs []partnerServiceOrder
	if err := utils.UnmarshalFromJSON(data, &docs); err != nil {
		return 0, 0, fmt.Errorf("decode service orders: %w", err)
	}

	persisted, skipped := 0, 0
	for _, doc := range docs {
		number := strings.TrimSpace(doc.OrderNumber)
		if number == "" {
			return persisted, skipped, errors.New("service order number missing")
		}

		exists, err := naturalKeyExists(tx, &models.ServiceOrder{}, "order_number", dealerId, number)
		if err != nil {
			return persisted, skipped, err
		}
		if exists {
			skipped++
			continue
		}

		record := models.ServiceOrder{
			DealerId:     dealerId,
			OrderNumber:  number,
			CustomerName: strings.TrimSpace(doc.CustomerName),
			VehicleVin:   strings.ToUpper(strings.TrimSpace(doc.VehicleVin)),
			Status:       strings.TrimSpace(doc.Status),
			OpenedAt:     parseTimeOrNow(doc.OpenedAt),
			TotalAmount:  decimalFromNumber(doc.TotalAmount),
		}
		for _, line := range doc.Lines {
			lineType := strings.TrimSpace(line.LineType)
			if lineType != models.ServiceLineTypeLabor && lineType != models.ServiceLineTypePart {
				lineType = models.ServiceLineTypeLabor
			}
			record.Lines = append(record.Lines, models.ServiceOrderLine{
				LineType:    lineType,
				OpCode:      strings.TrimSpace(line.OpCode),
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

func NewServiceOrderProcessor(client *partnerapi.Client, logger *logrus.Logger) Processor {
	return newSyncProcessor(client, serviceOrderMapper{}, logger)
}
