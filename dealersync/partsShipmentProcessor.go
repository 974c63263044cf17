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

type partnerPartsShipment struct {
	ShipmentNumber string                     `json:"shipment_number"`
	Carrier        string                     `json:"carrier"`
	Status         string                     `json:"status"`
	ShippedAt      string                     `json:"shipped_at"`
	Lines          []partnerPartsShipmentLine `json:"lines"`
}

type partnerPartsShipmentLine struct {
	PartNumber  string      `json:"part_number"`
	Description string      `json:"description"`
	Quantity    json.Number `json:"quantity"`
	UnitCost    json.Number `json:"unit_cost"`
}

type partsShipmentMapper struct{}

func (partsShipmentMapper) documentType() string {
	return DocTypePartsShipment
}

func (partsShipmentMapper) persist(tx *gorm.DB, dealerId string, data []byte) (int, int, error) {
	var docs []partnerPartsShipment
	if err := utils.UnmarshalFromJSON(data, &docs); err != nil {
		return 0, 0, fmt.Errorf("decode parts shipments: %w", err)
	}

	persisted, skipped := 0, 0
	for _, doc := range docs {
		number := strings.TrimSpace(doc.ShipmentNumber)
		if number == "" {
			return persisted, skipped, errors.New("shipment number missing")
		}

		exists, err := naturalKeyExists(tx, &models.PartsShipment{}, "shipment_number", dealerId, number)
		if err != nil {
			return persisted, skipped, err
		}
		if exists {
			skipped++
			continue
		}

		record := models.PartsShipment{
			DealerId:       dealerId,
			ShipmentNumber: number,
			Carrier:        strings.TrimSpace(doc.Carrier),
			Status:         strings.TrimSpace(doc.Status),
			ShippedAt:      parseTimeOrNow(doc.ShippedAt),
		}
		for _, line := range doc.Lines {
			record.Lines = append(record.Lines, models.PartsShipmentLine{
				PartNumber:  strings.TrimSpace(line.PartNumber),
				Description: strings.TrimSpace(line.Description),
				Quantity:    decimalFromNumber(line.Quantity),
				UnitCost:    decimalFromNumber(line.UnitCost),
			})
		}
		if err := tx.Create(&record).Error; err != nil {
			return persisted, skipped, err
		}
		persisted++
	}
	return persisted, skipped, nil
}

func NewPartsShipmentProcessor(client *partnerapi.Client, logger *logrus.Logger) Processor {
	return newSyncProcessor(client, partsShipmentMapper{}, logger)
}
