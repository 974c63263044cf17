package dealersync

import (
	"errors"
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/dealersync_backend/models"
	"bitbucket.org/mmdatafocus/dealersync_backend/partnerapi"
	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type partnerProspect struct {
	ProspectNumber string                `json:"prospect_number"`
	CustomerName   string                `json:"customer_name"`
	Email          string                `json:"email"`
	Phone          string                `json:"phone"`
	Source         string                `json:"source"`
	Salesperson    string                `json:"salesperson"`
	ReceivedAt     string                `json:"received_at"`
	Units          []partnerProspectUnit `json:"units"`
}

type partnerProspectUnit struct {
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	Trim        string `json:"trim"`
	StockNumber string `json:"stock_number"`
}

type prospectMapper struct{}

func (prospectMapper) documentType() string {
	return DocTypeProspect
}

func (prospectMapper) persist(tx *gorm.DB, dealerId string, data []byte) (int, int, error) {
	var docs []partnerProspect
	if err := utils.UnmarshalFromJSON(data, &docs); err != nil {
		return 0, 0, fmt.Errorf("decode prospects: %w", err)
	}

	persisted, skipped := 0, 0
	for _, doc := range docs {
		number := strings.TrimSpace(doc.ProspectNumber)
		if number == "" {
			return persisted, skipped, errors.New("prospect number missing")
		}

		exists, err := naturalKeyExists(tx, &models.Prospect{}, "prospect_number", dealerId, number)
		if err != nil {
			return persisted, skipped, err
		}
		if exists {
			skipped++
			continue
		}

		record := models.Prospect{
			DealerId:       dealerId,
			ProspectNumber: number,
			CustomerName:   strings.TrimSpace(doc.CustomerName),
			Email:          strings.TrimSpace(doc.Email),
			Phone:          utils.NormalizePhone(doc.Phone),
			Source:         strings.TrimSpace(doc.Source),
			Salesperson:    strings.TrimSpace(doc.Salesperson),
			ReceivedAt:     parseTimeOrNow(doc.ReceivedAt),
		}
		for _, unit := range doc.Units {
			record.Units = append(record.Units, models.ProspectUnit{
				Make:        strings.TrimSpace(unit.Make),
				Model:       strings.TrimSpace(unit.Model),
				Year:        unit.Year,
				Trim:        strings.TrimSpace(unit.Trim),
				StockNumber: strings.TrimSpace(unit.StockNumber),
			})
		}
		if err := tx.Create(&record).Error; err != nil {
			return persisted, skipped, err
		}
		persisted++
	}
	return persisted, skipped, nil
}

func NewProspectProcessor(client *partnerapi.Client, logger *logrus.Logger) Processor {
	return newSyncProcessor(client, prospectMapper{}, logger)
}
