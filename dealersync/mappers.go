package dealersync

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// naturalKeyExists checks for an already-synced parent row. Duplicates are
// skipped rather than updated; the partner's record is the source of truth
// only the first time we see a natural key.
func naturalKeyExists(tx *gorm.DB, model any, column string, dealerId string, key string) (bool, error) {
	var count int64
	err := tx.Model(model).
		Where("dealer_id = ? AND "+column+" = ?", dealerId, key).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func decimalFromNumber(num json.Number) decimal.Decimal {
	if num.String() == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(num.String()); err == nil {
		return d
	}
	return decimal.Zero
}

func parseTimeOrNow(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now()
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Now()
}
