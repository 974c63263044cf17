package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/dealersync_backend/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dealer is a tenant account on whose behalf partner data is synchronized.
// The sync core only ever reads dealers; administration of this table lives
// in the dealer console.
type Dealer struct {
	ID           string    `gorm:"primary_key;size:36" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name" binding:"required"`
	ApiAccountId string    `gorm:"size:100" json:"api_account_id"`
	ApiKey       string    `gorm:"size:255" json:"api_key"`
	ApiSecret    string    `gorm:"type:text" json:"api_secret"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	IsSandbox    *bool     `gorm:"not null;default:false" json:"is_sandbox"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

/*
caches:
	Dealer:$dealerId
*/

func (d *Dealer) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(d.ID) == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (d Dealer) Active() bool {
	return d.IsActive != nil && *d.IsActive
}

func (d Dealer) Sandbox() bool {
	return d.IsSandbox != nil && *d.IsSandbox
}

// HasCredentials reports whether the dealer carries a usable partner API
// credential pair.
func (d Dealer) HasCredentials() bool {
	return strings.TrimSpace(d.ApiKey) != "" && strings.TrimSpace(d.ApiSecret) != ""
}

func (d Dealer) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("Dealer:" + d.ID)
}

// GetDealerById looks a dealer up through the redis cache, falling back to the
// database and refreshing the cache on a miss.
func GetDealerById(ctx context.Context, dealerId string) (Dealer, error) {
	dealerId = strings.TrimSpace(dealerId)
	if dealerId == "" {
		return Dealer{}, errors.New("dealer id is required")
	}

	var dealer Dealer
	exists, err := config.GetRedisObject("Dealer:"+dealerId, &dealer)
	if err == nil && exists {
		return dealer, nil
	}

	db := config.GetDB()
	if db == nil {
		return Dealer{}, errors.New("db is nil")
	}
	if err := db.WithContext(ctx).Where("id = ?", dealerId).Take(&dealer).Error; err != nil {
		return Dealer{}, err
	}

	_ = config.SetRedisObject("Dealer:"+dealer.ID, dealer, 10*time.Minute)
	return dealer, nil
}

// GetActiveDealerIds lists ids of all active dealers, for bulk enqueue.
func GetActiveDealerIds(ctx context.Context) ([]string, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	var ids []string
	if err := db.WithContext(ctx).
		Model(&Dealer{}).
		Where("is_active = ?", true).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
