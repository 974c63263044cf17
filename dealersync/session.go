package dealersync

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/dealersync_backend/config"
	"bitbucket.org/mmdatafocus/dealersync_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	sessionAttempts  = 3
	fetchLogAttempts = 2
	sessionBackoff   = 2 * time.Second
)

// SessionFactory hands out database sessions that are known to be live.
// MySQL drops idle connections between jobs, so every job starts by probing
// and reconnecting instead of trusting whatever the pool has.
type SessionFactory struct {
	open    func(ctx context.Context) (*gorm.DB, error)
	probe   func(db *gorm.DB) error
	backoff time.Duration
	logger  *logrus.Logger
}

func NewSessionFactory(logger *logrus.Logger) *SessionFactory {
	return &SessionFactory{
		open: func(ctx context.Context) (*gorm.DB, error) {
			db := config.GetDB()
			if db == nil {
				return nil, ErrStorageUnavailable
			}
			return db.WithContext(ctx), nil
		},
		probe: func(db *gorm.DB) error {
			return db.Exec("SELECT 1").Error
		},
		backoff: sessionBackoff,
		logger:  logger,
	}
}

// Acquire returns a probed session, retrying up to sessionAttempts with a
// fixed backoff. After the budget is spent it reports ErrStorageUnavailable
// wrapping the last probe error.
func (f *SessionFactory) Acquire(ctx context.Context) (*gorm.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= sessionAttempts; attempt++ {
		db, err := f.open(ctx)
		if err == nil {
			if err = f.probe(db); err == nil {
				return db, nil
			}
		}
		lastErr = err
		f.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("database session probe failed")
		if attempt < sessionAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.backoff):
			}
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, lastErr)
}

// WriteFetchLog records a job outcome on a fresh session. The audit write gets
// a smaller retry budget than job sessions; if it still fails the job result
// stands and the loss is only logged.
func (f *SessionFactory) WriteFetchLog(ctx context.Context, entry *models.FetchLog) error {
	var lastErr error
	for attempt := 1; attempt <= fetchLogAttempts; attempt++ {
		db, err := f.open(ctx)
		if err == nil {
			if err = db.Create(entry).Error; err == nil {
				return nil
			}
		}
		lastErr = err
		if attempt < fetchLogAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.backoff):
			}
		}
	}
	return fmt.Errorf("write fetch log: %w", lastErr)
}
