package dealersync

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestAcquireRecoversFromStaleConnections(t *testing.T) {
	probes := 0
	f := &SessionFactory{
		open: func(ctx context.Context) (*gorm.DB, error) { return &gorm.DB{}, nil },
		probe: func(db *gorm.DB) error {
			probes++
			if probes < 3 {
				return errors.New("driver: bad connection")
			}
			return nil
		},
		backoff: time.Millisecond,
		logger:  testLogger(),
	}

	db, err := f.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected the third attempt to succeed, got %v", err)
	}
	if db == nil {
		t.Fatal("expected a session")
	}
	if probes != 3 {
		t.Fatalf("expected 3 probes, got %d", probes)
	}
}

func TestAcquireGivesUpAfterBudget(t *testing.T) {
	probes := 0
	f := &SessionFactory{
		open: func(ctx context.Context) (*gorm.DB, error) { return &gorm.DB{}, nil },
		probe: func(db *gorm.DB) error {
			probes++
			return errors.New("driver: bad connection")
		},
		backoff: time.Millisecond,
		logger:  testLogger(),
	}

	_, err := f.Acquire(context.Background())
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if probes != sessionAttempts {
		t.Fatalf("expected %d probes, got %d", sessionAttempts, probes)
	}
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &SessionFactory{
		open: func(ctx context.Context) (*gorm.DB, error) { return &gorm.DB{}, nil },
		probe: func(db *gorm.DB) error {
			cancel()
			return errors.New("driver: bad connection")
		},
		backoff: time.Minute,
		logger:  testLogger(),
	}

	_, err := f.Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWriteFetchLogExhaustsSmallerBudget(t *testing.T) {
	opens := 0
	f := &SessionFactory{
		open: func(ctx context.Context) (*gorm.DB, error) {
			opens++
			return nil, errors.New("dial tcp: connection refused")
		},
		backoff: time.Millisecond,
		logger:  testLogger(),
	}

	err := f.WriteFetchLog(context.Background(), nil)
	if err == nil {
		t.Fatal("expected an error once the budget is spent")
	}
	if opens != fetchLogAttempts {
		t.Fatalf("expected %d attempts, got %d", fetchLogAttempts, opens)
	}
}
