package dealersync

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// The queue tests stay DB-free; these pin the two persistence guarantees the
// mappers own — duplicate natural keys are counted skips, and a parent row
// never survives a failed child insert — against the SQL gorm actually emits.

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:               gormlogger.Discard,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	return db, mock
}

var (
	countProspects     = regexp.QuoteMeta("SELECT count(*) FROM `prospects`")
	insertProspects    = regexp.QuoteMeta("INSERT INTO `prospects`")
	insertProspectUnit = regexp.QuoteMeta("INSERT INTO `prospect_units`")
)

func prospectCount(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count(*)"}).AddRow(n)
}

func TestPersistSkipsAlreadySyncedNaturalKeys(t *testing.T) {
	db, mock := newMockDB(t)
	payload := []byte(`[{
		"prospect_number": "P-1001",
		"customer_name":   "Dana Olsen",
		"email":           "dana@example.com",
		"phone":           "+12025550143",
		"source":          "web",
		"salesperson":     "Kim",
		"received_at":     "2026-08-01T09:00:00Z",
		"units": [{"make": "Ford", "model": "Ranger", "year": 2025, "trim": "XLT", "stock_number": "STK-9"}]
	}]`)

	mock.ExpectQuery(countProspects).WillReturnRows(prospectCount(0))
	mock.ExpectBegin()
	mock.ExpectExec(insertProspects).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insertProspectUnit).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	persisted, skipped, err := prospectMapper{}.persist(db, "dealer-1", payload)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if persisted != 1 || skipped != 0 {
		t.Fatalf("first run should insert: persisted=%d skipped=%d", persisted, skipped)
	}

	// Same payload again: the natural key now exists, so nothing is written
	// and the duplicate is counted.
	mock.ExpectQuery(countProspects).WillReturnRows(prospectCount(1))

	persisted2, skipped2, err := prospectMapper{}.persist(db, "dealer-1", payload)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if persisted2 != 0 {
		t.Fatalf("re-run must not insert, persisted=%d", persisted2)
	}
	if skipped2 != persisted {
		t.Fatalf("re-run skips must equal first-run inserts: skipped=%d persisted=%d", skipped2, persisted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExecuteRollsBackWhenChildInsertFails(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(countProspects).WillReturnRows(prospectCount(0))
	mock.ExpectExec(insertProspects).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insertProspectUnit).WillReturnError(errors.New("unit write refused"))
	mock.ExpectRollback()

	p := newSyncProcessor(nil, prospectMapper{}, testLogger())
	result, err := p.Execute(context.Background(), db, activeDealer("d1"), testWindow(), nil)

	var persistErr *PersistError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistError, got %v", err)
	}
	if result.RecordsPersisted != 0 {
		t.Fatalf("rolled-back job must not report persisted records: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("parent insert must be rolled back with the child: %v", err)
	}
}
