package dealersync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/dealersync_backend/models"
	"bitbucket.org/mmdatafocus/dealersync_backend/partnerapi"
	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
)

func TestChooseDataSource(t *testing.T) {
	live := models.Dealer{
		ID:        "d1",
		ApiKey:    "key",
		ApiSecret: "secret",
		IsActive:  utils.NewTrue(),
		IsSandbox: utils.NewFalse(),
	}
	if chooseDataSource(live) != sourceLive {
		t.Fatal("dealer with credentials should use the live api")
	}

	sandbox := live
	sandbox.IsSandbox = utils.NewTrue()
	if chooseDataSource(sandbox) != sourceSample {
		t.Fatal("sandbox dealer should use sample data")
	}

	noCreds := live
	noCreds.ApiSecret = ""
	if chooseDataSource(noCreds) != sourceSample {
		t.Fatal("dealer without credentials should use sample data")
	}
}

func TestValidateEnvelope(t *testing.T) {
	err := validateEnvelope(partnerapi.Envelope{Status: 0, Message: "account suspended"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "account suspended" {
		t.Fatalf("partner message must pass through verbatim, got %q", apiErr.Message)
	}

	if err := validateEnvelope(partnerapi.Envelope{Status: 0}); err == nil || !strings.Contains(err.Error(), "no message") {
		t.Fatalf("status-0 envelope without message should still fail, got %v", err)
	}
	if err := validateEnvelope(partnerapi.Envelope{Status: 1}); err == nil {
		t.Fatal("success envelope without data should fail")
	}
	if err := validateEnvelope(partnerapi.Envelope{Status: 1, Data: json.RawMessage(`null`)}); err == nil {
		t.Fatal("success envelope with null data should fail")
	}
	if err := validateEnvelope(partnerapi.Envelope{Status: 1, Data: json.RawMessage(`[]`)}); err != nil {
		t.Fatalf("well-formed envelope should validate, got %v", err)
	}
}

func TestFetchDataSandboxSkipsNetwork(t *testing.T) {
	// A nil client proves the sandbox path never goes near the wire.
	p := newSyncProcessor(nil, prospectMapper{}, testLogger())

	dealer := activeDealer("sandbox-dealer")
	envelope := p.fetchData(context.Background(), dealer, testWindow(), nil)
	if !envelope.OK() {
		t.Fatalf("sample envelope should be OK: %+v", envelope)
	}

	var docs []partnerProspect
	if err := json.Unmarshal(envelope.Data, &docs); err != nil {
		t.Fatalf("sample data must decode as prospects: %v", err)
	}
	if len(docs) == 0 {
		t.Fatal("sample data is empty")
	}
	for _, doc := range docs {
		if strings.TrimSpace(doc.ProspectNumber) == "" {
			t.Fatal("sample prospects must carry natural keys")
		}
	}

	again := p.fetchData(context.Background(), dealer, testWindow(), nil)
	if string(again.Data) != string(envelope.Data) {
		t.Fatal("sample data must be deterministic for the same dealer and window")
	}
}

func TestFetchDataLiveFailureBecomesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "partner maintenance window", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	t.Setenv("PARTNER_API_BASE_URL", srv.URL)
	t.Setenv("PARTNER_RATE_LIMIT_PER_MIN", "60000")

	p := newSyncProcessor(partnerapi.NewClient(), prospectMapper{}, testLogger())
	dealer := models.Dealer{
		ID:        "d1",
		ApiKey:    "key",
		ApiSecret: "secret",
		IsActive:  utils.NewTrue(),
		IsSandbox: utils.NewFalse(),
	}

	envelope := p.fetchData(context.Background(), dealer, testWindow(), nil)
	if envelope.OK() {
		t.Fatal("live failure must not produce a success envelope")
	}
	if !strings.Contains(envelope.Message, "partner maintenance window") {
		t.Fatalf("real error must be preserved, got %q", envelope.Message)
	}
	if strings.Contains(strings.ToLower(envelope.Message), "sample") {
		t.Fatal("live failure must never fall back to sample data")
	}
	if len(envelope.Data) != 0 {
		t.Fatal("error envelope must not carry data")
	}
}

func TestExecuteSurvivesArchiveFailure(t *testing.T) {
	db, mock := newMockDB(t)

	// Sandbox sample data carries two prospects; both land in one transaction.
	mock.ExpectBegin()
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(countProspects).WillReturnRows(prospectCount(0))
		mock.ExpectExec(insertProspects).WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
		mock.ExpectExec(insertProspectUnit).WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	logger, hook := logrustest.NewNullLogger()
	p := newSyncProcessor(nil, prospectMapper{}, logger)
	p.archive = func(ctx context.Context, objectName string, data []byte) error {
		return errors.New("bucket gone")
	}

	result, err := p.Execute(context.Background(), db, activeDealer("d1"), testWindow(), nil)
	if err != nil {
		t.Fatalf("archive failure must not fail the job: %v", err)
	}
	if result.RecordsPersisted != 2 {
		t.Fatalf("expected 2 persisted, got %+v", result)
	}

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "envelope archive failed") {
			warned = true
		}
	}
	if !warned {
		t.Fatal("archive failure must be logged")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExecuteFailsOnErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(partnerapi.Envelope{Status: 0, Message: "invalid signature"})
	}))
	defer srv.Close()
	t.Setenv("PARTNER_API_BASE_URL", srv.URL)
	t.Setenv("PARTNER_RATE_LIMIT_PER_MIN", "60000")

	p := newSyncProcessor(partnerapi.NewClient(), prospectMapper{}, testLogger())
	dealer := models.Dealer{
		ID:        "d1",
		ApiKey:    "key",
		ApiSecret: "wrong",
		IsActive:  utils.NewTrue(),
		IsSandbox: utils.NewFalse(),
	}

	// db is never touched when validation fails, so nil is safe here.
	result, err := p.Execute(context.Background(), nil, dealer, testWindow(), nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "invalid signature" {
		t.Fatalf("expected verbatim partner message, got %q", apiErr.Message)
	}
	if result.Duration <= 0 {
		t.Fatal("duration should be measured even on failure")
	}
	if result.RecordsConsidered != 0 || result.RecordsPersisted != 0 {
		t.Fatalf("failed fetch must not report records: %+v", result)
	}
}
