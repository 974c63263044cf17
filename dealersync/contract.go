package dealersync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/dealersync_backend/models"
	"bitbucket.org/mmdatafocus/dealersync_backend/partnerapi"
	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Processor executes one sync job for a single document type.
type Processor interface {
	DocumentType() string
	Execute(ctx context.Context, db *gorm.DB, dealer models.Dealer, window Window, filters map[string]string) (SyncResult, error)
}

type dataSource int

const (
	sourceLive dataSource = iota
	sourceSample
)

// documentMapper is the per-type half of a processor: decode the partner
// payload and upsert it inside the job transaction.
type documentMapper interface {
	documentType() string
	persist(tx *gorm.DB, dealerId string, data []byte) (persisted int, skipped int, err error)
}

// syncProcessor runs the shared fetch → validate → persist pipeline for every
// document type; the mapper supplies the type-specific decode and upsert.
type syncProcessor struct {
	client  *partnerapi.Client
	mapper  documentMapper
	logger  *logrus.Logger
	archive func(ctx context.Context, objectName string, data []byte) error
}

func newSyncProcessor(client *partnerapi.Client, mapper documentMapper, logger *logrus.Logger) *syncProcessor {
	return &syncProcessor{client: client, mapper: mapper, logger: logger, archive: utils.ArchiveEnvelope}
}

func (p *syncProcessor) DocumentType() string {
	return p.mapper.documentType()
}

// chooseDataSource decides sample versus live once, before any network I/O.
// Sandbox dealers and dealers without credentials get sample data; everyone
// else gets the live API with no fallback. A live fetch that fails must fail
// the job, never silently hand back sample records.
func chooseDataSource(dealer models.Dealer) dataSource {
	if dealer.Sandbox() || !dealer.HasCredentials() {
		return sourceSample
	}
	return sourceLive
}

// fetchData always yields an envelope: live responses pass through untouched,
// and transport failures become a status-0 envelope carrying the real error.
func (p *syncProcessor) fetchData(ctx context.Context, dealer models.Dealer, window Window, filters map[string]string) partnerapi.Envelope {
	if chooseDataSource(dealer) == sourceSample {
		return partnerapi.SampleEnvelope(p.DocumentType(), dealer.ID, window.From, window.To)
	}

	creds := partnerapi.Credentials{
		AccountId: dealer.ApiAccountId,
		ApiKey:    dealer.ApiKey,
		ApiSecret: dealer.ApiSecret,
	}
	req := partnerapi.FetchRequest{
		FromTime: window.From.UTC().Format(time.RFC3339),
		ToTime:   window.To.UTC().Format(time.RFC3339),
		DealerId: dealer.ID,
		Filters:  filters,
	}
	envelope, err := p.client.FetchDocuments(ctx, p.DocumentType(), creds, req)
	if err != nil {
		return partnerapi.ErrorEnvelope(err.Error())
	}
	return envelope
}

// validateEnvelope rejects anything but a well-formed success envelope. The
// partner's message travels verbatim into the resulting error.
func validateEnvelope(envelope partnerapi.Envelope) error {
	if !envelope.OK() {
		message := strings.TrimSpace(envelope.Message)
		if message == "" {
			message = "partner api returned error status with no message"
		}
		return &APIError{Message: message}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &APIError{Message: "partner api returned empty data payload"}
	}
	return nil
}

func (p *syncProcessor) Execute(ctx context.Context, db *gorm.DB, dealer models.Dealer, window Window, filters map[string]string) (SyncResult, error) {
	started := time.Now()
	result := SyncResult{}

	envelope := p.fetchData(ctx, dealer, window, filters)
	// Archival is best effort; a dead bucket must not fail the job.
	if err := p.archive(ctx, archiveObjectName(dealer.ID, p.DocumentType(), started), envelope.Data); err != nil {
		p.logger.WithFields(logrus.Fields{
			"dealer_id":     dealer.ID,
			"document_type": p.DocumentType(),
		}).WithError(err).Warn("envelope archive failed")
	}

	if err := validateEnvelope(envelope); err != nil {
		result.Duration = time.Since(started)
		return result, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		persisted, skipped, err := p.mapper.persist(tx, dealer.ID, envelope.Data)
		if err != nil {
			return &PersistError{Err: err}
		}
		result.RecordsPersisted = persisted
		result.RecordsSkippedDuplicate = skipped
		result.RecordsConsidered = persisted + skipped
		return nil
	})
	result.Duration = time.Since(started)
	if err != nil {
		return result, err
	}

	p.logger.WithFields(logrus.Fields{
		"dealer_id":     dealer.ID,
		"document_type": p.DocumentType(),
		"persisted":     result.RecordsPersisted,
		"skipped":       result.RecordsSkippedDuplicate,
	}).Debug("documents persisted")
	return result, nil
}

func archiveObjectName(dealerId string, documentType string, at time.Time) string {
	return fmt.Sprintf("envelopes/%s/%s/%s.json", dealerId, documentType, at.UTC().Format("20060102T150405.000"))
}
