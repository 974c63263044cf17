package dealersync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/dealersync_backend/config"
	"bitbucket.org/mmdatafocus/dealersync_backend/models"
	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const writerLockKey = "dealersync:writer"

// DealerRegistry is the dealer lookup the queue depends on.
type DealerRegistry interface {
	GetDealerById(ctx context.Context, dealerId string) (models.Dealer, error)
}

type dbDealerRegistry struct{}

func (dbDealerRegistry) GetDealerById(ctx context.Context, dealerId string) (models.Dealer, error) {
	return models.GetDealerById(ctx, dealerId)
}

type BulkEnqueueResult struct {
	DealerId string `json:"dealerId"`
	JobId    string `json:"jobId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type QueueStatus struct {
	Running     *Job
	QueueLength int
	Queued      []Job
}

// QueueManager owns the FIFO job queue and the single worker that drains it.
// Jobs never run concurrently; at most one is executing at any moment, with a
// pacing pause between consecutive jobs so the partner API is not hammered.
type QueueManager struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*Job
	jobs    map[string]*Job
	current *Job
	stopped bool
	wg      sync.WaitGroup

	registry *Registry
	dealers  DealerRegistry
	logger   *logrus.Logger
	tracer   trace.Tracer
	pacing   time.Duration

	// Seams for tests; defaults go through SessionFactory, redislock and
	// pubsub.
	acquireSession func(ctx context.Context) (*gorm.DB, error)
	writeFetchLog  func(ctx context.Context, entry *models.FetchLog) error
	obtainLock     func(ctx context.Context) (func(), error)
	publishEvent   func(ctx context.Context, job Job)
}

func NewQueueManager(registry *Registry, sessions *SessionFactory, logger *logrus.Logger) *QueueManager {
	pacing := 500 * time.Millisecond
	if v := strings.TrimSpace(os.Getenv("SYNC_PACING_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			pacing = time.Duration(n) * time.Millisecond
		}
	}

	m := &QueueManager{
		jobs:           make(map[string]*Job),
		registry:       registry,
		dealers:        dbDealerRegistry{},
		logger:         logger,
		tracer:         otel.Tracer("dealersync"),
		pacing:         pacing,
		acquireSession: sessions.Acquire,
		writeFetchLog:  sessions.WriteFetchLog,
	}
	m.cond = sync.NewCond(&m.mu)
	m.obtainLock = m.redisWriterLock
	m.publishEvent = func(ctx context.Context, job Job) {
		if err := PublishJobEvent(ctx, job); err != nil {
			logger.WithField("job_id", job.ID).WithError(err).Debug("job event not published")
		}
	}
	return m
}

// Enqueue validates the request and appends a job to the tail of the queue.
// Validation failures never enter the queue.
func (m *QueueManager) Enqueue(ctx context.Context, dealerId string, documentType string, window Window, filters map[string]string) (string, error) {
	if window.From.After(window.To) {
		return "", ErrInvalidWindow
	}
	if _, ok := m.registry.Resolve(documentType); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDocumentType, documentType)
	}

	dealer, err := m.dealers.GetDealerById(ctx, dealerId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrDealerNotFound
		}
		return "", err
	}
	if !dealer.Active() {
		return "", ErrDealerInactive
	}

	job := newJob(dealerId, documentType, window, filters)

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return "", errors.New("queue is shut down")
	}
	m.queue = append(m.queue, job)
	m.jobs[job.ID] = job
	m.cond.Signal()
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"job_id":        job.ID,
		"dealer_id":     dealerId,
		"document_type": documentType,
	}).Info("sync job enqueued")
	return job.ID, nil
}

// EnqueueBulk enqueues one job per dealer in the given order. Each dealer is
// validated independently; one bad dealer does not block the rest.
func (m *QueueManager) EnqueueBulk(ctx context.Context, dealerIds []string, documentType string, window Window, filters map[string]string) []BulkEnqueueResult {
	results := make([]BulkEnqueueResult, 0, len(dealerIds))
	for _, dealerId := range dealerIds {
		jobId, err := m.Enqueue(ctx, dealerId, documentType, window, filters)
		result := BulkEnqueueResult{DealerId: dealerId, JobId: jobId}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// Cancel removes a queued job. A running job cannot be interrupted and
// terminal jobs stay as they finished.
func (m *QueueManager) Cancel(jobId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobId]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status != JobStatusQueued {
		return fmt.Errorf("job %s is %s and cannot be cancelled", jobId, job.Status)
	}

	for i, queued := range m.queue {
		if queued.ID == jobId {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	now := time.Now()
	job.Status = JobStatusCancelled
	job.CompletedAt = &now
	return nil
}

func (m *QueueManager) JobStatus(jobId string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobId]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job.snapshot(), nil
}

func (m *QueueManager) Status() QueueStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := QueueStatus{QueueLength: len(m.queue)}
	if m.current != nil {
		snap := m.current.snapshot()
		status.Running = &snap
	}
	for _, job := range m.queue {
		status.Queued = append(status.Queued, job.snapshot())
	}
	return status
}

// ClearCompleted drops terminal jobs from the in-memory index and returns how
// many were removed. Their fetch logs remain in the database.
func (m *QueueManager) ClearCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, job := range m.jobs {
		if job.terminal() {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

func (m *QueueManager) Start() {
	m.wg.Add(1)
	go m.run()
}

// Stop lets an in-flight job finish and abandons whatever is still queued.
// Blocks until the worker goroutine exits.
func (m *QueueManager) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.cond.Broadcast()
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *QueueManager) run() {
	defer m.wg.Done()

	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.stopped {
			m.cond.Wait()
		}
		if m.stopped {
			m.mu.Unlock()
			return
		}
		job := m.queue[0]
		m.queue = m.queue[1:]
		now := time.Now()
		job.Status = JobStatusRunning
		job.StartedAt = &now
		m.current = job
		m.mu.Unlock()

		result, err := m.runJob(job)

		m.mu.Lock()
		done := time.Now()
		job.CompletedAt = &done
		if err != nil {
			job.Status = JobStatusFailed
			job.ErrorMessage = err.Error()
		} else {
			job.Status = JobStatusSucceeded
			r := result
			job.Result = &r
		}
		m.current = nil
		snap := job.snapshot()
		m.mu.Unlock()

		m.finishJob(snap)

		if m.pacing > 0 {
			time.Sleep(m.pacing)
		}
	}
}

// runJob executes one job end to end. A job failure is contained here; the
// worker loop keeps going regardless of the outcome.
func (m *QueueManager) runJob(job *Job) (SyncResult, error) {
	ctx := context.Background()
	ctx = utils.SetJobIdInContext(ctx, job.ID)
	ctx = utils.SetCorrelationIdInContext(ctx, uuid.NewString())
	ctx = utils.SetDealerIdInContext(ctx, job.DealerId)

	ctx, span := m.tracer.Start(ctx, "sync.job", trace.WithAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("dealer.id", job.DealerId),
		attribute.String("document.type", job.DocumentType),
	))
	defer span.End()

	release, err := m.obtainLock(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("acquire writer lock: %w", err)
	}
	defer release()

	dealer, err := m.dealers.GetDealerById(ctx, job.DealerId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SyncResult{}, ErrDealerNotFound
		}
		return SyncResult{}, err
	}
	if !dealer.Active() {
		return SyncResult{}, ErrDealerInactive
	}

	processor, ok := m.registry.Resolve(job.DocumentType)
	if !ok {
		return SyncResult{}, ErrUnknownDocumentType
	}

	db, err := m.acquireSession(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	return processor.Execute(ctx, db, dealer, job.Window, job.Filters)
}

// finishJob records the terminal state: fetch log row, pubsub event, log line.
// Each is best-effort and independent of the others.
func (m *QueueManager) finishJob(job Job) {
	ctx := context.Background()
	ctx = utils.SetJobIdInContext(ctx, job.ID)

	entry := &models.FetchLog{
		JobId:        job.ID,
		DealerId:     job.DealerId,
		DocumentType: job.DocumentType,
		Status:       models.FetchLogStatusSuccess,
	}
	if job.StartedAt != nil {
		entry.StartedAt = *job.StartedAt
	}
	if job.Result != nil {
		entry.RecordsFetched = job.Result.RecordsConsidered
		entry.DurationSeconds = int(job.Result.Duration.Round(time.Second) / time.Second)
	}
	if job.Status == JobStatusFailed {
		entry.Status = models.FetchLogStatusFailed
		message := job.ErrorMessage
		entry.ErrorMessage = &message
		if job.StartedAt != nil && job.CompletedAt != nil {
			entry.DurationSeconds = int(job.CompletedAt.Sub(*job.StartedAt).Round(time.Second) / time.Second)
		}
	}
	if err := m.writeFetchLog(ctx, entry); err != nil {
		config.LogError(m.logger, "dealersync", "finishJob", "write fetch log", map[string]any{"job_id": job.ID}, err)
	}

	m.publishEvent(ctx, job)

	fields := logrus.Fields{
		"job_id":        job.ID,
		"dealer_id":     job.DealerId,
		"document_type": job.DocumentType,
		"status":        job.Status,
	}
	if job.Result != nil {
		fields["records_considered"] = job.Result.RecordsConsidered
		fields["records_persisted"] = job.Result.RecordsPersisted
		fields["records_skipped"] = job.Result.RecordsSkippedDuplicate
	}
	if job.Status == JobStatusFailed {
		fields["error"] = job.ErrorMessage
		m.logger.WithFields(fields).Error("sync job failed")
		return
	}
	m.logger.WithFields(fields).Info("sync job finished")
}

// redisWriterLock serializes writers across replicas. When redis is not
// configured the lock degrades to a no-op and the in-process worker is the
// only serialization.
func (m *QueueManager) redisWriterLock(ctx context.Context) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lock, err := locker.Obtain(ctx, writerLockKey, 15*time.Minute, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(time.Second), 30),
	})
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			m.logger.WithError(err).Warn("writer lock release failed")
		}
	}, nil
}
