package dealersync

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

const (
	DocTypeProspect      = "prospect"
	DocTypeServiceOrder  = "service_order"
	DocTypePartsShipment = "parts_shipment"
	DocTypeInvoice       = "invoice"
)

// Window is the half-open fetch range [From, To] requested from the partner.
type Window struct {
	From time.Time
	To   time.Time
}

// SyncResult summarizes one completed job. RecordsConsidered is everything the
// partner returned; persisted plus duplicate-skipped always adds up to it.
type SyncResult struct {
	RecordsConsidered       int
	RecordsPersisted        int
	RecordsSkippedDuplicate int
	Duration                time.Duration
}

type Job struct {
	ID           string
	DealerId     string
	DocumentType string
	Window       Window
	Filters      map[string]string

	Status       JobStatus
	EnqueuedAt   time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Result       *SyncResult
	ErrorMessage string
}

func newJob(dealerId string, documentType string, window Window, filters map[string]string) *Job {
	return &Job{
		ID:           uuid.NewString(),
		DealerId:     dealerId,
		DocumentType: documentType,
		Window:       window,
		Filters:      filters,
		Status:       JobStatusQueued,
		EnqueuedAt:   time.Now(),
	}
}

func (j *Job) terminal() bool {
	switch j.Status {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// snapshot copies the job for handing outside the queue lock.
func (j *Job) snapshot() Job {
	out := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	if j.Result != nil {
		r := *j.Result
		out.Result = &r
	}
	return out
}
