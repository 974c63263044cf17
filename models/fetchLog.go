package models

import (
	"time"
)

const (
	FetchLogStatusSuccess = "success"
	FetchLogStatusFailed  = "failed"
)

// FetchLog is the durable audit record of every executed sync job. One row per
// job execution, written after the job reaches a terminal state; never updated.
type FetchLog struct {
	ID              uint      `gorm:"primary_key" json:"id"`
	JobId           string    `gorm:"index;size:36;not null" json:"job_id"`
	DealerId        string    `gorm:"index;size:36;not null" json:"dealer_id"`
	DocumentType    string    `gorm:"index;size:50;not null" json:"document_type"`
	Status          string    `gorm:"size:20;not null" json:"status"`
	RecordsFetched  int       `json:"records_fetched"`
	DurationSeconds int       `json:"duration_seconds"`
	StartedAt       time.Time `json:"started_at"`
	ErrorMessage    *string   `gorm:"type:text" json:"error_message"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}
