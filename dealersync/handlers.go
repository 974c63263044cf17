package dealersync

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/dealersync_backend/config"
	"bitbucket.org/mmdatafocus/dealersync_backend/models"
	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	"github.com/gin-gonic/gin"
)

type EnqueueJobRequest struct {
	DealerId     string            `json:"dealerId" binding:"required"`
	DocumentType string            `json:"documentType" binding:"required"`
	WindowFrom   time.Time         `json:"windowFrom" binding:"required"`
	WindowTo     time.Time         `json:"windowTo" binding:"required"`
	Filters      map[string]string `json:"filters"`
}

type BulkEnqueueJobRequest struct {
	DealerIds    []string          `json:"dealerIds"`
	AllActive    bool              `json:"allActive"`
	DocumentType string            `json:"documentType" binding:"required"`
	WindowFrom   time.Time         `json:"windowFrom" binding:"required"`
	WindowTo     time.Time         `json:"windowTo" binding:"required"`
	Filters      map[string]string `json:"filters"`
}

type JobResponse struct {
	ID           string            `json:"id"`
	DealerId     string            `json:"dealerId"`
	DocumentType string            `json:"documentType"`
	WindowFrom   string            `json:"windowFrom"`
	WindowTo     string            `json:"windowTo"`
	Filters      map[string]string `json:"filters,omitempty"`
	Status       JobStatus         `json:"status"`
	EnqueuedAt   string            `json:"enqueuedAt"`
	StartedAt    *string           `json:"startedAt"`
	CompletedAt  *string           `json:"completedAt"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	Result       *JobResultBody    `json:"result,omitempty"`
}

type JobResultBody struct {
	RecordsConsidered       int    `json:"recordsConsidered"`
	RecordsPersisted        int    `json:"recordsPersisted"`
	RecordsSkippedDuplicate int    `json:"recordsSkippedDuplicate"`
	Duration                string `json:"duration"`
}

type QueueStatusResponse struct {
	Running     *JobResponse  `json:"running"`
	QueueLength int           `json:"queueLength"`
	Queued      []JobResponse `json:"queued"`
}

func EnqueueJobHandler(m *QueueManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EnqueueJobRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		window := Window{From: req.WindowFrom, To: req.WindowTo}
		jobId, err := m.Enqueue(c.Request.Context(), req.DealerId, req.DocumentType, window, req.Filters)
		if err != nil {
			c.JSON(enqueueErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"jobId": jobId, "status": JobStatusQueued})
	}
}

func BulkEnqueueJobHandler(m *QueueManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkEnqueueJobRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		dealerIds := utils.UniqueSlice(req.DealerIds)
		if req.AllActive {
			ids, err := models.GetActiveDealerIds(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			dealerIds = ids
		}
		if len(dealerIds) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dealerIds is empty"})
			return
		}

		window := Window{From: req.WindowFrom, To: req.WindowTo}
		results := m.EnqueueBulk(c.Request.Context(), dealerIds, req.DocumentType, window, req.Filters)
		c.JSON(http.StatusAccepted, gin.H{"results": results})
	}
}

func QueueStatusHandler(m *QueueManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := m.Status()
		resp := QueueStatusResponse{
			QueueLength: status.QueueLength,
			Queued:      make([]JobResponse, 0, len(status.Queued)),
		}
		if status.Running != nil {
			running := mapJobToResponse(*status.Running)
			resp.Running = &running
		}
		for _, job := range status.Queued {
			resp.Queued = append(resp.Queued, mapJobToResponse(job))
		}
		c.JSON(http.StatusOK, resp)
	}
}

func JobStatusHandler(m *QueueManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := m.JobStatus(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, mapJobToResponse(job))
	}
}

func CancelJobHandler(m *QueueManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := m.Cancel(c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"cancelled": false, "error": "not found"})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"cancelled": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
	}
}

func ClearCompletedHandler(m *QueueManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		removed := m.ClearCompleted()
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	}
}

func FetchLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}

		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not ready"})
			return
		}
		query := db.WithContext(c.Request.Context()).Model(&models.FetchLog{})
		if dealerId := strings.TrimSpace(c.Query("dealer_id")); dealerId != "" {
			query = query.Where("dealer_id = ?", dealerId)
		}
		if documentType := strings.TrimSpace(c.Query("document_type")); documentType != "" {
			query = query.Where("document_type = ?", documentType)
		}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			query = query.Where("status = ?", status)
		}

		var logs []models.FetchLog
		if err := query.Order("id desc").Limit(limit).Find(&logs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": logs})
	}
}

func enqueueErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidWindow), errors.Is(err, ErrUnknownDocumentType):
		return http.StatusBadRequest
	case errors.Is(err, ErrDealerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDealerInactive):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func mapJobToResponse(job Job) JobResponse {
	resp := JobResponse{
		ID:           job.ID,
		DealerId:     job.DealerId,
		DocumentType: job.DocumentType,
		WindowFrom:   job.Window.From.UTC().Format(time.RFC3339),
		WindowTo:     job.Window.To.UTC().Format(time.RFC3339),
		Filters:      job.Filters,
		Status:       job.Status,
		EnqueuedAt:   job.EnqueuedAt.UTC().Format(time.RFC3339),
		StartedAt:    formatTime(job.StartedAt),
		CompletedAt:  formatTime(job.CompletedAt),
		ErrorMessage: job.ErrorMessage,
	}
	if job.Result != nil {
		resp.Result = &JobResultBody{
			RecordsConsidered:       job.Result.RecordsConsidered,
			RecordsPersisted:        job.Result.RecordsPersisted,
			RecordsSkippedDuplicate: job.Result.RecordsSkippedDuplicate,
			Duration:                job.Result.Duration.String(),
		}
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
