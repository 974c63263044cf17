package dealersync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/dealersync_backend/models"
	"github.com/gin-gonic/gin"
)

func handlerTestRouter(m *QueueManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/jobs", EnqueueJobHandler(m))
	r.POST("/jobs/:id/cancel", CancelJobHandler(m))
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestEnqueueJobHandlerResponse(t *testing.T) {
	dealers := &fakeDealers{dealers: map[string]models.Dealer{}}
	dealers.put(activeDealer("d1"))
	// Queue deliberately not started so the job stays queued.
	m, _ := newTestQueue(t, dealers, &fakeProcessor{docType: DocTypeProspect})
	r := handlerTestRouter(m)

	w := postJSON(t, r, "/jobs", `{
		"dealerId":     "d1",
		"documentType": "prospect",
		"windowFrom":   "2026-08-01T00:00:00Z",
		"windowTo":     "2026-08-02T00:00:00Z"
	}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d (%s)", w.Code, w.Body.String())
	}

	var resp struct {
		JobId  string `json:"jobId"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobId == "" {
		t.Fatal("response must carry the job id")
	}
	if resp.Status != string(JobStatusQueued) {
		t.Fatalf("response must report the queued status, got %q", resp.Status)
	}

	w = postJSON(t, r, "/jobs", `{
		"dealerId":     "missing",
		"documentType": "prospect",
		"windowFrom":   "2026-08-01T00:00:00Z",
		"windowTo":     "2026-08-02T00:00:00Z"
	}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown dealer should be 404, got %d", w.Code)
	}
}

func TestCancelJobHandlerResponse(t *testing.T) {
	dealers := &fakeDealers{dealers: map[string]models.Dealer{}}
	dealers.put(activeDealer("d1"))
	m, _ := newTestQueue(t, dealers, &fakeProcessor{docType: DocTypeProspect})
	r := handlerTestRouter(m)

	jobId, err := m.Enqueue(context.Background(), "d1", DocTypeProspect, testWindow(), nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	var resp struct {
		Cancelled bool   `json:"cancelled"`
		Error     string `json:"error"`
	}

	w := postJSON(t, r, "/jobs/"+jobId+"/cancel", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Cancelled {
		t.Fatalf("queued job cancel must report cancelled=true: %s", w.Body.String())
	}

	// Already terminal: cancelled=false plus the reason.
	w = postJSON(t, r, "/jobs/"+jobId+"/cancel", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Cancelled || resp.Error == "" {
		t.Fatalf("terminal job cancel must report cancelled=false with a reason: %s", w.Body.String())
	}

	w = postJSON(t, r, "/jobs/no-such-job/cancel", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Cancelled {
		t.Fatalf("unknown job cancel must report cancelled=false: %s", w.Body.String())
	}
}
