package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/timmy/medloader/internal/domain"
	"github.com/timmy/medloader/internal/logger"
	"github.com/timmy/medloader/internal/service"
	"github.com/timmy/medloader/internal/store"
)

// fakeDirectory is a minimal upstream fake for handler tests.
type fakeDirectory struct {
	mu          sync.Mutex
	nextID      int64
	createErr   error
	activateErr error
}

func (f *fakeDirectory) CreateHospital(ctx context.Context, name, address, phone, batchID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeDirectory) ActivateBatch(ctx context.Context, batchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activateErr
}

func newTestRouter(client *fakeDirectory) (*gin.Engine, *store.BatchStore) {
	gin.SetMode(gin.TestMode)

	batches := store.New()
	bulk := service.NewBulkService(client, batches, logger.GetDefault(), &service.BulkConfig{RowLimit: 20})
	h := NewBulkHandler(bulk, batches)

	r := gin.New()
	r.POST("/api/v1/hospitals/bulk", h.Upload)
	r.GET("/api/v1/hospitals/bulk/:batch_id", h.Status)
	r.POST("/api/v1/hospitals/bulk/:batch_id/resume", h.Resume)
	return r, batches
}

// csvUpload builds a multipart body carrying one CSV file part.
func csvUpload(t *testing.T, content, contentType string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="hospitals.csv"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func doUpload(t *testing.T, r *gin.Engine, content, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	body, formType := csvUpload(t, content, contentType)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hospitals/bulk", body)
	req.Header.Set("Content-Type", formType)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const validCSV = "name,address,phone\nGeneral Hospital,1 Main St,2125550100\n"

func TestUploadSuccess(t *testing.T) {
	r, _ := newTestRouter(&fakeDirectory{})

	rec := doUpload(t, r, validCSV, "text/csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result domain.BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.BatchID == "" {
		t.Error("batch_id missing in response")
	}
	if !result.BatchActivated || result.ProcessedHospitals != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Hospitals[0].Status != domain.RowStatusCreatedAndActivated {
		t.Errorf("unexpected row status: %s", result.Hospitals[0].Status)
	}
}

func TestUploadUnsupportedContentType(t *testing.T) {
	r, _ := newTestRouter(&fakeDirectory{})

	rec := doUpload(t, r, validCSV, "application/pdf")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unsupported content type") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestUploadMissingFile(t *testing.T) {
	r, _ := newTestRouter(&fakeDirectory{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hospitals/bulk", strings.NewReader(""))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadRowLimitExceeded(t *testing.T) {
	r, _ := newTestRouter(&fakeDirectory{})

	var sb strings.Builder
	sb.WriteString("name,address,phone\n")
	for i := 0; i < 25; i++ {
		sb.WriteString("Hospital,Somewhere,2125550100\n")
	}

	rec := doUpload(t, r, sb.String(), "text/csv")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp struct {
		Detail string `json:"detail"`
		Limit  int    `json:"limit"`
		Actual int    `json:"actual"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Limit != 20 || resp.Actual != 25 {
		t.Errorf("unexpected limit/actual: %d/%d", resp.Limit, resp.Actual)
	}
}

func TestUploadMissingHeader(t *testing.T) {
	r, _ := newTestRouter(&fakeDirectory{})

	rec := doUpload(t, r, "name,address\nA,B\n", "text/csv")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid CSV format.") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "phone") {
		t.Errorf("missing column not named in body: %s", rec.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	r, _ := newTestRouter(&fakeDirectory{})

	rec := doUpload(t, r, validCSV, "text/csv")
	var result domain.BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}

	statusRec := httptest.NewRecorder()
	r.ServeHTTP(statusRec, httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/bulk/"+result.BatchID, nil))
	if statusRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", statusRec.Code)
	}

	var snap domain.BatchSnapshot
	if err := json.Unmarshal(statusRec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.BatchID != result.BatchID || snap.Status != domain.BatchStatusCompleted {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestStatusUnknownBatch(t *testing.T) {
	r, _ := newTestRouter(&fakeDirectory{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/bulk/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestResumeUnknownBatch(t *testing.T) {
	r, _ := newTestRouter(&fakeDirectory{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/hospitals/bulk/unknown/resume", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestResumeWithoutFailedRows(t *testing.T) {
	r, _ := newTestRouter(&fakeDirectory{})

	rec := doUpload(t, r, validCSV, "text/csv")
	var result domain.BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}

	resumeRec := httptest.NewRecorder()
	r.ServeHTTP(resumeRec, httptest.NewRequest(http.MethodPost, "/api/v1/hospitals/bulk/"+result.BatchID+"/resume", nil))
	if resumeRec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resumeRec.Code)
	}
	if !strings.Contains(resumeRec.Body.String(), "No failed rows") {
		t.Errorf("unexpected body: %s", resumeRec.Body.String())
	}
}

func TestResumeRecoversFailedBatch(t *testing.T) {
	client := &fakeDirectory{createErr: context.DeadlineExceeded}
	r, _ := newTestRouter(client)

	rec := doUpload(t, r, validCSV, "text/csv")
	var result domain.BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}
	if result.FailedHospitals != 1 {
		t.Fatalf("expected the create to fail, got %+v", result)
	}

	// Upstream recovers.
	client.mu.Lock()
	client.createErr = nil
	client.mu.Unlock()

	resumeRec := httptest.NewRecorder()
	r.ServeHTTP(resumeRec, httptest.NewRequest(http.MethodPost, "/api/v1/hospitals/bulk/"+result.BatchID+"/resume", nil))
	if resumeRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resumeRec.Code, resumeRec.Body.String())
	}

	var resumed domain.BulkResult
	if err := json.Unmarshal(resumeRec.Body.Bytes(), &resumed); err != nil {
		t.Fatalf("failed to decode resume response: %v", err)
	}
	if !resumed.BatchActivated || resumed.FailedHospitals != 0 {
		t.Errorf("unexpected resume result: %+v", resumed)
	}
}
