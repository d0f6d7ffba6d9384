package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/medloader/internal/ingest"
	"github.com/timmy/medloader/internal/logger"
	"github.com/timmy/medloader/internal/service"
	"github.com/timmy/medloader/internal/store"
)

var acceptedContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
}

// BulkHandler handles the bulk hospital provisioning endpoints.
type BulkHandler struct {
	bulk    *service.BulkService
	batches *store.BatchStore
}

// NewBulkHandler creates a new bulk handler.
func NewBulkHandler(bulk *service.BulkService, batches *store.BatchStore) *BulkHandler {
	return &BulkHandler{
		bulk:    bulk,
		batches: batches,
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type csvErrorResponse struct {
	Detail string           `json:"detail"`
	Errors []csvErrorDetail `json:"errors"`
}

type csvErrorDetail struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type sizeErrorResponse struct {
	Detail string `json:"detail"`
	Limit  int    `json:"limit"`
	Actual int    `json:"actual"`
}

// Upload handles POST /api/v1/hospitals/bulk.
//
// Accepts one CSV file under the multipart field "file", drives it through
// the bulk service, and returns the structured report. Structural CSV errors
// map to 400; everything else is reported inside the 200 body.
func (h *BulkHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "CSV file is required."})
		return
	}

	if contentType := fileHeader.Header.Get("Content-Type"); contentType != "" {
		if !acceptedContentTypes[strings.ToLower(contentType)] {
			c.JSON(http.StatusBadRequest, errorResponse{
				Detail: fmt.Sprintf("Unsupported content type: %s", contentType),
			})
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.CtxError(ctx, "Failed to open uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Internal server error."})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		logger.CtxError(ctx, "Failed to read uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Internal server error."})
		return
	}

	result, err := h.bulk.ProcessUpload(ctx, raw)
	if err != nil {
		h.writeUploadError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeUploadError maps structural parse failures onto 400 responses.
func (h *BulkHandler) writeUploadError(c *gin.Context, err error) {
	var tooMany *ingest.TooManyRowsError
	if errors.As(err, &tooMany) {
		c.JSON(http.StatusBadRequest, sizeErrorResponse{
			Detail: "CSV contains more rows than allowed.",
			Limit:  tooMany.Limit,
			Actual: tooMany.Actual,
		})
		return
	}

	var missing *ingest.MissingColumnsError
	var empty *ingest.EmptyFileError
	if errors.As(err, &missing) || errors.As(err, &empty) {
		c.JSON(http.StatusBadRequest, csvErrorResponse{
			Detail: "Invalid CSV format.",
			Errors: []csvErrorDetail{{Row: 0, Message: err.Error()}},
		})
		return
	}

	logger.CtxError(c.Request.Context(), "Unhandled error while processing bulk upload: %v", err)
	c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Internal server error."})
}

// Status handles GET /api/v1/hospitals/bulk/:batch_id.
func (h *BulkHandler) Status(c *gin.Context) {
	snap, err := h.batches.Snapshot(c.Param("batch_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Detail: "Batch not found."})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Resume handles POST /api/v1/hospitals/bulk/:batch_id/resume.
func (h *BulkHandler) Resume(c *gin.Context) {
	ctx := c.Request.Context()
	batchID := c.Param("batch_id")

	result, err := h.bulk.Resume(ctx, batchID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrBatchNotFound):
			c.JSON(http.StatusNotFound, errorResponse{Detail: "Batch not found."})
		case errors.Is(err, store.ErrNoFailedRows):
			c.JSON(http.StatusBadRequest, errorResponse{Detail: "No failed rows remain for this batch."})
		default:
			logger.CtxError(ctx, "Unhandled error while resuming batch %s: %v", batchID, err)
			c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Internal server error."})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
