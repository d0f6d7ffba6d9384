package domain

import "time"

// RowStatus represents the outcome status of a single uploaded row.
// Values include RowStatusCreatedAndActivated, RowStatusCreatedPending,
// RowStatusCreatedActivationFailed, and RowStatusFailed.
type RowStatus string

const (
	// RowStatusCreatedAndActivated means the hospital was created upstream and
	// its batch was activated.
	RowStatusCreatedAndActivated RowStatus = "created_and_activated"

	// RowStatusCreatedPending means the hospital was created upstream but
	// batch activation was never attempted (the activation gate was not met).
	RowStatusCreatedPending RowStatus = "created_pending_activation"

	// RowStatusCreatedActivationFailed means the hospital was created upstream
	// but the activation call for its batch failed.
	RowStatusCreatedActivationFailed RowStatus = "created_activation_failed"

	// RowStatusFailed means the row never produced an upstream hospital,
	// either because validation rejected it or the create call failed.
	RowStatusFailed RowStatus = "failed"
)

// RawRow is one data row of the uploaded CSV, keyed by header name.
// Row numbers are 1-based over data rows; the header is not counted.
type RawRow struct {
	Row    int
	Fields map[string]string
}

// HospitalRecord is a fully validated row, ready for upstream provisioning.
// A record exists only if all three fields passed validation.
type HospitalRecord struct {
	Row     int
	Name    string
	Address string
	Phone   string
}

// Batch groups the validated rows of one upload under a shared identifier.
// The identifier is assigned before any upstream call and never changes.
type Batch struct {
	BatchID   string
	Rows      []HospitalRecord
	CreatedAt time.Time
}

// RowOutcome is the per-row result reported back to the caller.
// HospitalID is set only when the upstream create succeeded; Error is set
// only when the row failed.
type RowOutcome struct {
	Row        int       `json:"row"`
	Name       string    `json:"name"`
	Status     RowStatus `json:"status"`
	HospitalID *int64    `json:"hospital_id,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// BulkResult is the final report for one upload or resume attempt.
type BulkResult struct {
	BatchID               string       `json:"batch_id"`
	TotalHospitals        int          `json:"total_hospitals"`
	ProcessedHospitals    int          `json:"processed_hospitals"`
	FailedHospitals       int          `json:"failed_hospitals"`
	ProcessingTimeSeconds float64      `json:"processing_time_seconds"`
	BatchActivated        bool         `json:"batch_activated"`
	ActivationError       string       `json:"activation_error,omitempty"`
	Hospitals             []RowOutcome `json:"hospitals"`
}
