package domain

import "time"

// BatchStatus represents the lifecycle state of a tracked batch.
type BatchStatus string

const (
	BatchStatusProcessing               BatchStatus = "processing"
	BatchStatusResuming                 BatchStatus = "resuming"
	BatchStatusCompleted                BatchStatus = "completed"
	BatchStatusCompletedWithFailures    BatchStatus = "completed_with_failures"
	BatchStatusCompletedActivationError BatchStatus = "completed_activation_failed"
)

// BatchSnapshot is a point-in-time view of a tracked batch, served by the
// batch status endpoint and used to build resume reports.
//
// ProcessingTimeSeconds accumulates across the original upload and any
// resume attempts. BatchActivated is nil until activation has been attempted.
type BatchSnapshot struct {
	BatchID               string       `json:"batch_id"`
	Status                BatchStatus  `json:"status"`
	TotalHospitals        int          `json:"total_hospitals"`
	ProcessedHospitals    int          `json:"processed_hospitals"`
	FailedHospitals       int          `json:"failed_hospitals"`
	StartedAt             time.Time    `json:"started_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
	ProcessingTimeSeconds *float64     `json:"processing_time_seconds,omitempty"`
	BatchActivated        *bool        `json:"batch_activated,omitempty"`
	ActivationError       string       `json:"activation_error,omitempty"`
	Hospitals             []RowOutcome `json:"hospitals"`
}
