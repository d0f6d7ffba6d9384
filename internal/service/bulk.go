package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/medloader/internal/directory"
	"github.com/timmy/medloader/internal/domain"
	"github.com/timmy/medloader/internal/ingest"
	"github.com/timmy/medloader/internal/logger"
	"github.com/timmy/medloader/internal/store"
)

// BulkService orchestrates one bulk upload: parse, validate, provision every
// valid row upstream under a shared batch identifier, decide on activation,
// and assemble the row-accountable report.
type BulkService struct {
	client   directory.Client
	batches  *store.BatchStore
	logger   *logger.Logger
	rowLimit int
}

// BulkConfig holds configuration for the bulk service.
type BulkConfig struct {
	RowLimit int
}

// NewBulkService creates a new bulk service.
func NewBulkService(client directory.Client, batches *store.BatchStore, log *logger.Logger, cfg *BulkConfig) *BulkService {
	return &BulkService{
		client:   client,
		batches:  batches,
		logger:   log,
		rowLimit: cfg.RowLimit,
	}
}

// log returns a logger from context if available, otherwise the service logger.
func (s *BulkService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// ProcessUpload runs the full pipeline over raw CSV bytes.
//
// Structural parse failures (missing columns, empty file, row cap) are the
// only errors returned; every other failure is captured inside the returned
// BulkResult. The batch identifier is generated after validation but before
// any upstream call, and is returned even when no row is valid.
func (s *BulkService) ProcessUpload(ctx context.Context, raw []byte) (*domain.BulkResult, error) {
	start := time.Now()

	rows, err := ingest.Parse(raw, s.rowLimit)
	if err != nil {
		return nil, err
	}

	var valid []domain.HospitalRecord
	var failures []domain.RowOutcome
	for _, row := range rows {
		record, err := ingest.ValidateRow(row)
		if err != nil {
			failures = append(failures, domain.RowOutcome{
				Row:    row.Row,
				Name:   trimmedName(row),
				Status: domain.RowStatusFailed,
				Error:  err.Error(),
			})
			continue
		}
		valid = append(valid, record)
	}

	// The batch identifier exists before any upstream call and is returned
	// even when no row is valid, so the caller can always correlate.
	batch := domain.Batch{
		BatchID:   uuid.New().String(),
		Rows:      valid,
		CreatedAt: start,
	}
	batchID := batch.BatchID
	ctx = logger.SetBatchID(ctx, batchID)

	s.batches.Begin(batchID, len(rows))
	for _, outcome := range failures {
		s.batches.RecordRow(batchID, outcome, nil)
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldRows: len(rows),
		"valid_rows":     len(valid),
	}).Info("Starting bulk provisioning")

	outcomes := s.createAll(ctx, batch)

	created := 0
	for _, outcome := range outcomes {
		if outcome.Status == domain.RowStatusCreatedPending {
			created++
		}
	}
	failed := len(rows) - created

	var batchActivated bool
	var activationError string
	if failed == 0 && created > 0 {
		if err := s.client.ActivateBatch(ctx, batchID); err != nil {
			activationError = err.Error()
			setStatus(outcomes, domain.RowStatusCreatedPending, domain.RowStatusCreatedActivationFailed)
			s.batches.MarkActivationFailure(batchID, activationError)
			s.log(ctx).WithError(err).Error("Batch activation failed")
		} else {
			batchActivated = true
			setStatus(outcomes, domain.RowStatusCreatedPending, domain.RowStatusCreatedAndActivated)
			s.batches.MarkActivated(batchID)
		}
	}

	all := append(failures, outcomes...)
	sort.Slice(all, func(i, j int) bool { return all[i].Row < all[j].Row })

	elapsed := roundSeconds(time.Since(start))
	if _, err := s.batches.Complete(batchID, elapsed); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to finalize batch state")
	}

	result := &domain.BulkResult{
		BatchID:               batchID,
		TotalHospitals:        len(rows),
		ProcessedHospitals:    created,
		FailedHospitals:       failed,
		ProcessingTimeSeconds: elapsed,
		BatchActivated:        batchActivated,
		ActivationError:       activationError,
		Hospitals:             all,
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldRows:       result.TotalHospitals,
		"failed":               result.FailedHospitals,
		"activated":            result.BatchActivated,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Bulk provisioning completed")

	return result, nil
}

// Resume re-attempts the create call for every row of a known batch whose
// latest outcome is failed and retryable, then re-evaluates the activation
// gate over the whole batch. Returns store.ErrBatchNotFound for unknown
// batches and store.ErrNoFailedRows when nothing is left to retry.
func (s *BulkService) Resume(ctx context.Context, batchID string) (*domain.BulkResult, error) {
	records, err := s.batches.FailedRows(batchID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, store.ErrNoFailedRows
	}
	if err := s.batches.StartResume(batchID); err != nil {
		return nil, err
	}

	ctx = logger.SetBatchID(ctx, batchID)
	s.log(ctx).WithFields(logger.Fields{logger.FieldRows: len(records)}).Info("Resuming failed rows")

	start := time.Now()
	s.createAll(ctx, domain.Batch{BatchID: batchID, Rows: records, CreatedAt: start})

	snap, err := s.batches.Snapshot(batchID)
	if err != nil {
		return nil, err
	}
	if snap.FailedHospitals == 0 && snap.TotalHospitals > 0 {
		if err := s.client.ActivateBatch(ctx, batchID); err != nil {
			s.batches.MarkActivationFailure(batchID, err.Error())
			s.log(ctx).WithError(err).Error("Batch activation failed")
		} else {
			s.batches.MarkActivated(batchID)
		}
	}

	final, err := s.batches.Complete(batchID, roundSeconds(time.Since(start)))
	if err != nil {
		return nil, err
	}
	return snapshotToResult(final), nil
}

// createAll issues the create call for every record. Calls run concurrently;
// the fan-out is bounded by the row cap enforced at parse time. Outcomes are
// collected by index so the caller sees them in record order regardless of
// completion order.
func (s *BulkService) createAll(ctx context.Context, batch domain.Batch) []domain.RowOutcome {
	outcomes := make([]domain.RowOutcome, len(batch.Rows))

	var wg sync.WaitGroup
	for i, record := range batch.Rows {
		wg.Add(1)
		go func(i int, record domain.HospitalRecord) {
			defer wg.Done()
			outcomes[i] = s.createOne(ctx, batch.BatchID, record)
		}(i, record)
	}
	wg.Wait()

	return outcomes
}

// createOne performs exactly one create attempt for a record and records the
// outcome in the batch store.
func (s *BulkService) createOne(ctx context.Context, batchID string, record domain.HospitalRecord) domain.RowOutcome {
	id, err := s.client.CreateHospital(ctx, record.Name, record.Address, record.Phone, batchID)
	if err != nil {
		outcome := domain.RowOutcome{
			Row:    record.Row,
			Name:   record.Name,
			Status: domain.RowStatusFailed,
			Error:  err.Error(),
		}
		s.batches.RecordRow(batchID, outcome, &record)
		s.log(ctx).WithFields(logger.Fields{"row": record.Row}).WithError(err).Warn("Hospital creation failed")
		return outcome
	}

	outcome := domain.RowOutcome{
		Row:        record.Row,
		Name:       record.Name,
		Status:     domain.RowStatusCreatedPending,
		HospitalID: &id,
	}
	s.batches.RecordRow(batchID, outcome, nil)
	return outcome
}

func setStatus(outcomes []domain.RowOutcome, from, to domain.RowStatus) {
	for i := range outcomes {
		if outcomes[i].Status == from {
			outcomes[i].Status = to
		}
	}
}

func snapshotToResult(snap *domain.BatchSnapshot) *domain.BulkResult {
	result := &domain.BulkResult{
		BatchID:            snap.BatchID,
		TotalHospitals:     snap.TotalHospitals,
		ProcessedHospitals: snap.ProcessedHospitals,
		FailedHospitals:    snap.FailedHospitals,
		ActivationError:    snap.ActivationError,
		Hospitals:          snap.Hospitals,
	}
	if snap.ProcessingTimeSeconds != nil {
		result.ProcessingTimeSeconds = *snap.ProcessingTimeSeconds
	}
	if snap.BatchActivated != nil {
		result.BatchActivated = *snap.BatchActivated
	}
	return result
}

func trimmedName(row domain.RawRow) string {
	return strings.TrimSpace(row.Fields["name"])
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
