package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/timmy/medloader/internal/domain"
)

var (
	// ErrBatchNotFound is returned for batch identifiers the store has never seen.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrNoFailedRows is returned when a resume is requested but every
	// retryable row has already succeeded.
	ErrNoFailedRows = errors.New("no failed rows remain for batch")
)

// batchState is the mutable per-batch record. Counters are derived from the
// rows map so that resume attempts can overwrite outcomes without drift.
type batchState struct {
	batchID         string
	status          domain.BatchStatus
	total           int
	startedAt       time.Time
	updatedAt       time.Time
	processingTime  float64
	activated       *bool
	activationError string

	// Latest outcome per row number.
	rows map[int]domain.RowOutcome

	// Source fields of rows whose create call failed, kept so a resume can
	// replay them. Rows rejected by validation never appear here.
	retryable map[int]domain.HospitalRecord
}

// BatchStore tracks batch progress across requests so callers can poll
// status and resume failed rows. State lives in process memory only;
// nothing is persisted.
type BatchStore struct {
	mu      sync.RWMutex
	batches map[string]*batchState
	now     func() time.Time
}

// New creates an empty BatchStore.
func New() *BatchStore {
	return &BatchStore{
		batches: make(map[string]*batchState),
		now:     time.Now,
	}
}

// Begin registers a new batch in the processing state.
func (s *BatchStore) Begin(batchID string, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.batches[batchID] = &batchState{
		batchID:   batchID,
		status:    domain.BatchStatusProcessing,
		total:     total,
		startedAt: now,
		updatedAt: now,
		rows:      make(map[int]domain.RowOutcome),
		retryable: make(map[int]domain.HospitalRecord),
	}
}

// RecordRow stores the latest outcome for one row, replacing any earlier
// outcome from a previous attempt. For failed rows whose source fields are
// known, source makes the row eligible for resume.
func (s *BatchStore) RecordRow(batchID string, outcome domain.RowOutcome, source *domain.HospitalRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return
	}

	b.rows[outcome.Row] = outcome
	if outcome.Status == domain.RowStatusFailed && source != nil {
		b.retryable[outcome.Row] = *source
	} else {
		delete(b.retryable, outcome.Row)
	}
	b.updatedAt = s.now()
}

// MarkActivated records a successful activation and promotes every created
// row to the activated status.
func (s *BatchStore) MarkActivated(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return
	}

	activated := true
	b.activated = &activated
	b.activationError = ""
	for row, outcome := range b.rows {
		switch outcome.Status {
		case domain.RowStatusCreatedPending, domain.RowStatusCreatedActivationFailed:
			outcome.Status = domain.RowStatusCreatedAndActivated
			b.rows[row] = outcome
		}
	}
	b.updatedAt = s.now()
}

// MarkActivationFailure records a failed activation attempt and demotes every
// pending row so the caller can see the hospitals exist but are not active.
func (s *BatchStore) MarkActivationFailure(batchID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return
	}

	activated := false
	b.activated = &activated
	b.activationError = message
	for row, outcome := range b.rows {
		if outcome.Status == domain.RowStatusCreatedPending {
			outcome.Status = domain.RowStatusCreatedActivationFailed
			b.rows[row] = outcome
		}
	}
	b.updatedAt = s.now()
}

// StartResume moves a batch back into the resuming state.
func (s *BatchStore) StartResume(batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return ErrBatchNotFound
	}
	b.status = domain.BatchStatusResuming
	b.updatedAt = s.now()
	return nil
}

// FailedRows returns the source fields of every row still eligible for a
// retry, in ascending row order.
func (s *BatchStore) FailedRows(batchID string) ([]domain.HospitalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}

	rows := make([]domain.HospitalRecord, 0, len(b.retryable))
	for _, rec := range b.retryable {
		rows = append(rows, rec)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Row < rows[j].Row })
	return rows, nil
}

// Complete adds the elapsed seconds of the finished attempt, settles the
// terminal status and returns the resulting snapshot.
func (s *BatchStore) Complete(batchID string, elapsedSeconds float64) (*domain.BatchSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}

	b.processingTime += elapsedSeconds
	switch {
	case countFailed(b) > 0:
		b.status = domain.BatchStatusCompletedWithFailures
	case b.activationError != "":
		b.status = domain.BatchStatusCompletedActivationError
	default:
		b.status = domain.BatchStatusCompleted
	}
	b.updatedAt = s.now()

	return snapshot(b), nil
}

// Snapshot returns the current state of a batch.
func (s *BatchStore) Snapshot(batchID string) (*domain.BatchSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}
	return snapshot(b), nil
}

func countFailed(b *batchState) int {
	failed := 0
	for _, outcome := range b.rows {
		if outcome.Status == domain.RowStatusFailed {
			failed++
		}
	}
	return failed
}

func snapshot(b *batchState) *domain.BatchSnapshot {
	hospitals := make([]domain.RowOutcome, 0, len(b.rows))
	processed := 0
	failed := 0
	for _, outcome := range b.rows {
		hospitals = append(hospitals, outcome)
		if outcome.Status == domain.RowStatusFailed {
			failed++
		} else {
			processed++
		}
	}
	sort.Slice(hospitals, func(i, j int) bool { return hospitals[i].Row < hospitals[j].Row })

	snap := &domain.BatchSnapshot{
		BatchID:            b.batchID,
		Status:             b.status,
		TotalHospitals:     b.total,
		ProcessedHospitals: processed,
		FailedHospitals:    failed,
		StartedAt:          b.startedAt,
		UpdatedAt:          b.updatedAt,
		ActivationError:    b.activationError,
		Hospitals:          hospitals,
	}
	if b.processingTime > 0 {
		t := b.processingTime
		snap.ProcessingTimeSeconds = &t
	}
	if b.activated != nil {
		activated := *b.activated
		snap.BatchActivated = &activated
	}
	return snap
}
