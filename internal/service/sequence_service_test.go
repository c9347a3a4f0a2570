package service

import (
	"errors"
	"testing"
	"time"

	"go-posledger-ws/internal/apperr"
	"go-posledger-ws/pkg/logging"
)

// fakeSequenceRepo loses the conditional update a fixed number of times
// before succeeding.
type fakeSequenceRepo struct {
	failures int
	calls    int
	err      error
}

func (f *fakeSequenceRepo) TryIncrement(prefix string) (int64, bool, error) {
	f.calls++
	if f.err != nil {
		return 0, false, f.err
	}
	if f.calls <= f.failures {
		return 0, false, nil
	}
	return int64(f.calls), true, nil
}

func newTestSequenceService(repo *fakeSequenceRepo) *sequenceService {
	return &sequenceService{
		seqRepo: repo,
		logger:  logging.New(),
		sleep:   func(time.Duration) {},
	}
}

func TestNextInvoiceNumber_FirstAttempt(t *testing.T) {
	svc := newTestSequenceService(&fakeSequenceRepo{})
	number, err := svc.NextInvoiceNumber("INV")
	if err != nil {
		t.Fatalf("NextInvoiceNumber: %v", err)
	}
	if number != "INV-000001" {
		t.Errorf("expected INV-000001, got %s", number)
	}
}

func TestNextInvoiceNumber_RetriesThenSucceeds(t *testing.T) {
	repo := &fakeSequenceRepo{failures: 2}
	svc := newTestSequenceService(repo)
	number, err := svc.NextInvoiceNumber("INV")
	if err != nil {
		t.Fatalf("NextInvoiceNumber: %v", err)
	}
	if repo.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", repo.calls)
	}
	if number != "INV-000003" {
		t.Errorf("expected INV-000003, got %s", number)
	}
}

func TestNextInvoiceNumber_ExhaustedRetries(t *testing.T) {
	repo := &fakeSequenceRepo{failures: 10}
	svc := newTestSequenceService(repo)
	_, err := svc.NextInvoiceNumber("INV")
	if !errors.Is(err, apperr.ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}
	if repo.calls != sequenceMaxAttempts {
		t.Errorf("expected %d attempts, got %d", sequenceMaxAttempts, repo.calls)
	}
}

func TestNextInvoiceNumber_StoreErrorSurfaces(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := newTestSequenceService(&fakeSequenceRepo{err: storeErr})
	if _, err := svc.NextInvoiceNumber("INV"); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestNextInvoiceNumber_EmptyPrefix(t *testing.T) {
	svc := newTestSequenceService(&fakeSequenceRepo{})
	_, err := svc.NextInvoiceNumber("")
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestIsRetryableTxError(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{nil, false},
		{errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), true},
		{errors.New("ERROR: could not serialize access due to concurrent update"), true},
		{errors.New("canceling statement due to lock timeout"), true},
		{errors.New("duplicate key value violates unique constraint"), false},
		{errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		if got := isRetryableTxError(tc.err); got != tc.retryable {
			t.Errorf("isRetryableTxError(%v) expected %v, got %v", tc.err, tc.retryable, got)
		}
	}
}
