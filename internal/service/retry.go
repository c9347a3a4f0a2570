package service

import (
	"strings"
	"time"

	"go-posledger-ws/internal/apperr"

	"gorm.io/gorm"
)

const (
	txMaxAttempts = 3
	txBackoffBase = 50 * time.Millisecond
)

// runInTx wraps one aggregate-scoped transaction and retries on store-level
// conflicts (deadlock, serialization failure, lock timeout) with backoff.
// Business errors and other failures surface immediately; exhausted retries
// surface as ErrConcurrencyConflict.
func runInTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err = db.Transaction(fn)
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		if attempt < txMaxAttempts {
			time.Sleep(txBackoffBase * time.Duration(attempt))
		}
	}
	return apperr.ErrConcurrencyConflict
}

func isRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "lock_not_available")
}
