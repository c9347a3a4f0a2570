// Package apperr defines the structured error taxonomy the engine returns to
// callers. Expected business-rule failures carry enough detail for the
// transport layer to build a structured result; unexpected store failures
// pass through untouched and abort the enclosing transaction.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors for common failure scenarios.
var (
	ErrNotFound               = errors.New("not found")
	ErrConcurrencyConflict    = errors.New("operation conflicted with a concurrent update, retries exhausted")
	ErrDuplicateInvoiceNumber = errors.New("invoice number already issued")
)

// ValidationError represents malformed or rule-breaking input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientStockError is returned when a movement would drive quantity
// negative on a product that does not allow backorder. Nothing is written.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// OverpaymentError is returned when a payment would push the paid amount
// above the invoice total and overpayment is not allowed.
type OverpaymentError struct {
	InvoiceID uuid.UUID
	Total     decimal.Decimal
	WouldPay  decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment would overpay invoice %s: total %s, would pay %s",
		e.InvoiceID, e.Total, e.WouldPay)
}

// DataIntegrityError reports a ledger/projection mismatch found by
// reconciliation. It is never silently repaired; the product is placed on
// integrity hold until a corrective adjustment movement is recorded.
type DataIntegrityError struct {
	ProductID  uuid.UUID
	LedgerSum  int
	Projection int
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("stock projection out of sync for product %s: ledger sum %d, cached quantity %d",
		e.ProductID, e.LedgerSum, e.Projection)
}

// IsBusinessError reports whether err is an expected business-rule failure
// (returned as a structured result) rather than a fatal store failure.
func IsBusinessError(err error) bool {
	var ve *ValidationError
	var ise *InsufficientStockError
	var ope *OverpaymentError
	var die *DataIntegrityError
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConcurrencyConflict) ||
		errors.Is(err, ErrDuplicateInvoiceNumber) ||
		errors.As(err, &ve) ||
		errors.As(err, &ise) ||
		errors.As(err, &ope) ||
		errors.As(err, &die)
}
