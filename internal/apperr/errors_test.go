package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestIsBusinessError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		business bool
	}{
		{"not found", ErrNotFound, true},
		{"wrapped not found", fmt.Errorf("load product: %w", ErrNotFound), true},
		{"concurrency", ErrConcurrencyConflict, true},
		{"duplicate number", ErrDuplicateInvoiceNumber, true},
		{"validation", Validation("quantity", "must not be zero"), true},
		{"insufficient stock", &InsufficientStockError{ProductID: uuid.New(), Available: 1, Requested: 2}, true},
		{"overpayment", &OverpaymentError{InvoiceID: uuid.New(), Total: decimal.NewFromInt(10), WouldPay: decimal.NewFromInt(12)}, true},
		{"integrity", &DataIntegrityError{ProductID: uuid.New(), LedgerSum: 5, Projection: 7}, true},
		{"plain error", errors.New("disk full"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := IsBusinessError(tc.err); got != tc.business {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.business, got)
		}
	}
}

func TestValidationError_Message(t *testing.T) {
	withField := Validation("amount", "must be positive")
	if withField.Error() != "validation failed for amount: must be positive" {
		t.Errorf("unexpected message: %s", withField.Error())
	}
	withoutField := Validation("", "body is empty")
	if withoutField.Error() != "validation failed: body is empty" {
		t.Errorf("unexpected message: %s", withoutField.Error())
	}
}
