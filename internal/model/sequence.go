package model

import "fmt"

// InvoiceSequence is the single versioned counter row behind invoice-number
// issuance. Value moves forward with a conditional update on Version so two
// concurrent callers can never take the same number. Gaps are acceptable,
// duplicates are not.
type InvoiceSequence struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Prefix  string `gorm:"type:varchar(10);uniqueIndex;not null" json:"prefix"`
	Value   int64  `gorm:"not null;default:0" json:"value"`
	Version int64  `gorm:"not null;default:0" json:"version"`
}

// FormatInvoiceNumber renders a reserved counter value, e.g. "INV-000042".
func FormatInvoiceNumber(prefix string, value int64) string {
	return fmt.Sprintf("%s-%06d", prefix, value)
}
