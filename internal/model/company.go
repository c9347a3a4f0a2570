package model

import "github.com/shopspring/decimal"

// CompanyConfig is the single configuration row the engine consults for
// invoice numbering and settlement policy.
type CompanyConfig struct {
	BaseModel
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	InvoicePrefix    string          `gorm:"type:varchar(10);not null;default:'INV'" json:"invoice_prefix"`
	DefaultTaxRate   decimal.Decimal `gorm:"type:decimal(5,2)" json:"default_tax_rate"`
	AllowOverpayment bool            `gorm:"default:false" json:"allow_overpayment"`
	DueDays          int             `gorm:"default:30" json:"due_days"`
}
