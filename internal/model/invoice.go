package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "DRAFT"
	InvoiceIssued        InvoiceStatus = "ISSUED"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoiceCancelled     InvoiceStatus = "CANCELLED"
)

// Invoice is the settlement aggregate: line items, payments and the derived
// monetary totals. Total always equals SubTotal + TaxAmount + ShippingCost -
// DiscountAmount, and SubTotal equals the sum of the line net amounts.
type Invoice struct {
	BaseModel
	// Assigned on issue; drafts carry no number so the unique index only
	// applies to issued invoices.
	InvoiceNumber *string       `gorm:"type:varchar(30);uniqueIndex" json:"invoice_number"`
	Date          time.Time     `json:"date"`
	DueDate       time.Time     `json:"due_date"`
	PersonID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"person_id" validate:"uuid_required"`
	Person        *Person       `gorm:"foreignKey:PersonID;constraint:OnDelete:RESTRICT" json:"person,omitempty" validate:"-"`
	UserID        string        `gorm:"type:varchar(255)" json:"user_id"`
	Status        InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT'" json:"status"`

	SubTotal       decimal.Decimal `gorm:"type:decimal(14,2)" json:"sub_total"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(14,2)" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(14,2)" json:"discount_amount"`
	ShippingCost   decimal.Decimal `gorm:"type:decimal(14,2)" json:"shipping_cost"`
	Total          decimal.Decimal `gorm:"type:decimal(14,2)" json:"total"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(14,2)" json:"paid_amount"`

	Lines    []InvoiceProduct `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	Payments []Payment        `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

// InvoiceProduct is one line item. The gross amount is
// quantity * unitPrice * (1 - discountPct/100) * (1 + taxRate/100),
// split into net and tax so that SubTotal/TaxAmount roll up cleanly.
type InvoiceProduct struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null" json:"product_id" validate:"uuid_required"`
	Product     *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty" validate:"-"`
	Description string          `json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	DiscountPct decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_pct"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2)" json:"tax_rate"`
	NetAmount   decimal.Decimal `gorm:"type:decimal(14,2)" json:"net_amount"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(14,2)" json:"tax_amount"`
	GrossAmount decimal.Decimal `gorm:"type:decimal(14,2)" json:"gross_amount"`

	// Compensating correction line added after issue; regular lines are
	// immutable once the invoice leaves Draft.
	IsAdjustment bool `gorm:"default:false" json:"is_adjustment"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *InvoiceProduct) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

// Payment is one (possibly unconfirmed) payment against an invoice. Only
// confirmed payments count toward PaidAmount.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	PaymentTypeID uuid.UUID       `gorm:"type:uuid;not null" json:"payment_type_id"`
	PaymentType   *PaymentType    `gorm:"foreignKey:PaymentTypeID;constraint:OnDelete:RESTRICT" json:"payment_type,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	PaymentDate   time.Time       `gorm:"not null" json:"payment_date"`
	IsConfirmed   bool            `gorm:"default:true" json:"is_confirmed"`
	Reference     string          `gorm:"type:varchar(100)" json:"reference"`
	CreatedBy     string          `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// PaymentType is a reference entity (cash, card, transfer...). Deletion is
// blocked while payments reference it.
type PaymentType struct {
	BaseModel
	Name     string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name" validate:"required"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

var hundred = decimal.NewFromInt(100)

// ComputeAmounts fills NetAmount, TaxAmount and GrossAmount from the line's
// quantity, unit price, discount and tax rate, rounded to 2 decimal places.
func (l *InvoiceProduct) ComputeAmounts() {
	qty := decimal.NewFromInt(int64(l.Quantity))
	net := qty.Mul(l.UnitPrice).Mul(hundred.Sub(l.DiscountPct)).Div(hundred)
	tax := net.Mul(l.TaxRate).Div(hundred)
	l.NetAmount = net.Round(2)
	l.TaxAmount = tax.Round(2)
	l.GrossAmount = net.Add(tax).Round(2)
}

// RecalculateTotals rolls the line amounts up into the invoice totals.
func (inv *Invoice) RecalculateTotals() {
	sub := decimal.Zero
	tax := decimal.Zero
	for _, l := range inv.Lines {
		sub = sub.Add(l.NetAmount)
		tax = tax.Add(l.TaxAmount)
	}
	inv.SubTotal = sub.Round(2)
	inv.TaxAmount = tax.Round(2)
	inv.Total = inv.SubTotal.Add(inv.TaxAmount).Add(inv.ShippingCost).Sub(inv.DiscountAmount).Round(2)
}

// StatusForPayment derives the settlement status from the confirmed paid
// amount versus the total. It is a pure function; callers persist the result.
func StatusForPayment(paid, total decimal.Decimal) InvoiceStatus {
	switch {
	case paid.LessThanOrEqual(decimal.Zero):
		return InvoiceIssued
	case paid.LessThan(total):
		return InvoicePartiallyPaid
	default:
		return InvoicePaid
	}
}

// ConfirmedPaymentSum adds up the confirmed payment amounts.
func ConfirmedPaymentSum(payments []Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		if p.IsConfirmed {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

// IsOverdue reports the derived overdue view: an issued or partially paid
// invoice whose due date has passed. Never persisted as a status.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status != InvoiceIssued && inv.Status != InvoicePartiallyPaid {
		return false
	}
	return inv.DueDate.Before(now)
}

// CanTransitionTo guards the settlement state machine.
func (inv *Invoice) CanTransitionTo(next InvoiceStatus) bool {
	switch next {
	case InvoiceIssued:
		return inv.Status == InvoiceDraft
	case InvoicePartiallyPaid, InvoicePaid:
		return inv.Status == InvoiceIssued || inv.Status == InvoicePartiallyPaid
	case InvoiceCancelled:
		return inv.Status == InvoiceDraft || inv.Status == InvoiceIssued
	}
	return false
}
