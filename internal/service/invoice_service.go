package service

import (
	"fmt"
	"strings"
	"time"

	"go-posledger-ws/internal/apperr"
	"go-posledger-ws/internal/model"
	"go-posledger-ws/internal/repository"
	"go-posledger-ws/internal/ws"
	"go-posledger-ws/pkg/logging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AddLineInput carries one line item request. TaxRate nil means "use the
// company default".
type AddLineInput struct {
	InvoiceID   uuid.UUID
	ProductID   uuid.UUID
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxRate     *decimal.Decimal
	UserID      string
}

// ApplyPaymentInput carries one payment request against an invoice.
type ApplyPaymentInput struct {
	InvoiceID     uuid.UUID
	PaymentTypeID uuid.UUID
	Amount        decimal.Decimal
	Reference     string
	Confirm       bool
	UserID        string
}

type InvoiceService interface {
	CreateDraft(personID uuid.UUID, dueDate *time.Time, shippingCost, discountAmount decimal.Decimal, userID string) (*model.Invoice, error)
	AddLineItem(in AddLineInput) (*model.Invoice, error)
	AddAdjustmentLine(in AddLineInput) (*model.Invoice, error)
	Issue(invoiceID uuid.UUID, userID string) (*model.Invoice, error)
	ApplyPayment(in ApplyPaymentInput) (*model.Invoice, error)
	Cancel(invoiceID uuid.UUID, userID string) (*model.Invoice, error)

	GetInvoice(id uuid.UUID) (*model.Invoice, error)
	GetInvoiceByNumber(number string) (*model.Invoice, error)
	GetInvoices() ([]model.Invoice, error)
	GetOverdue() ([]model.Invoice, error)

	CreatePerson(person *model.Person, userID string) error
	DeletePerson(id uuid.UUID, userID string) error
	CreatePaymentType(pt *model.PaymentType, userID string) error
	DeletePaymentType(id uuid.UUID, userID string) error
	GetPaymentTypes() ([]model.PaymentType, error)

	GetCompanyConfig() (*model.CompanyConfig, error)
	UpdateCompanyConfig(cfg *model.CompanyConfig, userID string) (*model.CompanyConfig, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	productRepo repository.ProductRepository
	companyRepo repository.CompanyRepository
	sequence    SequenceService
	audit       AuditService
	db          *gorm.DB
	wsHub       *ws.Hub
	logger      *logrus.Logger
	now         func() time.Time
}

func NewInvoiceService(
	iRepo repository.InvoiceRepository,
	pRepo repository.ProductRepository,
	cRepo repository.CompanyRepository,
	sequence SequenceService,
	audit AuditService,
	db *gorm.DB,
	hub *ws.Hub,
	logger *logrus.Logger,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: iRepo,
		productRepo: pRepo,
		companyRepo: cRepo,
		sequence:    sequence,
		audit:       audit,
		db:          db,
		wsHub:       hub,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *invoiceService) CreateDraft(personID uuid.UUID, dueDate *time.Time, shippingCost, discountAmount decimal.Decimal, userID string) (*model.Invoice, error) {
	if userID == "" {
		return nil, apperr.Validation("user_id", "is required")
	}
	if shippingCost.IsNegative() || discountAmount.IsNegative() {
		return nil, apperr.Validation("amount", "shipping and discount must not be negative")
	}
	if _, err := s.invoiceRepo.FindPerson(personID); err != nil {
		return nil, err
	}

	cfg, err := s.companyRepo.Get()
	if err != nil {
		return nil, err
	}

	due := s.now().AddDate(0, 0, cfg.DueDays)
	if dueDate != nil {
		due = *dueDate
	}

	invoice := &model.Invoice{
		Date:           s.now(),
		DueDate:        due,
		PersonID:       personID,
		UserID:         userID,
		Status:         model.InvoiceDraft,
		ShippingCost:   shippingCost.Round(2),
		DiscountAmount: discountAmount.Round(2),
	}
	invoice.CreatedBy = userID
	invoice.UpdatedBy = userID
	invoice.RecalculateTotals()

	err = runInTx(s.db, func(tx *gorm.DB) error {
		if err := s.invoiceRepo.Create(tx, invoice); err != nil {
			return err
		}
		return s.audit.Record(tx, userID, "invoice.create_draft", "Invoice", invoice.ID.String(), nil, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// AddLineItem inserts a line while the invoice is still a draft and
// recomputes the totals. Issued invoices reject regular lines; corrections
// go through AddAdjustmentLine.
func (s *invoiceService) AddLineItem(in AddLineInput) (*model.Invoice, error) {
	return s.addLine(in, false)
}

// AddAdjustmentLine inserts a compensating correction line on an issued (or
// partially paid) invoice. Quantities may be negative to credit a prior
// line; the original rows are never edited.
func (s *invoiceService) AddAdjustmentLine(in AddLineInput) (*model.Invoice, error) {
	return s.addLine(in, true)
}

func (s *invoiceService) addLine(in AddLineInput, adjustment bool) (*model.Invoice, error) {
	if in.Quantity == 0 {
		return nil, apperr.Validation("quantity", "must not be zero")
	}
	if !adjustment && in.Quantity < 0 {
		return nil, apperr.Validation("quantity", "must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, apperr.Validation("unit_price", "must not be negative")
	}
	if in.DiscountPct.IsNegative() || in.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
		return nil, apperr.Validation("discount_pct", "must be between 0 and 100")
	}

	taxRate := decimal.Zero
	if in.TaxRate != nil {
		if in.TaxRate.IsNegative() {
			return nil, apperr.Validation("tax_rate", "must not be negative")
		}
		taxRate = *in.TaxRate
	} else {
		cfg, err := s.companyRepo.Get()
		if err != nil {
			return nil, err
		}
		taxRate = cfg.DefaultTaxRate
	}

	var result *model.Invoice

	err := runInTx(s.db, func(tx *gorm.DB) error {
		invoice, err := s.invoiceRepo.FindForUpdate(tx, in.InvoiceID)
		if err != nil {
			return err
		}

		if adjustment {
			if invoice.Status != model.InvoiceIssued && invoice.Status != model.InvoicePartiallyPaid {
				return apperr.Validation("status", fmt.Sprintf("adjustment lines require an issued invoice, not %s", invoice.Status))
			}
		} else if invoice.Status != model.InvoiceDraft {
			return apperr.Validation("status", fmt.Sprintf("line items can only be added to a draft invoice, not %s", invoice.Status))
		}

		product, err := s.productRepo.FindActiveForUpdate(tx, in.ProductID)
		if err != nil {
			return err
		}

		description := in.Description
		if description == "" {
			description = product.Name
		}

		line := &model.InvoiceProduct{
			InvoiceID:    invoice.ID,
			ProductID:    product.ID,
			Description:  description,
			Quantity:     in.Quantity,
			UnitPrice:    in.UnitPrice.Round(2),
			DiscountPct:  in.DiscountPct,
			TaxRate:      taxRate,
			IsAdjustment: adjustment,
		}
		line.ComputeAmounts()
		if err := s.invoiceRepo.CreateLine(tx, line); err != nil {
			return err
		}

		old := *invoice
		invoice.Lines = append(invoice.Lines, *line)
		invoice.RecalculateTotals()
		// An adjustment can change the total relative to what is already
		// paid, so the settlement status is re-derived.
		if adjustment {
			invoice.Status = model.StatusForPayment(invoice.PaidAmount, invoice.Total)
		}
		invoice.UpdatedBy = in.UserID
		if err := s.invoiceRepo.Save(tx, invoice); err != nil {
			return err
		}

		action := "invoice.add_line"
		if adjustment {
			action = "invoice.add_adjustment_line"
		}
		if err := s.audit.Record(tx, in.UserID, action, "Invoice", invoice.ID.String(), old, invoice); err != nil {
			return err
		}
		result = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Issue transitions a draft with at least one line item to Issued, stamping
// the engine-issued invoice number. The number is reserved before the
// invoice transaction: if the transaction later fails the number is burned,
// never reused.
func (s *invoiceService) Issue(invoiceID uuid.UUID, userID string) (*model.Invoice, error) {
	if userID == "" {
		return nil, apperr.Validation("user_id", "is required")
	}

	cfg, err := s.companyRepo.Get()
	if err != nil {
		return nil, err
	}
	number, err := s.sequence.NextInvoiceNumber(cfg.InvoicePrefix)
	if err != nil {
		return nil, err
	}

	var result *model.Invoice

	err = runInTx(s.db, func(tx *gorm.DB) error {
		invoice, err := s.invoiceRepo.FindForUpdate(tx, invoiceID)
		if err != nil {
			return err
		}
		if !invoice.CanTransitionTo(model.InvoiceIssued) {
			return apperr.Validation("status", fmt.Sprintf("cannot issue an invoice in status %s", invoice.Status))
		}
		if len(invoice.Lines) == 0 {
			return apperr.Validation("lines", "invoice needs at least one line item")
		}

		old := *invoice
		invoice.InvoiceNumber = &number
		invoice.Status = model.InvoiceIssued
		invoice.Date = s.now()
		invoice.UpdatedBy = userID
		invoice.RecalculateTotals()
		if err := s.invoiceRepo.Save(tx, invoice); err != nil {
			if isUniqueViolation(err) {
				return apperr.ErrDuplicateInvoiceNumber
			}
			return err
		}

		if err := s.audit.Record(tx, userID, "invoice.issue", "Invoice", invoice.ID.String(), old, invoice); err != nil {
			return err
		}
		result = invoice
		return nil
	})
	if err != nil {
		// The reserved number is burned; gaps are fine, duplicates are not.
		logging.LogError(s.logger, "invoice", "Issue", number, err)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"module":         "invoice",
		"invoice_id":     invoiceID,
		"invoice_number": number,
		"total":          result.Total,
	}).Info("invoice issued")

	s.wsHub.BroadcastEvent(ws.Event{
		Type:    "invoice_update",
		Action:  "issued",
		Payload: result,
		UserID:  userID,
	})
	return result, nil
}

// ApplyPayment records a payment and re-derives the settlement status from
// the confirmed payment sum. Concurrent payments on the same invoice
// serialize on the locked invoice row.
func (s *invoiceService) ApplyPayment(in ApplyPaymentInput) (*model.Invoice, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.Validation("amount", "must be positive")
	}
	if in.UserID == "" {
		return nil, apperr.Validation("user_id", "is required")
	}
	if _, err := s.invoiceRepo.FindPaymentType(in.PaymentTypeID); err != nil {
		return nil, err
	}

	cfg, err := s.companyRepo.Get()
	if err != nil {
		return nil, err
	}

	var result *model.Invoice

	err = runInTx(s.db, func(tx *gorm.DB) error {
		invoice, err := s.invoiceRepo.FindForUpdate(tx, in.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != model.InvoiceIssued && invoice.Status != model.InvoicePartiallyPaid {
			return apperr.Validation("status", fmt.Sprintf("payments require an issued invoice, not %s", invoice.Status))
		}

		amount := in.Amount.Round(2)
		if in.Confirm {
			wouldPay := model.ConfirmedPaymentSum(invoice.Payments).Add(amount)
			if wouldPay.GreaterThan(invoice.Total) && !cfg.AllowOverpayment {
				return &apperr.OverpaymentError{
					InvoiceID: invoice.ID,
					Total:     invoice.Total,
					WouldPay:  wouldPay,
				}
			}
		}

		payment := &model.Payment{
			InvoiceID:     invoice.ID,
			PaymentTypeID: in.PaymentTypeID,
			Amount:        amount,
			PaymentDate:   s.now(),
			IsConfirmed:   in.Confirm,
			Reference:     in.Reference,
			CreatedBy:     in.UserID,
		}
		if err := s.invoiceRepo.CreatePayment(tx, payment); err != nil {
			return err
		}

		// PaidAmount is recomputed from the rows, never incremented.
		payments, err := s.invoiceRepo.FindPayments(tx, invoice.ID)
		if err != nil {
			return err
		}

		old := *invoice
		invoice.PaidAmount = model.ConfirmedPaymentSum(payments).Round(2)
		invoice.Status = model.StatusForPayment(invoice.PaidAmount, invoice.Total)
		invoice.UpdatedBy = in.UserID
		if err := s.invoiceRepo.Save(tx, invoice); err != nil {
			return err
		}

		if err := s.audit.Record(tx, in.UserID, "invoice.payment", "Invoice", invoice.ID.String(), old, invoice); err != nil {
			return err
		}
		result = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"module":     "invoice",
		"invoice_id": in.InvoiceID,
		"amount":     in.Amount,
		"paid":       result.PaidAmount,
		"status":     result.Status,
	}).Info("payment applied")

	s.wsHub.BroadcastEvent(ws.Event{
		Type:    "invoice_update",
		Action:  "payment_applied",
		Payload: result,
		UserID:  in.UserID,
	})
	return result, nil
}

// Cancel marks the invoice cancelled. Only drafts and issued-but-unpaid
// invoices qualify; the row is kept, never deleted.
func (s *invoiceService) Cancel(invoiceID uuid.UUID, userID string) (*model.Invoice, error) {
	var result *model.Invoice

	err := runInTx(s.db, func(tx *gorm.DB) error {
		invoice, err := s.invoiceRepo.FindForUpdate(tx, invoiceID)
		if err != nil {
			return err
		}
		if !invoice.CanTransitionTo(model.InvoiceCancelled) {
			return apperr.Validation("status", fmt.Sprintf("cannot cancel an invoice in status %s", invoice.Status))
		}

		old := *invoice
		invoice.Status = model.InvoiceCancelled
		invoice.UpdatedBy = userID
		if err := s.invoiceRepo.Save(tx, invoice); err != nil {
			return err
		}
		if err := s.audit.Record(tx, userID, "invoice.cancel", "Invoice", invoice.ID.String(), old, invoice); err != nil {
			return err
		}
		result = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *invoiceService) GetInvoice(id uuid.UUID) (*model.Invoice, error) {
	return s.invoiceRepo.FindByID(id)
}

func (s *invoiceService) GetInvoiceByNumber(number string) (*model.Invoice, error) {
	return s.invoiceRepo.FindByNumber(number)
}

func (s *invoiceService) GetInvoices() ([]model.Invoice, error) {
	return s.invoiceRepo.FindAll()
}

func (s *invoiceService) GetOverdue() ([]model.Invoice, error) {
	return s.invoiceRepo.FindOverdue(s.now())
}

func (s *invoiceService) CreatePerson(person *model.Person, userID string) error {
	person.IsActive = true
	person.CreatedBy = userID
	person.UpdatedBy = userID
	return runInTx(s.db, func(tx *gorm.DB) error {
		if err := s.invoiceRepo.CreatePerson(tx, person); err != nil {
			return err
		}
		return s.audit.Record(tx, userID, "person.create", "Person", person.ID.String(), nil, person)
	})
}

func (s *invoiceService) DeletePerson(id uuid.UUID, userID string) error {
	return s.invoiceRepo.DeletePerson(id, userID)
}

func (s *invoiceService) CreatePaymentType(pt *model.PaymentType, userID string) error {
	pt.IsActive = true
	pt.CreatedBy = userID
	pt.UpdatedBy = userID
	return runInTx(s.db, func(tx *gorm.DB) error {
		if err := s.invoiceRepo.CreatePaymentType(tx, pt); err != nil {
			return err
		}
		return s.audit.Record(tx, userID, "payment_type.create", "PaymentType", pt.ID.String(), nil, pt)
	})
}

func (s *invoiceService) DeletePaymentType(id uuid.UUID, userID string) error {
	return s.invoiceRepo.DeletePaymentType(id, userID)
}

func (s *invoiceService) GetPaymentTypes() ([]model.PaymentType, error) {
	return s.invoiceRepo.FindPaymentTypes()
}

func (s *invoiceService) GetCompanyConfig() (*model.CompanyConfig, error) {
	return s.companyRepo.Get()
}

func (s *invoiceService) UpdateCompanyConfig(cfg *model.CompanyConfig, userID string) (*model.CompanyConfig, error) {
	if cfg.InvoicePrefix == "" {
		return nil, apperr.Validation("invoice_prefix", "must not be empty")
	}
	if cfg.DefaultTaxRate.IsNegative() {
		return nil, apperr.Validation("default_tax_rate", "must not be negative")
	}
	if cfg.DueDays < 0 {
		return nil, apperr.Validation("due_days", "must not be negative")
	}

	existing, err := s.companyRepo.Get()
	if err != nil {
		return nil, err
	}

	old := *existing
	existing.Name = cfg.Name
	existing.InvoicePrefix = cfg.InvoicePrefix
	existing.DefaultTaxRate = cfg.DefaultTaxRate
	existing.AllowOverpayment = cfg.AllowOverpayment
	existing.DueDays = cfg.DueDays
	existing.UpdatedBy = userID

	err = runInTx(s.db, func(tx *gorm.DB) error {
		if err := tx.Save(existing).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, userID, "company.update", "CompanyConfig", existing.ID.String(), old, existing)
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
