package repository

import (
	"errors"
	"time"

	"go-posledger-ws/internal/apperr"
	"go-posledger-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	Create(tx *gorm.DB, invoice *model.Invoice) error
	FindByID(id uuid.UUID) (*model.Invoice, error)
	FindByNumber(number string) (*model.Invoice, error)
	FindAll() ([]model.Invoice, error)
	FindOverdue(now time.Time) ([]model.Invoice, error)

	// FindForUpdate locks the invoice row so concurrent settlements on the
	// same invoice serialize. Lines and payments are loaded after the lock
	// is taken.
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error)
	Save(tx *gorm.DB, invoice *model.Invoice) error
	CreateLine(tx *gorm.DB, line *model.InvoiceProduct) error
	CreatePayment(tx *gorm.DB, payment *model.Payment) error

	// FindPayments reloads the invoice's payments inside tx so PaidAmount
	// is always recomputed from the rows, never incremented in place.
	FindPayments(tx *gorm.DB, invoiceID uuid.UUID) ([]model.Payment, error)

	// Reference entities with restrict-delete guards.
	CreatePerson(tx *gorm.DB, person *model.Person) error
	FindPerson(id uuid.UUID) (*model.Person, error)
	DeletePerson(id uuid.UUID, deletedBy string) error
	CreatePaymentType(tx *gorm.DB, pt *model.PaymentType) error
	FindPaymentType(id uuid.UUID) (*model.PaymentType, error)
	FindPaymentTypes() ([]model.PaymentType, error)
	DeletePaymentType(id uuid.UUID, deletedBy string) error
}

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db}
}

func (r *invoiceRepo) Create(tx *gorm.DB, invoice *model.Invoice) error {
	return tx.Create(invoice).Error
}

func (r *invoiceRepo) FindByID(id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.Preload("Lines").Preload("Payments").Preload("Person").
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	return &invoice, err
}

func (r *invoiceRepo) FindByNumber(number string) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.Preload("Lines").Preload("Payments").Preload("Person").
		First(&invoice, "invoice_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	return &invoice, err
}

func (r *invoiceRepo) FindAll() ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.Preload("Person").Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) FindOverdue(now time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.Preload("Person").
		Where("status IN ? AND due_date < ?",
			[]model.InvoiceStatus{model.InvoiceIssued, model.InvoicePartiallyPaid}, now).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Where("invoice_id = ?", id).Order("created_at ASC").Find(&invoice.Lines).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("invoice_id = ?", id).Order("payment_date ASC").Find(&invoice.Payments).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepo) Save(tx *gorm.DB, invoice *model.Invoice) error {
	return tx.Omit("Lines", "Payments", "Person").Save(invoice).Error
}

func (r *invoiceRepo) CreateLine(tx *gorm.DB, line *model.InvoiceProduct) error {
	return tx.Create(line).Error
}

func (r *invoiceRepo) CreatePayment(tx *gorm.DB, payment *model.Payment) error {
	return tx.Create(payment).Error
}

func (r *invoiceRepo) FindPayments(tx *gorm.DB, invoiceID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := tx.Where("invoice_id = ?", invoiceID).Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *invoiceRepo) CreatePerson(tx *gorm.DB, person *model.Person) error {
	return tx.Create(person).Error
}

func (r *invoiceRepo) FindPerson(id uuid.UUID) (*model.Person, error) {
	var person model.Person
	err := r.db.First(&person, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	return &person, err
}

// DeletePerson blocks while invoices reference the person (restrict).
func (r *invoiceRepo) DeletePerson(id uuid.UUID, deletedBy string) error {
	var count int64
	if err := r.db.Model(&model.Invoice{}).Unscoped().
		Where("person_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validation("person_id", "person has invoices and cannot be deleted")
	}
	if err := r.db.Model(&model.Person{}).Where("id = ?", id).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Person{}, "id = ?", id).Error
}

func (r *invoiceRepo) CreatePaymentType(tx *gorm.DB, pt *model.PaymentType) error {
	return tx.Create(pt).Error
}

func (r *invoiceRepo) FindPaymentType(id uuid.UUID) (*model.PaymentType, error) {
	var pt model.PaymentType
	err := r.db.First(&pt, "id = ? AND is_active = ?", id, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	return &pt, err
}

func (r *invoiceRepo) FindPaymentTypes() ([]model.PaymentType, error) {
	var types []model.PaymentType
	err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&types).Error
	return types, err
}

// DeletePaymentType blocks while payments reference the type (restrict).
func (r *invoiceRepo) DeletePaymentType(id uuid.UUID, deletedBy string) error {
	var count int64
	if err := r.db.Model(&model.Payment{}).
		Where("payment_type_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validation("payment_type_id", "payment type is in use and cannot be deleted")
	}
	if err := r.db.Model(&model.PaymentType{}).Where("id = ?", id).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.PaymentType{}, "id = ?", id).Error
}
