package handler

import (
	"time"

	"go-posledger-ws/internal/model"
	"go-posledger-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// CreateDraftRequest is the request body for opening a draft invoice.
type CreateDraftRequest struct {
	PersonID       string          `json:"person_id"`
	DueDate        *time.Time      `json:"due_date"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

func (h *InvoiceHandler) CreateDraft(c *fiber.Ctx) error {
	var req CreateDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	personID, err := parseUUID(req.PersonID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid person ID"})
	}

	invoice, err := h.invoiceService.CreateDraft(personID, req.DueDate, req.ShippingCost, req.DiscountAmount, getUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Draft created", "data": invoice})
}

// LineRequest is the request body for adding a line (or adjustment line).
type LineRequest struct {
	ProductID   string           `json:"product_id"`
	Description string           `json:"description"`
	Quantity    int              `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	DiscountPct decimal.Decimal  `json:"discount_pct"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
}

func (h *InvoiceHandler) lineInput(c *fiber.Ctx, req LineRequest) (service.AddLineInput, error) {
	invoiceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return service.AddLineInput{}, err
	}
	productID, err := parseUUID(req.ProductID)
	if err != nil {
		return service.AddLineInput{}, err
	}
	return service.AddLineInput{
		InvoiceID:   invoiceID,
		ProductID:   productID,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		DiscountPct: req.DiscountPct,
		TaxRate:     req.TaxRate,
		UserID:      getUserID(c),
	}, nil
}

func (h *InvoiceHandler) AddLine(c *fiber.Ctx) error {
	var req LineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	in, err := h.lineInput(c, req)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid ID"})
	}

	invoice, err := h.invoiceService.AddLineItem(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Line added", "data": invoice})
}

func (h *InvoiceHandler) AddAdjustmentLine(c *fiber.Ctx) error {
	var req LineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	in, err := h.lineInput(c, req)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid ID"})
	}

	invoice, err := h.invoiceService.AddAdjustmentLine(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Adjustment line added", "data": invoice})
}

func (h *InvoiceHandler) Issue(c *fiber.Ctx) error {
	invoiceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	invoice, err := h.invoiceService.Issue(invoiceID, getUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Invoice issued", "data": invoice})
}

// PaymentRequest is the request body for applying a payment.
type PaymentRequest struct {
	PaymentTypeID string          `json:"payment_type_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference"`
	Confirm       *bool           `json:"confirm"`
}

func (h *InvoiceHandler) ApplyPayment(c *fiber.Ctx) error {
	invoiceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	paymentTypeID, err := parseUUID(req.PaymentTypeID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid payment type ID"})
	}

	confirm := true
	if req.Confirm != nil {
		confirm = *req.Confirm
	}

	invoice, err := h.invoiceService.ApplyPayment(service.ApplyPaymentInput{
		InvoiceID:     invoiceID,
		PaymentTypeID: paymentTypeID,
		Amount:        req.Amount,
		Reference:     req.Reference,
		Confirm:       confirm,
		UserID:        getUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Payment applied", "data": invoice})
}

func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	invoiceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	invoice, err := h.invoiceService.Cancel(invoiceID, getUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Invoice cancelled", "data": invoice})
}

func (h *InvoiceHandler) GetInvoices(c *fiber.Ctx) error {
	invoices, err := h.invoiceService.GetInvoices()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(invoices)
}

func (h *InvoiceHandler) GetInvoice(c *fiber.Ctx) error {
	invoiceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	invoice, err := h.invoiceService.GetInvoice(invoiceID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(invoice)
}

func (h *InvoiceHandler) GetInvoiceByNumber(c *fiber.Ctx) error {
	invoice, err := h.invoiceService.GetInvoiceByNumber(c.Params("number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(invoice)
}

func (h *InvoiceHandler) GetOverdue(c *fiber.Ctx) error {
	invoices, err := h.invoiceService.GetOverdue()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(invoices)
}

func (h *InvoiceHandler) CreatePerson(c *fiber.Ctx) error {
	var person model.Person
	if err := c.BodyParser(&person); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.invoiceService.CreatePerson(&person, getUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Person created", "data": person})
}

func (h *InvoiceHandler) DeletePerson(c *fiber.Ctx) error {
	personID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid person ID"})
	}

	if err := h.invoiceService.DeletePerson(personID, getUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Person deleted"})
}

func (h *InvoiceHandler) CreatePaymentType(c *fiber.Ctx) error {
	var pt model.PaymentType
	if err := c.BodyParser(&pt); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.invoiceService.CreatePaymentType(&pt, getUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Payment type created", "data": pt})
}

func (h *InvoiceHandler) DeletePaymentType(c *fiber.Ctx) error {
	typeID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid payment type ID"})
	}

	if err := h.invoiceService.DeletePaymentType(typeID, getUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Payment type deleted"})
}

func (h *InvoiceHandler) GetPaymentTypes(c *fiber.Ctx) error {
	types, err := h.invoiceService.GetPaymentTypes()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(types)
}

func (h *InvoiceHandler) GetCompanyConfig(c *fiber.Ctx) error {
	cfg, err := h.invoiceService.GetCompanyConfig()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(cfg)
}

func (h *InvoiceHandler) UpdateCompanyConfig(c *fiber.Ctx) error {
	var cfg model.CompanyConfig
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.invoiceService.UpdateCompanyConfig(&cfg, getUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Company config updated", "data": updated})
}
